package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pos-backend/internal/config"
	"pos-backend/internal/database"
	"pos-backend/internal/scheduler"
	"pos-backend/internal/server"
	"pos-backend/internal/tracing"
	"pos-backend/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	log := logger.Must(logger.New())
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load(os.Getenv("ENV_FILE"))
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}
	for _, w := range cfg.Warnings {
		log.Warn(w)
	}

	shutdownTracing, err := tracing.Init(context.Background(), cfg, logger.Named(log, "tracing"))
	if err != nil {
		log.Fatal("failed to initialise tracing", zap.Error(err))
	}

	db, err := database.Init(cfg, logger.Named(log, "database"))
	if err != nil {
		log.Fatal("database init failed", zap.Error(err))
	}

	sched := scheduler.NewScheduler(cfg, db, logger.Named(log, "scheduler"))
	if err := sched.Start(); err != nil {
		log.Fatal("failed to start scheduler", zap.Error(err), zap.String("cron", cfg.LowStockCron))
	}

	app := server.New(cfg, db, log)

	go func() {
		log.Info("server listening", zap.String("port", cfg.HTTPPort))
		if err := app.Listen(":" + cfg.HTTPPort); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	sched.Stop()
	if err := shutdownTracing(context.Background()); err != nil {
		log.Error("tracing shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

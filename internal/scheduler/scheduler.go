package scheduler

import (
	"context"
	"time"

	"pos-backend/internal/config"
	"pos-backend/internal/dashboard"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Scheduler runs periodic housekeeping jobs.
type Scheduler struct {
	cron   *cron.Cron
	db     *gorm.DB
	cfg    *config.Config
	logger *zap.Logger
}

func NewScheduler(cfg *config.Config, db *gorm.DB, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:   cron.New(),
		db:     db,
		cfg:    cfg,
		logger: logger,
	}
}

// Start registers the jobs and starts the cron loop. A bad schedule is
// returned before anything runs.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("low_stock_cron", s.cfg.LowStockCron))

	if _, err := s.cron.AddFunc(s.cfg.LowStockCron, s.reportLowStock); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) reportLowStock() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	batches, err := dashboard.LowStock(ctx, s.db, s.cfg.LowStockThreshold)
	if err != nil {
		s.logger.Error("low stock report failed", zap.Error(err))
		return
	}
	if len(batches) == 0 {
		s.logger.Info("no batches below threshold", zap.Int("threshold", s.cfg.LowStockThreshold))
		return
	}

	for _, b := range batches {
		name := ""
		if b.Item != nil {
			name = b.Item.Name
		}
		s.logger.Warn("low stock",
			zap.Uint("item_id", b.ItemID),
			zap.String("item", name),
			zap.Int("batch", b.BatchNumber),
			zap.Int("quantity", b.Quantity))
	}
	s.logger.Info("low stock report done",
		zap.Int("batches", len(batches)),
		zap.Int("threshold", s.cfg.LowStockThreshold))
}

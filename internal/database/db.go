package database

import (
	"fmt"
	"time"

	"pos-backend/internal/config"
	"pos-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Init connects to Postgres, migrates the schema and seeds reference data.
// Safe to run on every boot.
func Init(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	db, err := Open(postgres.Open(cfg.DatabaseDSN))
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	if err := Seed(db); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("database connected, migration complete")
	}
	return db, nil
}

// Open wraps gorm.Open with the settings every store uses: duplicate-key
// errors translated to gorm.ErrDuplicatedKey and SQL logging off.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.ItemType{},
		&models.Item{},
		&models.InventoryBatch{},
		&models.Sale{},
		&models.SaleLineItem{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// Seed makes sure the default item types exist.
func Seed(db *gorm.DB) error {
	for _, name := range models.DefaultItemTypes {
		t := models.ItemType{Name: name}
		if err := db.Where("name = ?", name).FirstOrCreate(&t).Error; err != nil {
			return fmt.Errorf("seed item type %q: %w", name, err)
		}
	}
	return nil
}

package scheduler

import (
	"testing"

	"pos-backend/internal/config"
	"pos-backend/internal/models"
	"pos-backend/internal/testdb"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestReportLowStockLogsEachBatch(t *testing.T) {
	db := testdb.New(t)
	var typ models.ItemType
	require.NoError(t, db.First(&typ).Error)
	it := models.Item{Name: "Charger", ItemTypeID: typ.ID}
	require.NoError(t, db.Create(&it).Error)
	for i, qty := range []int{2, 50, 7} {
		require.NoError(t, db.Create(&models.InventoryBatch{
			ItemID: it.ID, BatchNumber: i + 1, Quantity: qty,
			InwardPrice: decimal.NewFromInt(1), SellingPrice: decimal.NewFromInt(2),
		}).Error)
	}

	core, logs := observer.New(zapcore.InfoLevel)
	s := NewScheduler(&config.Config{LowStockThreshold: 10, LowStockCron: "0 8 * * *"}, db, zap.New(core))
	s.reportLowStock()

	warned := logs.FilterMessage("low stock").All()
	require.Len(t, warned, 2)
	assert.EqualValues(t, 2, warned[0].ContextMap()["quantity"])
	assert.EqualValues(t, 7, warned[1].ContextMap()["quantity"])
	assert.Equal(t, 1, logs.FilterMessage("low stock report done").Len())
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(&config.Config{LowStockCron: "not a schedule"}, nil, nil)
	assert.Error(t, s.Start())
}

func TestStartAndStop(t *testing.T) {
	s := NewScheduler(&config.Config{LowStockCron: "@every 1h"}, nil, nil)
	require.NoError(t, s.Start())
	s.Stop()
}

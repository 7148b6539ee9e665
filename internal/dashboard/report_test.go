package dashboard_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"pos-backend/internal/audit"
	"pos-backend/internal/dashboard"
	"pos-backend/internal/inventory"
	"pos-backend/internal/models"
	"pos-backend/internal/sales"
	"pos-backend/internal/testdb"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// seedShop leaves two batches (6 and 3 units) and one sale of 480.
func seedShop(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()
	db := testdb.New(t)

	seller := models.User{Username: "counter", PasswordHash: "x"}
	require.NoError(t, db.Create(&seller).Error)
	var typ models.ItemType
	require.NoError(t, db.Where("name = ?", "Display").First(&typ).Error)
	it := models.Item{Name: "Display 7in", ItemTypeID: typ.ID}
	require.NoError(t, db.Create(&it).Error)

	alloc := inventory.NewAllocator(db, nil)
	actor := audit.Actor{ID: seller.ID, Username: seller.Username}
	price := decimal.NewFromInt(120)
	ten, three := 10, 3
	first, err := alloc.CreateBatch(ctx, actor, inventory.BatchInput{ItemID: it.ID, Quantity: &ten, InwardPrice: &price, SellingPrice: &price})
	require.NoError(t, err)
	_, err = alloc.CreateBatch(ctx, actor, inventory.BatchInput{ItemID: it.ID, Quantity: &three, InwardPrice: &price, SellingPrice: &price})
	require.NoError(t, err)

	_, err = sales.NewRecorder(db, nil).RecordSale(ctx, sales.SaleInput{
		CustomerName: "Ravi",
		SellerID:     seller.ID,
		Lines: []sales.LineInput{{
			ItemID: it.ID, InventoryBatchID: first.ID, Quantity: 4, UnitPrice: price,
		}},
	})
	require.NoError(t, err)
	return db
}

func TestComputeStats(t *testing.T) {
	db := seedShop(t)

	s, err := dashboard.ComputeStats(context.Background(), db, time.Now(), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(9), s.TotalInventory)
	assert.Equal(t, int64(2), s.LowStockCount)
	assert.Equal(t, int64(1), s.TodaySalesCount)
	assert.Equal(t, "480.00", s.TotalRevenue.StringFixed(2))
	assert.Equal(t, "480.00", s.WeekRevenue.StringFixed(2))

	s, err = dashboard.ComputeStats(context.Background(), db, time.Now(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.LowStockCount)
}

func TestComputeStatsOnEmptyStore(t *testing.T) {
	db := testdb.New(t)
	s, err := dashboard.ComputeStats(context.Background(), db, time.Now(), 10)
	require.NoError(t, err)
	assert.Zero(t, s.TotalInventory)
	assert.Zero(t, s.TodaySalesCount)
	assert.True(t, s.TotalRevenue.IsZero())
	assert.True(t, s.WeekRevenue.IsZero())
}

func TestRecentActivities(t *testing.T) {
	db := seedShop(t)

	all, err := dashboard.RecentActivities(context.Background(), db, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	kinds := map[string]int{}
	for i, a := range all {
		kinds[a.Type]++
		if i > 0 {
			assert.False(t, a.Timestamp.After(all[i-1].Timestamp))
		}
	}
	assert.Equal(t, map[string]int{"sale": 1, "inventory": 2}, kinds)

	limited, err := dashboard.RecentActivities(context.Background(), db, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestLowStockHandler(t *testing.T) {
	db := seedShop(t)
	app := fiber.New()
	app.Get("/low-stock", dashboard.LowStockHandler(db, 10))
	app.Get("/stats", dashboard.StatsHandler(db, 10))

	resp, err := app.Test(httptest.NewRequest("GET", "/low-stock?threshold=5", nil), -1)
	require.NoError(t, err)
	var entries []dashboard.LowStockEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, 3, entries[0].Quantity)
	assert.Equal(t, 2, entries[0].Batch)
	assert.Equal(t, "Display 7in", entries[0].ItemName)
	assert.Equal(t, "Display", entries[0].ItemType)

	resp, err = app.Test(httptest.NewRequest("GET", "/low-stock", nil), -1)
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 2)
	assert.Equal(t, 3, entries[0].Quantity)
	assert.Equal(t, 6, entries[1].Quantity)

	resp, err = app.Test(httptest.NewRequest("GET", "/stats", nil), -1)
	require.NoError(t, err)
	var stats map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, "480.00", stats["totalRevenue"])
	assert.EqualValues(t, 9, stats["totalInventory"])
}

package sales

import (
	"testing"
	"time"

	"pos-backend/internal/apperr"
	"pos-backend/internal/models"
	"pos-backend/internal/testdb"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSellLineRefusesToDecrementBelowStoredStock(t *testing.T) {
	db := testdb.New(t)

	seller := models.User{Username: "counter", PasswordHash: "x"}
	require.NoError(t, db.Create(&seller).Error)
	var typ models.ItemType
	require.NoError(t, db.Where("name = ?", "Display").First(&typ).Error)
	item := models.Item{Name: "LCD 5in", ItemTypeID: typ.ID}
	require.NoError(t, db.Create(&item).Error)
	batch := models.InventoryBatch{
		ItemID:       item.ID,
		BatchNumber:  1,
		Quantity:     10,
		InwardPrice:  decimal.NewFromInt(80),
		SellingPrice: decimal.NewFromInt(120),
	}
	require.NoError(t, db.Create(&batch).Error)
	sale := models.Sale{InvoiceDate: time.Now(), CustomerName: "Walk-in", SoldBy: seller.ID, PaymentMode: models.PaymentCash}
	require.NoError(t, db.Create(&sale).Error)

	// The caller still believes 10 are left; another writer took 8.
	stale := batch
	require.NoError(t, db.Model(&models.InventoryBatch{}).Where("id = ?", batch.ID).Update("quantity", 2).Error)

	ln := LineInput{ItemID: item.ID, InventoryBatchID: batch.ID, Quantity: 5, UnitPrice: decimal.NewFromInt(120)}
	_, err := sellLine(db, map[uint]*models.InventoryBatch{batch.ID: &stale}, sale.ID, seller.ID, 0, ln)

	var ce *apperr.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, batch.ID, ce.BatchID)
	assert.Equal(t, item.ID, ce.ItemID)

	var stored models.InventoryBatch
	require.NoError(t, db.First(&stored, batch.ID).Error)
	assert.Equal(t, 2, stored.Quantity)
	var lines int64
	require.NoError(t, db.Model(&models.SaleLineItem{}).Count(&lines).Error)
	assert.Zero(t, lines)
	assert.Equal(t, 10, stale.Quantity)
}

func TestLockBatchesSkipsUnknownIDs(t *testing.T) {
	db := testdb.New(t)

	var typ models.ItemType
	require.NoError(t, db.Where("name = ?", "Panel").First(&typ).Error)
	item := models.Item{Name: "Poly 200W", ItemTypeID: typ.ID}
	require.NoError(t, db.Create(&item).Error)
	batch := models.InventoryBatch{ItemID: item.ID, BatchNumber: 1, Quantity: 3}
	require.NoError(t, db.Create(&batch).Error)

	locked, err := lockBatches(db, []LineInput{
		{InventoryBatchID: batch.ID},
		{InventoryBatchID: 9999},
		{InventoryBatchID: batch.ID},
	})
	require.NoError(t, err)
	require.Len(t, locked, 1)
	assert.Equal(t, 3, locked[batch.ID].Quantity)
}

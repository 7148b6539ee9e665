package database_test

import (
	"testing"

	"pos-backend/internal/database"
	"pos-backend/internal/models"
	"pos-backend/internal/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSeedIsIdempotent(t *testing.T) {
	db := testdb.New(t)

	require.NoError(t, database.Seed(db))
	require.NoError(t, database.Seed(db))

	var names []string
	require.NoError(t, db.Model(&models.ItemType{}).Order("name asc").Pluck("name", &names).Error)
	assert.Equal(t, []string{"Accessory", "Display", "Panel"}, names)
}

func TestBatchQuantityCannotGoNegative(t *testing.T) {
	db := testdb.New(t)

	var typ models.ItemType
	require.NoError(t, db.Where("name = ?", "Panel").First(&typ).Error)
	item := models.Item{Name: "Mono 400W", ItemTypeID: typ.ID}
	require.NoError(t, db.Create(&item).Error)
	batch := models.InventoryBatch{ItemID: item.ID, BatchNumber: 1, Quantity: 2}
	require.NoError(t, db.Create(&batch).Error)

	err := db.Model(&models.InventoryBatch{}).Where("id = ?", batch.ID).
		Update("quantity", gorm.Expr("quantity - ?", 3)).Error
	require.Error(t, err)

	var stored models.InventoryBatch
	require.NoError(t, db.First(&stored, batch.ID).Error)
	assert.Equal(t, 2, stored.Quantity)
}

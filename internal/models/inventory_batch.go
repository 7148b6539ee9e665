package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryBatch: one receipt of stock for an item. BatchNumber is assigned
// once per item as max+1 and never changes; Quantity is what is left to sell.
type InventoryBatch struct {
	ID           uint `gorm:"primaryKey"`
	ItemID       uint `gorm:"not null;uniqueIndex:idx_inventory_batches_item_batch,priority:1"`
	Item         *Item
	BatchNumber  int             `gorm:"not null;uniqueIndex:idx_inventory_batches_item_batch,priority:2"`
	Quantity     int             `gorm:"not null;default:0;check:chk_inventory_batches_quantity,quantity >= 0"`
	InwardPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedBy    *uint
	UpdatedBy    *uint
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time
}

package models

import "time"

type Item struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:255;not null;index"`
	ItemTypeID  uint   `gorm:"index;not null"`
	ItemType    *ItemType
	Description string `gorm:"type:text"`
	CreatedBy   *uint
	UpdatedBy   *uint
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Batches []InventoryBatch `gorm:"foreignKey:ItemID;constraint:OnDelete:RESTRICT"`
}

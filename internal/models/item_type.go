package models

import "time"

// ItemType: category label for catalog items
type ItemType struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null;uniqueIndex"`
	CreatedBy *uint
	UpdatedBy *uint
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultItemTypes are seeded on every boot.
var DefaultItemTypes = []string{"Accessory", "Panel", "Display"}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMode string

const (
	PaymentCash PaymentMode = "CASH"
	PaymentUPI  PaymentMode = "UPI"
)

func (m PaymentMode) Valid() bool {
	return m == PaymentCash || m == PaymentUPI
}

// Sale: invoice header. TotalQuantity and TotalAmount always equal the sums
// over Lines; they are written once, inside the transaction that creates them.
type Sale struct {
	ID            uint            `gorm:"primaryKey"`
	InvoiceDate   time.Time       `gorm:"index;not null"`
	CustomerName  string          `gorm:"size:255;not null"`
	SoldBy        uint            `gorm:"index;not null"`
	Seller        *User           `gorm:"foreignKey:SoldBy"`
	PaymentMode   PaymentMode     `gorm:"size:10;not null;default:CASH"`
	TotalQuantity int             `gorm:"not null;default:0"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt     time.Time       `gorm:"index"`
	UpdatedAt     time.Time

	Lines []SaleLineItem `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
}

// SaleLineItem: permanent record of which batch satisfied which part of a sale.
type SaleLineItem struct {
	ID               uint `gorm:"primaryKey"`
	SaleID           uint `gorm:"index;not null"`
	ItemID           uint `gorm:"index;not null"`
	Item             *Item
	InventoryBatchID uint `gorm:"index;not null"`
	InventoryBatch   *InventoryBatch
	Quantity         int             `gorm:"not null;check:chk_sale_line_items_quantity,quantity >= 1"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Amount           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

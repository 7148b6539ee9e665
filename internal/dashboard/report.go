// Package dashboard computes the summary figures shown on the home screen.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"pos-backend/internal/apperr"
	"pos-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LowStockListLimit caps the low-stock list.
const LowStockListLimit = 20

type Stats struct {
	TotalInventory  int64           `json:"totalInventory"`
	LowStockCount   int64           `json:"lowStockCount"`
	TodaySalesCount int64           `json:"todaySalesCount"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
	WeekRevenue     decimal.Decimal `json:"weekRevenue"`
}

type Activity struct {
	Type        string           `json:"type"` // sale | inventory
	ID          uint             `json:"id"`
	Description string           `json:"description"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Quantity    int              `json:"quantity"`
	User        string           `json:"user"`
	Timestamp   time.Time        `json:"timestamp"`
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sumAmount(q *gorm.DB) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := q.Select("SUM(total_amount)").Row().Scan(&total); err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// ComputeStats gathers stock and revenue totals as of now. Batches below
// lowStockThreshold count as low stock.
func ComputeStats(ctx context.Context, db *gorm.DB, now time.Time, lowStockThreshold int) (*Stats, error) {
	db = db.WithContext(ctx)
	var s Stats

	var stock *int64
	if err := db.Model(&models.InventoryBatch{}).Select("SUM(quantity)").Row().Scan(&stock); err != nil {
		return nil, apperr.Store("sum inventory", err)
	}
	if stock != nil {
		s.TotalInventory = *stock
	}

	if err := db.Model(&models.InventoryBatch{}).Where("quantity < ?", lowStockThreshold).
		Count(&s.LowStockCount).Error; err != nil {
		return nil, apperr.Store("count low stock", err)
	}

	today := startOfDay(now)
	if err := db.Model(&models.Sale{}).Where("invoice_date >= ?", today).
		Count(&s.TodaySalesCount).Error; err != nil {
		return nil, apperr.Store("count today's sales", err)
	}

	var err error
	if s.TotalRevenue, err = sumAmount(db.Model(&models.Sale{})); err != nil {
		return nil, apperr.Store("sum revenue", err)
	}
	weekStart := today.AddDate(0, 0, -7)
	if s.WeekRevenue, err = sumAmount(db.Model(&models.Sale{}).Where("invoice_date >= ?", weekStart)); err != nil {
		return nil, apperr.Store("sum week revenue", err)
	}
	return &s, nil
}

// RecentActivities merges the latest sales and stock receipts, newest first.
func RecentActivities(ctx context.Context, db *gorm.DB, limit int) ([]Activity, error) {
	db = db.WithContext(ctx)

	var sales []models.Sale
	if err := db.Preload("Seller").
		Order("created_at DESC, id DESC").Limit(limit).
		Find(&sales).Error; err != nil {
		return nil, apperr.Store("recent sales", err)
	}

	var batches []models.InventoryBatch
	if err := db.Preload("Item").
		Order("created_at DESC, id DESC").Limit(limit).
		Find(&batches).Error; err != nil {
		return nil, apperr.Store("recent batches", err)
	}

	out := make([]Activity, 0, len(sales)+len(batches))
	for _, s := range sales {
		user := "Unknown"
		if s.Seller != nil {
			user = s.Seller.Username
		}
		amount := s.TotalAmount
		out = append(out, Activity{
			Type:        "sale",
			ID:          s.ID,
			Description: fmt.Sprintf("Sale to %s", s.CustomerName),
			Amount:      &amount,
			Quantity:    s.TotalQuantity,
			User:        user,
			Timestamp:   s.CreatedAt,
		})
	}
	for _, b := range batches {
		name := "Item"
		if b.Item != nil {
			name = b.Item.Name
		}
		out = append(out, Activity{
			Type:        "inventory",
			ID:          b.ID,
			Description: fmt.Sprintf("Added %s (Batch %d)", name, b.BatchNumber),
			Quantity:    b.Quantity,
			User:        "System",
			Timestamp:   b.CreatedAt,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// LowStock lists batches holding fewer than threshold units, emptiest first.
func LowStock(ctx context.Context, db *gorm.DB, threshold int) ([]models.InventoryBatch, error) {
	var batches []models.InventoryBatch
	err := db.WithContext(ctx).
		Preload("Item").Preload("Item.ItemType").
		Where("quantity < ?", threshold).
		Order("quantity ASC, id ASC").
		Limit(LowStockListLimit).
		Find(&batches).Error
	if err != nil {
		return nil, apperr.Store("list low stock", err)
	}
	return batches, nil
}

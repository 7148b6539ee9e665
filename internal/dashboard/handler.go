package dashboard

import (
	"time"

	"pos-backend/internal/pagination"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LowStockEntry struct {
	ID           uint            `json:"id"`
	ItemID       uint            `json:"itemId"`
	ItemName     string          `json:"itemName"`
	ItemType     string          `json:"itemType,omitempty"`
	Batch        int             `json:"batch"`
	Quantity     int             `json:"quantity"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// GET /api/dashboard/stats
func StatsHandler(db *gorm.DB, lowStockThreshold int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := ComputeStats(c.UserContext(), db, time.Now(), lowStockThreshold)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"totalInventory":  s.TotalInventory,
			"lowStockCount":   s.LowStockCount,
			"todaySalesCount": s.TodaySalesCount,
			"totalRevenue":    s.TotalRevenue.StringFixed(2),
			"weekRevenue":     s.WeekRevenue.StringFixed(2),
		})
	}
}

// GET /api/dashboard/activities?limit=10
func ActivitiesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", pagination.DefaultLimit)
		if limit < 1 {
			limit = pagination.DefaultLimit
		}
		if limit > pagination.MaxLimit {
			limit = pagination.MaxLimit
		}

		activities, err := RecentActivities(c.UserContext(), db, limit)
		if err != nil {
			return err
		}
		return c.JSON(activities)
	}
}

// GET /api/dashboard/low-stock?threshold=10
func LowStockHandler(db *gorm.DB, defaultThreshold int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		threshold := c.QueryInt("threshold", defaultThreshold)
		if threshold < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "threshold must not be negative")
		}

		batches, err := LowStock(c.UserContext(), db, threshold)
		if err != nil {
			return err
		}

		res := make([]LowStockEntry, 0, len(batches))
		for _, b := range batches {
			e := LowStockEntry{
				ID:           b.ID,
				ItemID:       b.ItemID,
				Batch:        b.BatchNumber,
				Quantity:     b.Quantity,
				SellingPrice: b.SellingPrice,
				CreatedAt:    b.CreatedAt,
			}
			if b.Item != nil {
				e.ItemName = b.Item.Name
				if b.Item.ItemType != nil {
					e.ItemType = b.Item.ItemType.Name
				}
			}
			res = append(res, e)
		}
		return c.JSON(res)
	}
}

package audit

import (
	"pos-backend/internal/models"
	"pos-backend/internal/pagination"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GET /api/audit-logs?entityType=sale&entityId=1&userId=2&page=1&limit=10
func ListAuditLogsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page := pagination.FromQuery(c)

		dbq := db.WithContext(c.UserContext()).Model(&models.AuditLog{})
		if v := c.Query("entityType"); v != "" {
			dbq = dbq.Where("entity_type = ?", v)
		}
		if id := uint(c.QueryInt("entityId")); id > 0 {
			dbq = dbq.Where("entity_id = ?", id)
		}
		if id := uint(c.QueryInt("userId")); id > 0 {
			dbq = dbq.Where("user_id = ?", id)
		}

		dbq = dbq.Session(&gorm.Session{})

		var total int64
		if err := dbq.Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list audit logs")
		}

		var logs []models.AuditLog
		if err := dbq.Order("created_at DESC, id DESC").
			Limit(page.Limit).Offset(page.Offset()).
			Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list audit logs")
		}

		return c.JSON(page.Result("logs", logs, total))
	}
}

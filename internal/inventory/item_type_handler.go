package inventory

import (
	"errors"
	"fmt"
	"strings"

	"pos-backend/internal/apperr"
	"pos-backend/internal/audit"
	"pos-backend/internal/auth"
	"pos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateItemTypeRequest struct {
	Name string `json:"name"`
}

// GET /api/item-types
func ListItemTypesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var types []models.ItemType
		if err := db.WithContext(c.UserContext()).Order("name asc").Find(&types).Error; err != nil {
			return apperr.Store("list item types", err)
		}

		res := make([]ItemTypeResponse, 0, len(types))
		for _, t := range types {
			res = append(res, ItemTypeResponse{ID: t.ID, Name: t.Name})
		}
		return c.JSON(res)
	}
}

// POST /api/item-types
func CreateItemTypeHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}

		var body CreateItemTypeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return apperr.Validation("name", "Name is required")
		}
		if len(body.Name) > 100 {
			return apperr.Validation("name", "must be at most 100 characters")
		}

		t := models.ItemType{Name: body.Name, CreatedBy: actor.Ref(), UpdatedBy: actor.Ref()}
		err = db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&t).Error; err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				Actor:       actor,
				EntityType:  audit.EntityItemType,
				EntityID:    t.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Item type created: %s", t.Name),
				After:       ItemTypeResponse{ID: t.ID, Name: t.Name},
			})
		})
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fiber.NewError(fiber.StatusBadRequest, "Item type already exists")
		}
		if err != nil {
			return apperr.Store("create item type", err)
		}

		return c.Status(fiber.StatusCreated).JSON(ItemTypeResponse{ID: t.ID, Name: t.Name})
	}
}

package inventory

import (
	"errors"
	"fmt"
	"strings"

	"pos-backend/internal/apperr"
	"pos-backend/internal/audit"
	"pos-backend/internal/auth"
	"pos-backend/internal/models"
	"pos-backend/internal/pagination"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateItemRequest struct {
	Name        string `json:"name"`
	ItemTypeID  uint   `json:"itemTypeId"`
	Description string `json:"description"`
}

type UpdateItemRequest struct {
	Name        *string `json:"name"`
	ItemTypeID  *uint   `json:"itemTypeId"`
	Description *string `json:"description"`
}

func checkItemType(tx *gorm.DB, id uint) error {
	var n int64
	if err := tx.Model(&models.ItemType{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return &apperr.ReferenceError{Entity: "item_type", ID: id, Message: "Invalid item type"}
	}
	return nil
}

func loadItem(db *gorm.DB, id uint) (*models.Item, error) {
	var it models.Item
	if err := db.Preload("ItemType").First(&it, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Item not found")
		}
		return nil, apperr.Store("find item", err)
	}
	return &it, nil
}

// GET /api/items?search=panel&page=1&limit=10
func ListItemsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page := pagination.FromQuery(c)

		dbq := db.WithContext(c.UserContext()).Model(&models.Item{})
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			dbq = dbq.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
		}
		dbq = dbq.Session(&gorm.Session{})

		var total int64
		if err := dbq.Count(&total).Error; err != nil {
			return apperr.Store("count items", err)
		}

		var items []models.Item
		if err := dbq.Preload("ItemType").
			Order("created_at DESC, id DESC").
			Limit(page.Limit).Offset(page.Offset()).
			Find(&items).Error; err != nil {
			return apperr.Store("list items", err)
		}

		res := make([]ItemResponse, 0, len(items))
		for _, it := range items {
			res = append(res, toItemResponse(it))
		}
		return c.JSON(page.Result("items", res, total))
	}
}

// GET /api/items/:id
func GetItemHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid item id")
		}
		it, err := loadItem(db.WithContext(c.UserContext()), uint(id))
		if err != nil {
			return err
		}
		return c.JSON(toItemResponse(*it))
	}
}

// POST /api/items
func CreateItemHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}

		var body CreateItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" || body.ItemTypeID == 0 {
			return apperr.Validation("", "Name and item type are required")
		}
		if len(body.Name) > 255 {
			return apperr.Validation("name", "must be at most 255 characters")
		}

		it := models.Item{
			Name:        body.Name,
			ItemTypeID:  body.ItemTypeID,
			Description: body.Description,
			CreatedBy:   actor.Ref(),
			UpdatedBy:   actor.Ref(),
		}
		err = db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			if err := checkItemType(tx, body.ItemTypeID); err != nil {
				return err
			}
			if err := tx.Create(&it).Error; err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				Actor:       actor,
				EntityType:  audit.EntityItem,
				EntityID:    it.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Item created: %s", it.Name),
				After:       toItemResponse(it),
			})
		})
		if err != nil {
			return apperr.Store("create item", err)
		}

		created, err := loadItem(db.WithContext(c.UserContext()), it.ID)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toItemResponse(*created))
	}
}

// PUT /api/items/:id
func UpdateItemHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid item id")
		}

		var body UpdateItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		err = db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			var it models.Item
			if err := tx.First(&it, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusNotFound, "Item not found")
				}
				return err
			}

			if body.Name != nil {
				name := strings.TrimSpace(*body.Name)
				if name == "" {
					return apperr.Validation("name", "must not be empty")
				}
				it.Name = name
			}
			if body.ItemTypeID != nil && *body.ItemTypeID != it.ItemTypeID {
				if err := checkItemType(tx, *body.ItemTypeID); err != nil {
					return err
				}
				it.ItemTypeID = *body.ItemTypeID
			}
			if body.Description != nil {
				it.Description = *body.Description
			}
			it.UpdatedBy = actor.Ref()

			if err := tx.Model(&it).Select("name", "item_type_id", "description", "updated_by", "updated_at").
				Updates(&it).Error; err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				Actor:       actor,
				EntityType:  audit.EntityItem,
				EntityID:    it.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Item updated: %s", it.Name),
				After:       toItemResponse(it),
			})
		})
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			return apperr.Store("update item", err)
		}

		updated, err := loadItem(db.WithContext(c.UserContext()), uint(id))
		if err != nil {
			return err
		}
		return c.JSON(toItemResponse(*updated))
	}
}

// DELETE /api/items/:id
// Items with stock batches are kept; their batches reference them.
func DeleteItemHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid item id")
		}

		err = db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			var it models.Item
			if err := tx.First(&it, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusNotFound, "Item not found")
				}
				return err
			}

			var batches int64
			if err := tx.Model(&models.InventoryBatch{}).Where("item_id = ?", it.ID).Count(&batches).Error; err != nil {
				return err
			}
			if batches > 0 {
				return &apperr.ConflictError{
					Message: fmt.Sprintf("item %d has %d inventory batches and cannot be deleted", it.ID, batches),
					ItemID:  it.ID,
				}
			}

			if err := tx.Delete(&it).Error; err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				Actor:       actor,
				EntityType:  audit.EntityItem,
				EntityID:    it.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Item deleted: %s", it.Name),
			})
		})
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			return apperr.Store("delete item", err)
		}

		return c.JSON(fiber.Map{"message": "Item deleted successfully"})
	}
}

package inventory

import (
	"errors"

	"pos-backend/internal/apperr"
	"pos-backend/internal/auth"
	"pos-backend/internal/models"
	"pos-backend/internal/pagination"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func preloadBatchItem(db *gorm.DB) *gorm.DB {
	return db.Preload("Item").Preload("Item.ItemType")
}

func loadBatch(db *gorm.DB, id uint) (*models.InventoryBatch, error) {
	var b models.InventoryBatch
	if err := preloadBatchItem(db).First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Inventory record not found")
		}
		return nil, apperr.Store("find inventory batch", err)
	}
	return &b, nil
}

func batchID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid inventory id")
	}
	return uint(id), nil
}

// GET /api/inventory?itemId=3&page=1&limit=10
func ListBatchesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page := pagination.FromQuery(c)

		dbq := db.WithContext(c.UserContext()).Model(&models.InventoryBatch{})
		if itemID := c.QueryInt("itemId"); itemID > 0 {
			dbq = dbq.Where("item_id = ?", itemID)
		}
		dbq = dbq.Session(&gorm.Session{})

		var total int64
		if err := dbq.Count(&total).Error; err != nil {
			return apperr.Store("count inventory batches", err)
		}

		var batches []models.InventoryBatch
		if err := preloadBatchItem(dbq).
			Order("created_at DESC, id DESC").
			Limit(page.Limit).Offset(page.Offset()).
			Find(&batches).Error; err != nil {
			return apperr.Store("list inventory batches", err)
		}

		res := make([]BatchResponse, 0, len(batches))
		for _, b := range batches {
			res = append(res, toBatchResponse(b))
		}
		return c.JSON(page.Result("items", res, total))
	}
}

// GET /api/inventory/:id
func GetBatchHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := batchID(c)
		if err != nil {
			return err
		}
		b, err := loadBatch(db.WithContext(c.UserContext()), id)
		if err != nil {
			return err
		}
		return c.JSON(toBatchResponse(*b))
	}
}

// POST /api/inventory
func CreateBatchHandler(alloc *Allocator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}

		var body BatchInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		batch, err := alloc.CreateBatch(c.UserContext(), actor, body)
		if err != nil {
			return err
		}

		created, err := loadBatch(alloc.db.WithContext(c.UserContext()), batch.ID)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toBatchResponse(*created))
	}
}

// PUT /api/inventory/:id
func UpdateBatchHandler(alloc *Allocator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		id, err := batchID(c)
		if err != nil {
			return err
		}

		var body BatchUpdate
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if _, err := alloc.UpdateBatch(c.UserContext(), actor, id, body); err != nil {
			return notFoundOnPath(err)
		}

		updated, err := loadBatch(alloc.db.WithContext(c.UserContext()), id)
		if err != nil {
			return err
		}
		return c.JSON(toBatchResponse(*updated))
	}
}

// DELETE /api/inventory/:id
func DeleteBatchHandler(alloc *Allocator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		id, err := batchID(c)
		if err != nil {
			return err
		}

		if err := alloc.DeleteBatch(c.UserContext(), actor, id); err != nil {
			return notFoundOnPath(err)
		}
		return c.JSON(fiber.Map{"message": "Inventory record deleted successfully"})
	}
}

// notFoundOnPath turns a missing path entity into 404; elsewhere a dangling
// reference in a body is a 400.
func notFoundOnPath(err error) error {
	var re *apperr.ReferenceError
	if errors.As(err, &re) {
		return fiber.NewError(fiber.StatusNotFound, re.Error())
	}
	return err
}

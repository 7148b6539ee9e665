package inventory

import (
	"context"
	"errors"
	"fmt"

	"pos-backend/internal/apperr"
	"pos-backend/internal/audit"
	"pos-backend/internal/models"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxAllocationAttempts bounds retries when a freshly allocated batch number
// collides on the (item_id, batch_number) unique index.
const maxAllocationAttempts = 5

type BatchInput struct {
	ItemID       uint             `json:"itemId"`
	BatchNumber  int              `json:"batch"` // optional, allocated when zero
	Quantity     *int             `json:"quantity"`
	InwardPrice  *decimal.Decimal `json:"inwardPrice"`
	SellingPrice *decimal.Decimal `json:"sellingPrice"`
}

type BatchUpdate struct {
	Quantity     *int             `json:"quantity"`
	InwardPrice  *decimal.Decimal `json:"inwardPrice"`
	SellingPrice *decimal.Decimal `json:"sellingPrice"`
}

func (in BatchInput) validate() error {
	if in.ItemID == 0 {
		return apperr.Validation("itemId", "is required")
	}
	if in.BatchNumber < 0 {
		return apperr.Validation("batch", "must be positive")
	}
	if in.Quantity == nil || in.InwardPrice == nil || in.SellingPrice == nil {
		return apperr.Validation("", "Missing required fields")
	}
	return validateStock(in.Quantity, in.InwardPrice, in.SellingPrice)
}

func (u BatchUpdate) validate() error {
	return validateStock(u.Quantity, u.InwardPrice, u.SellingPrice)
}

func validateStock(qty *int, inward, selling *decimal.Decimal) error {
	if qty != nil && *qty < 0 {
		return apperr.Validation("quantity", "must not be negative")
	}
	if inward != nil && inward.IsNegative() {
		return apperr.Validation("inwardPrice", "must not be negative")
	}
	if selling != nil && selling.IsNegative() {
		return apperr.Validation("sellingPrice", "must not be negative")
	}
	return nil
}

// Allocator owns inventory batch writes: creation with per-item batch
// numbering, and quantity/price corrections.
type Allocator struct {
	db     *gorm.DB
	logger *zap.Logger
	tracer trace.Tracer

	nextNumber func(tx *gorm.DB, itemID uint) (int, error)
}

func NewAllocator(db *gorm.DB, logger *zap.Logger) *Allocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Allocator{
		db:         db,
		logger:     logger,
		tracer:     otel.Tracer("pos-backend/inventory"),
		nextNumber: NextBatchNumber,
	}
}

// NextBatchNumber returns max(batch_number)+1 for the item, 1 for its first
// batch. Call it on a transaction that already holds the item row lock.
func NextBatchNumber(tx *gorm.DB, itemID uint) (int, error) {
	var next int
	err := tx.Model(&models.InventoryBatch{}).
		Where("item_id = ?", itemID).
		Select("COALESCE(MAX(batch_number), 0) + 1").
		Scan(&next).Error
	return next, err
}

// CreateBatch records a stock receipt for in.ItemID. Batch numbers are unique
// per item even under concurrent creation; an explicit number that is already
// taken is a ConflictError.
func (a *Allocator) CreateBatch(ctx context.Context, actor audit.Actor, in BatchInput) (*models.InventoryBatch, error) {
	ctx, span := a.tracer.Start(ctx, "inventory.CreateBatch",
		trace.WithAttributes(attribute.Int("item.id", int(in.ItemID))))
	defer span.End()

	if err := in.validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	explicit := in.BatchNumber > 0
	for attempt := 1; attempt <= maxAllocationAttempts; attempt++ {
		batch, err := a.createOnce(ctx, actor, in)
		if err == nil {
			span.SetAttributes(attribute.Int("batch.number", batch.BatchNumber))
			a.logger.Info("inventory batch created",
				zap.Uint("item_id", batch.ItemID),
				zap.Uint("batch_id", batch.ID),
				zap.Int("batch", batch.BatchNumber),
				zap.Int("quantity", batch.Quantity),
				zap.Uint("actor_id", actor.ID))
			return batch, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, apperr.Store("create inventory batch", err)
		}
		if explicit {
			break
		}
		a.logger.Warn("batch number taken, retrying",
			zap.Uint("item_id", in.ItemID), zap.Int("attempt", attempt))
	}

	err := &apperr.ConflictError{
		Message: batchTakenMessage(in),
		ItemID:  in.ItemID,
	}
	span.SetStatus(codes.Error, err.Error())
	return nil, err
}

func batchTakenMessage(in BatchInput) string {
	if in.BatchNumber > 0 {
		return fmt.Sprintf("batch %d already exists for item %d", in.BatchNumber, in.ItemID)
	}
	return fmt.Sprintf("could not allocate a batch number for item %d, try again", in.ItemID)
}

func (a *Allocator) createOnce(ctx context.Context, actor audit.Actor, in BatchInput) (*models.InventoryBatch, error) {
	var batch models.InventoryBatch
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.Item
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, in.ItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &apperr.ReferenceError{Entity: "item", ID: in.ItemID, Message: "Invalid item"}
			}
			return err
		}

		number := in.BatchNumber
		if number == 0 {
			n, err := a.nextNumber(tx, item.ID)
			if err != nil {
				return err
			}
			number = n
		} else {
			var taken int64
			if err := tx.Model(&models.InventoryBatch{}).
				Where("item_id = ? AND batch_number = ?", item.ID, number).
				Count(&taken).Error; err != nil {
				return err
			}
			if taken > 0 {
				return gorm.ErrDuplicatedKey
			}
		}

		batch = models.InventoryBatch{
			ItemID:       item.ID,
			BatchNumber:  number,
			Quantity:     *in.Quantity,
			InwardPrice:  *in.InwardPrice,
			SellingPrice: *in.SellingPrice,
			CreatedBy:    actor.Ref(),
			UpdatedBy:    actor.Ref(),
		}
		if err := tx.Create(&batch).Error; err != nil {
			return err
		}

		return audit.WriteLog(tx, audit.LogOptions{
			Actor:       actor,
			EntityType:  audit.EntityInventoryBatch,
			EntityID:    batch.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Batch %d received for %s: %d units", batch.BatchNumber, item.Name, batch.Quantity),
			After:       toBatchResponse(batch),
		})
	})
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// UpdateBatch corrects quantity and prices. The batch number never changes.
func (a *Allocator) UpdateBatch(ctx context.Context, actor audit.Actor, id uint, in BatchUpdate) (*models.InventoryBatch, error) {
	ctx, span := a.tracer.Start(ctx, "inventory.UpdateBatch",
		trace.WithAttributes(attribute.Int("batch.id", int(id))))
	defer span.End()

	if err := in.validate(); err != nil {
		return nil, err
	}

	var batch models.InventoryBatch
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&batch, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &apperr.ReferenceError{Entity: "inventory_batch", ID: id, Message: "Inventory record not found"}
			}
			return err
		}

		if in.Quantity != nil {
			batch.Quantity = *in.Quantity
		}
		if in.InwardPrice != nil {
			batch.InwardPrice = *in.InwardPrice
		}
		if in.SellingPrice != nil {
			batch.SellingPrice = *in.SellingPrice
		}
		batch.UpdatedBy = actor.Ref()

		if err := tx.Model(&batch).Select("quantity", "inward_price", "selling_price", "updated_by", "updated_at").
			Updates(&batch).Error; err != nil {
			return err
		}

		return audit.WriteLog(tx, audit.LogOptions{
			Actor:       actor,
			EntityType:  audit.EntityInventoryBatch,
			EntityID:    batch.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Batch %d of item %d updated", batch.BatchNumber, batch.ItemID),
			After:       toBatchResponse(batch),
		})
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, apperr.Store("update inventory batch", err)
	}
	return &batch, nil
}

// DeleteBatch removes a batch that no sale refers to.
func (a *Allocator) DeleteBatch(ctx context.Context, actor audit.Actor, id uint) error {
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var batch models.InventoryBatch
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&batch, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &apperr.ReferenceError{Entity: "inventory_batch", ID: id, Message: "Inventory record not found"}
			}
			return err
		}

		var sold int64
		if err := tx.Model(&models.SaleLineItem{}).Where("inventory_batch_id = ?", id).Count(&sold).Error; err != nil {
			return err
		}
		if sold > 0 {
			return &apperr.ConflictError{
				Message: fmt.Sprintf("batch %d has recorded sales and cannot be deleted", batch.BatchNumber),
				ItemID:  batch.ItemID,
				BatchID: batch.ID,
			}
		}

		if err := tx.Delete(&batch).Error; err != nil {
			return err
		}
		return audit.WriteLog(tx, audit.LogOptions{
			Actor:       actor,
			EntityType:  audit.EntityInventoryBatch,
			EntityID:    batch.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Batch %d of item %d deleted", batch.BatchNumber, batch.ItemID),
		})
	})
	return apperr.Store("delete inventory batch", err)
}

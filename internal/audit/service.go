package audit

import (
	"encoding/json"
	"fmt"

	"pos-backend/internal/models"

	"gorm.io/gorm"
)

const (
	EntitySale           = "sale"
	EntityInventoryBatch = "inventory_batch"
	EntityItem           = "item"
	EntityItemType       = "item_type"
	EntityUser           = "user"
)

// Actor is the user a change is attributed to.
type Actor struct {
	ID       uint
	Username string
}

// Ref returns the actor id for created_by/updated_by columns, nil when unknown.
func (a Actor) Ref() *uint {
	if a.ID == 0 {
		return nil
	}
	id := a.ID
	return &id
}

type LogOptions struct {
	Actor       Actor
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	After       any
}

// WriteLog appends one audit record through db. Pass the transaction handle
// of the change being audited so the record commits or rolls back with it.
func WriteLog(db *gorm.DB, opts LogOptions) error {
	// jsonb wants the JSON literal null, not an empty string
	after := json.RawMessage("null")
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			after = b
		}
	}

	entry := models.AuditLog{
		UserID:      opts.Actor.ID,
		Username:    opts.Actor.Username,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		AfterData:   after,
	}

	if err := db.Create(&entry).Error; err != nil {
		return fmt.Errorf("audit log not saved: %w", err)
	}
	return nil
}

package models

import (
	"encoding/json"
	"time"
)

type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`

	// Who did it (denormalized username so the trail survives user renames).
	UserID   uint   `gorm:"index" json:"userId"`
	Username string `gorm:"size:255" json:"username"`

	// "sale", "inventory_batch", "item", "item_type", "user"
	EntityType string `gorm:"size:50;index" json:"entityType"`
	EntityID   uint   `gorm:"index" json:"entityId"`

	Action      AuditAction `gorm:"size:20" json:"action"`
	Description string      `gorm:"size:255" json:"description"`

	// State after the change, served as a JSON object
	AfterData json.RawMessage `gorm:"type:jsonb" json:"afterData"`
}

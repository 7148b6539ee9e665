package inventory

import (
	"time"

	"pos-backend/internal/models"

	"github.com/shopspring/decimal"
)

type ItemTypeResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type ItemResponse struct {
	ID          uint              `json:"id"`
	Name        string            `json:"name"`
	ItemTypeID  uint              `json:"itemTypeId"`
	Description string            `json:"description"`
	Type        *ItemTypeResponse `json:"type,omitempty"`
	CreatedBy   *uint             `json:"createdBy"`
	UpdatedBy   *uint             `json:"updatedBy"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// BatchItem is the slice of the item embedded in batch responses.
type BatchItem struct {
	ID   uint              `json:"id"`
	Name string            `json:"name"`
	Type *ItemTypeResponse `json:"type,omitempty"`
}

type BatchResponse struct {
	ID           uint            `json:"id"`
	ItemID       uint            `json:"itemId"`
	Batch        int             `json:"batch"`
	Quantity     int             `json:"quantity"`
	InwardPrice  decimal.Decimal `json:"inwardPrice"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	CreatedBy    *uint           `json:"createdBy"`
	UpdatedBy    *uint           `json:"updatedBy"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	Item         *BatchItem      `json:"item,omitempty"`
}

func toItemTypeResponse(t *models.ItemType) *ItemTypeResponse {
	if t == nil {
		return nil
	}
	return &ItemTypeResponse{ID: t.ID, Name: t.Name}
}

func toItemResponse(it models.Item) ItemResponse {
	return ItemResponse{
		ID:          it.ID,
		Name:        it.Name,
		ItemTypeID:  it.ItemTypeID,
		Description: it.Description,
		Type:        toItemTypeResponse(it.ItemType),
		CreatedBy:   it.CreatedBy,
		UpdatedBy:   it.UpdatedBy,
		CreatedAt:   it.CreatedAt,
		UpdatedAt:   it.UpdatedAt,
	}
}

func toBatchResponse(b models.InventoryBatch) BatchResponse {
	res := BatchResponse{
		ID:           b.ID,
		ItemID:       b.ItemID,
		Batch:        b.BatchNumber,
		Quantity:     b.Quantity,
		InwardPrice:  b.InwardPrice,
		SellingPrice: b.SellingPrice,
		CreatedBy:    b.CreatedBy,
		UpdatedBy:    b.UpdatedBy,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
	if b.Item != nil {
		res.Item = &BatchItem{ID: b.Item.ID, Name: b.Item.Name, Type: toItemTypeResponse(b.Item.ItemType)}
	}
	return res
}

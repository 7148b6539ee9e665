// Package sales records point-of-sale invoices against inventory batches.
package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pos-backend/internal/apperr"
	"pos-backend/internal/audit"
	"pos-backend/internal/models"
	"pos-backend/internal/pagination"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LineInput struct {
	ItemID           uint            `json:"itemId"`
	InventoryBatchID uint            `json:"inventoryBatchId"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unitPrice"`
}

type SaleInput struct {
	CustomerName string             `json:"customerName"`
	PaymentMode  models.PaymentMode `json:"paymentMode"`
	InvoiceDate  *time.Time         `json:"invoiceDate"`
	Lines        []LineInput        `json:"lines"`

	// SellerID is taken from the verified token, never from the body.
	SellerID uint `json:"-"`
}

func (in *SaleInput) normalize() error {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	if in.PaymentMode == "" {
		in.PaymentMode = models.PaymentCash
	}
	in.PaymentMode = models.PaymentMode(strings.ToUpper(string(in.PaymentMode)))

	if len(in.Lines) == 0 {
		return apperr.Validation("lines", "No items in sale")
	}
	if in.CustomerName == "" {
		return apperr.Validation("customerName", "is required")
	}
	if !in.PaymentMode.Valid() {
		return apperr.Validation("paymentMode", "must be CASH or UPI, got %q", in.PaymentMode)
	}
	if in.SellerID == 0 {
		return apperr.Validation("soldBy", "is required")
	}
	for i, ln := range in.Lines {
		field := fmt.Sprintf("lines[%d]", i)
		switch {
		case ln.ItemID == 0:
			return apperr.Validation(field+".itemId", "is required")
		case ln.InventoryBatchID == 0:
			return apperr.Validation(field+".inventoryBatchId", "is required")
		case ln.Quantity <= 0:
			return apperr.Validation(field+".quantity", "must be positive, got %d", ln.Quantity)
		case ln.UnitPrice.IsNegative():
			return apperr.Validation(field+".unitPrice", "must not be negative")
		}
	}
	return nil
}

// Recorder turns a cart into a persisted sale: every line is checked against
// its batch, stock is decremented and the invoice totals are written in one
// transaction, or nothing is written at all.
type Recorder struct {
	db     *gorm.DB
	logger *zap.Logger
	tracer trace.Tracer
}

func NewRecorder(db *gorm.DB, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		db:     db,
		logger: logger,
		tracer: otel.Tracer("pos-backend/sales"),
	}
}

// RecordSale persists in and returns the stored sale with seller, lines,
// items and batches loaded. Calling it twice with the same input records two
// sales.
func (r *Recorder) RecordSale(ctx context.Context, in SaleInput) (*models.Sale, error) {
	ctx, span := r.tracer.Start(ctx, "sales.RecordSale", trace.WithAttributes(
		attribute.Int("sale.lines", len(in.Lines)),
		attribute.Int("sale.seller_id", int(in.SellerID)),
	))
	defer span.End()

	if err := in.normalize(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	invoiceDate := time.Now()
	if in.InvoiceDate != nil && !in.InvoiceDate.IsZero() {
		invoiceDate = *in.InvoiceDate
	}

	var sale models.Sale
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seller models.User
		if err := tx.First(&seller, in.SellerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("user", in.SellerID)
			}
			return err
		}

		locked, err := lockBatches(tx, in.Lines)
		if err != nil {
			return err
		}

		sale = models.Sale{
			InvoiceDate:  invoiceDate,
			CustomerName: in.CustomerName,
			SoldBy:       seller.ID,
			PaymentMode:  in.PaymentMode,
			TotalAmount:  decimal.Zero,
		}
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}

		totalQty := 0
		totalAmount := decimal.Zero
		for i, ln := range in.Lines {
			line, err := sellLine(tx, locked, sale.ID, seller.ID, i, ln)
			if err != nil {
				return err
			}
			totalQty += line.Quantity
			totalAmount = totalAmount.Add(line.Amount)
		}

		sale.TotalQuantity = totalQty
		sale.TotalAmount = totalAmount
		if err := tx.Model(&sale).Select("total_quantity", "total_amount", "updated_at").
			Updates(&sale).Error; err != nil {
			return err
		}

		return audit.WriteLog(tx, audit.LogOptions{
			Actor:       audit.Actor{ID: seller.ID, Username: seller.Username},
			EntityType:  audit.EntitySale,
			EntityID:    sale.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Sale to %s: %d units, %s", sale.CustomerName, totalQty, totalAmount.StringFixed(2)),
			After: map[string]any{
				"customerName":  sale.CustomerName,
				"paymentMode":   sale.PaymentMode,
				"totalQuantity": totalQty,
				"totalAmount":   totalAmount.StringFixed(2),
				"lines":         in.Lines,
			},
		})
	})
	if err != nil {
		err = apperr.Store("record sale", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		kind := apperr.KindOf(err)
		fields := []zap.Field{
			zap.Uint("seller_id", in.SellerID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		}
		if kind == apperr.KindStore {
			r.logger.Error("sale failed", fields...)
		} else {
			r.logger.Info("sale rejected", fields...)
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int("sale.id", int(sale.ID)))
	r.logger.Info("sale recorded",
		zap.Uint("sale_id", sale.ID),
		zap.Uint("seller_id", sale.SoldBy),
		zap.Int("total_quantity", sale.TotalQuantity),
		zap.String("total_amount", sale.TotalAmount.StringFixed(2)))

	return r.Get(ctx, sale.ID)
}

// lockBatches takes the row lock of every batch the sale touches, lowest id
// first, so sales over the same batches queue instead of deadlocking. The
// locks are held until the surrounding transaction ends.
func lockBatches(tx *gorm.DB, lines []LineInput) (map[uint]*models.InventoryBatch, error) {
	ids := make([]uint, 0, len(lines))
	seen := make(map[uint]bool, len(lines))
	for _, ln := range lines {
		if !seen[ln.InventoryBatchID] {
			seen[ln.InventoryBatchID] = true
			ids = append(ids, ln.InventoryBatchID)
		}
	}

	var batches []models.InventoryBatch
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}

	locked := make(map[uint]*models.InventoryBatch, len(batches))
	for i := range batches {
		locked[batches[i].ID] = &batches[i]
	}
	return locked, nil
}

// sellLine decrements the line's batch, already locked by lockBatches, and
// writes the line item.
func sellLine(tx *gorm.DB, locked map[uint]*models.InventoryBatch, saleID, sellerID uint, idx int, ln LineInput) (*models.SaleLineItem, error) {
	batch, ok := locked[ln.InventoryBatchID]
	if !ok {
		return nil, &apperr.ReferenceError{
			Entity:  "inventory_batch",
			ID:      ln.InventoryBatchID,
			Message: fmt.Sprintf("line %d: inventory batch %d not found for item %d", idx+1, ln.InventoryBatchID, ln.ItemID),
		}
	}
	if batch.ItemID != ln.ItemID {
		return nil, &apperr.ReferenceError{
			Entity:  "inventory_batch",
			ID:      batch.ID,
			Message: fmt.Sprintf("line %d: inventory batch %d does not belong to item %d", idx+1, batch.ID, ln.ItemID),
		}
	}
	if batch.Quantity < ln.Quantity {
		return nil, &apperr.InsufficientStockError{
			ItemID:      ln.ItemID,
			BatchID:     batch.ID,
			BatchNumber: batch.BatchNumber,
			Requested:   ln.Quantity,
			Available:   batch.Quantity,
		}
	}

	// The quantity guard holds even if the row changed since it was read.
	res := tx.Model(&models.InventoryBatch{}).
		Where("id = ? AND quantity >= ?", batch.ID, ln.Quantity).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity - ?", ln.Quantity),
			"updated_by": sellerID,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, &apperr.ConflictError{
			Message: fmt.Sprintf("line %d: stock of batch %d changed concurrently", idx+1, batch.BatchNumber),
			ItemID:  ln.ItemID,
			BatchID: batch.ID,
		}
	}
	batch.Quantity -= ln.Quantity

	line := models.SaleLineItem{
		SaleID:           saleID,
		ItemID:           ln.ItemID,
		InventoryBatchID: batch.ID,
		Quantity:         ln.Quantity,
		UnitPrice:        ln.UnitPrice,
		Amount:           ln.UnitPrice.Mul(decimal.NewFromInt(int64(ln.Quantity))),
	}
	if err := tx.Create(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

// Get loads a sale with its seller, lines, and each line's item and batch.
func (r *Recorder) Get(ctx context.Context, id uint) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Seller").
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Lines.Item").
		Preload("Lines.InventoryBatch").
		First(&sale, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("sale", id)
	}
	if err != nil {
		return nil, apperr.Store("find sale", err)
	}
	return &sale, nil
}

// List returns one page of sales, newest first, with their sellers.
func (r *Recorder) List(ctx context.Context, page pagination.Page) ([]models.Sale, int64, error) {
	dbq := r.db.WithContext(ctx).Model(&models.Sale{}).Session(&gorm.Session{})

	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		return nil, 0, apperr.Store("count sales", err)
	}

	var sales []models.Sale
	if err := dbq.Preload("Seller").
		Order("created_at DESC, id DESC").
		Limit(page.Limit).Offset(page.Offset()).
		Find(&sales).Error; err != nil {
		return nil, 0, apperr.Store("list sales", err)
	}
	return sales, total, nil
}

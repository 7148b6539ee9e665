package sales

import (
	"errors"
	"time"

	"pos-backend/internal/apperr"
	"pos-backend/internal/auth"
	"pos-backend/internal/models"
	"pos-backend/internal/pagination"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type SellerResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type LineItemRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type LineBatchRef struct {
	ID           uint            `json:"id"`
	Batch        int             `json:"batch"`
	Quantity     int             `json:"quantity"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
}

type LineResponse struct {
	ID               uint            `json:"id"`
	SaleID           uint            `json:"saleId"`
	ItemID           uint            `json:"itemId"`
	InventoryBatchID uint            `json:"inventoryBatchId"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unitPrice"`
	Amount           decimal.Decimal `json:"amount"`
	Item             *LineItemRef    `json:"item,omitempty"`
	Inventory        *LineBatchRef   `json:"inventory,omitempty"`
}

type SaleResponse struct {
	ID            uint               `json:"id"`
	InvoiceDate   time.Time          `json:"invoiceDate"`
	CustomerName  string             `json:"customerName"`
	SoldBy        uint               `json:"soldBy"`
	PaymentMode   models.PaymentMode `json:"paymentMode"`
	TotalQuantity int                `json:"totalQuantity"`
	TotalAmount   decimal.Decimal    `json:"totalAmount"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
	Seller        *SellerResponse    `json:"seller,omitempty"`
	Items         []LineResponse     `json:"items,omitempty"`
}

func toSaleResponse(s models.Sale) SaleResponse {
	res := SaleResponse{
		ID:            s.ID,
		InvoiceDate:   s.InvoiceDate,
		CustomerName:  s.CustomerName,
		SoldBy:        s.SoldBy,
		PaymentMode:   s.PaymentMode,
		TotalQuantity: s.TotalQuantity,
		TotalAmount:   s.TotalAmount,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	if s.Seller != nil {
		res.Seller = &SellerResponse{ID: s.Seller.ID, Username: s.Seller.Username}
	}
	for _, l := range s.Lines {
		lr := LineResponse{
			ID:               l.ID,
			SaleID:           l.SaleID,
			ItemID:           l.ItemID,
			InventoryBatchID: l.InventoryBatchID,
			Quantity:         l.Quantity,
			UnitPrice:        l.UnitPrice,
			Amount:           l.Amount,
		}
		if l.Item != nil {
			lr.Item = &LineItemRef{ID: l.Item.ID, Name: l.Item.Name}
		}
		if b := l.InventoryBatch; b != nil {
			lr.Inventory = &LineBatchRef{ID: b.ID, Batch: b.BatchNumber, Quantity: b.Quantity, SellingPrice: b.SellingPrice}
		}
		res.Items = append(res.Items, lr)
	}
	return res
}

// POST /api/sales
func CreateSaleHandler(rec *Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}

		var body SaleInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.SellerID = actor.ID

		sale, err := rec.RecordSale(c.UserContext(), body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toSaleResponse(*sale))
	}
}

// GET /api/sales?page=1&limit=10
func ListSalesHandler(rec *Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page := pagination.FromQuery(c)
		sales, total, err := rec.List(c.UserContext(), page)
		if err != nil {
			return err
		}

		res := make([]SaleResponse, 0, len(sales))
		for _, s := range sales {
			res = append(res, toSaleResponse(s))
		}
		return c.JSON(page.Result("sales", res, total))
	}
}

// GET /api/sales/:id
func GetSaleHandler(rec *Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid sale id")
		}

		sale, err := rec.Get(c.UserContext(), uint(id))
		if err != nil {
			var re *apperr.ReferenceError
			if errors.As(err, &re) {
				return fiber.NewError(fiber.StatusNotFound, "Sale not found")
			}
			return err
		}
		return c.JSON(toSaleResponse(*sale))
	}
}

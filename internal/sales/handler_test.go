package sales_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"pos-backend/internal/apperr"
	"pos-backend/internal/auth"
	"pos-backend/internal/sales"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) app() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler(nil)})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, f.seller.ID)
		c.Locals(auth.CtxUsernameKey, f.seller.Username)
		return c.Next()
	})
	app.Post("/api/sales", sales.CreateSaleHandler(f.rec))
	app.Get("/api/sales", sales.ListSalesHandler(f.rec))
	app.Get("/api/sales/:id", sales.GetSaleHandler(f.rec))
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	out := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestSaleEndpoints(t *testing.T) {
	f := newFixture(t)
	b := f.batch(t, f.item(t, "Display 7in"), 1, 10)
	app := f.app()

	body := fmt.Sprintf(`{"customerName":"Ravi","paymentMode":"UPI","lines":[{"itemId":%d,"inventoryBatchId":%d,"quantity":4,"unitPrice":120}]}`,
		b.ItemID, b.ID)
	status, created := do(t, app, "POST", "/api/sales", body)
	require.Equal(t, fiber.StatusCreated, status, created)
	assert.Equal(t, "UPI", created["paymentMode"])
	assert.EqualValues(t, 4, created["totalQuantity"])
	assert.True(t, decimal.RequireFromString(created["totalAmount"].(string)).Equal(decimal.NewFromInt(480)))
	assert.EqualValues(t, f.seller.ID, created["soldBy"])
	items := created["items"].([]any)
	require.Len(t, items, 1)
	first := items[0].(map[string]any)
	assert.Equal(t, "Display 7in", first["item"].(map[string]any)["name"])
	assert.EqualValues(t, 6, first["inventory"].(map[string]any)["quantity"])

	status, got := do(t, app, "GET", fmt.Sprintf("/api/sales/%v", created["id"]), "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, got["items"], 1)
	assert.Equal(t, "counter", got["seller"].(map[string]any)["username"])

	status, list := do(t, app, "GET", "/api/sales?page=1&limit=5", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, list["total"])
	assert.EqualValues(t, 1, list["totalPages"])
	assert.Len(t, list["sales"], 1)

	status, _ = do(t, app, "GET", "/api/sales/999", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestSaleEndpointErrors(t *testing.T) {
	f := newFixture(t)
	b := f.batch(t, f.item(t, "Panel"), 3, 6)
	app := f.app()

	body := fmt.Sprintf(`{"customerName":"Ravi","lines":[{"itemId":%d,"inventoryBatchId":%d,"quantity":7,"unitPrice":120}]}`,
		b.ItemID, b.ID)
	status, out := do(t, app, "POST", "/api/sales", body)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, string(apperr.KindInsufficientStock), out["kind"])
	assert.EqualValues(t, 6, out["available"])
	assert.EqualValues(t, 7, out["requested"])
	assert.EqualValues(t, 3, out["batch"])
	assert.EqualValues(t, b.ID, out["inventoryBatchId"])

	status, out = do(t, app, "POST", "/api/sales", `{"customerName":"Ravi","lines":[]}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, string(apperr.KindValidation), out["kind"])

	body = fmt.Sprintf(`{"customerName":"Ravi","lines":[{"itemId":%d,"inventoryBatchId":%d,"quantity":1,"unitPrice":1}]}`,
		b.ItemID+100, b.ID)
	status, out = do(t, app, "POST", "/api/sales", body)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, string(apperr.KindReference), out["kind"])

	assert.Equal(t, 6, f.quantity(t, b.ID))
}

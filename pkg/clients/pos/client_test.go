package pos

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginThenGetSale(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/auth/login":
			_, _ = w.Write([]byte(`{"id":1,"username":"counter","accessToken":"tok"}`))
		case "/api/sales/1":
			if r.Header.Get("x-access-token") != "tok" {
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"No token provided!"}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":1,"customerName":"Ravi","paymentMode":"CASH","totalQuantity":4,"totalAmount":"480",
				"items":[{"id":1,"itemId":2,"inventoryBatchId":3,"quantity":4,"unitPrice":"120","amount":"480","item":{"name":"LCD"}}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Sale not found"}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	login, err := c.Login(context.Background(), "counter", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok", login.AccessToken)

	sale, err := c.GetSale(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 4, sale.TotalQuantity)
	require.Len(t, sale.Items, 1)
	assert.Equal(t, "LCD", sale.Items[0].Item.Name)
	assert.NotEmpty(t, sale.Raw)

	_, err = c.GetSale(context.Background(), 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Sale not found")
}

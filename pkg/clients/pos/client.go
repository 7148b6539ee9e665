// Package pos is a small HTTP client for the POS backend API.
package pos

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

type Client struct {
	http *resty.Client
}

// NewClient creates a client for the API rooted at baseURL, e.g.
// http://localhost:3000.
func NewClient(baseURL string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)
	return &Client{http: c}
}

type apiError struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type LoginResult struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	AccessToken string `json:"accessToken"`
}

// SaleLine mirrors the line items of GET /api/sales/:id.
type SaleLine struct {
	ID               uint   `json:"id"`
	ItemID           uint   `json:"itemId"`
	InventoryBatchID uint   `json:"inventoryBatchId"`
	Quantity         int    `json:"quantity"`
	UnitPrice        string `json:"unitPrice"`
	Amount           string `json:"amount"`
	Item             *struct {
		Name string `json:"name"`
	} `json:"item"`
}

type Sale struct {
	ID            uint       `json:"id"`
	CustomerName  string     `json:"customerName"`
	PaymentMode   string     `json:"paymentMode"`
	TotalQuantity int        `json:"totalQuantity"`
	TotalAmount   string     `json:"totalAmount"`
	Items         []SaleLine `json:"items"`

	// Raw keeps the full response body for diagnostics.
	Raw json.RawMessage `json:"-"`
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsError() {
		if e, ok := resp.Error().(*apiError); ok && e.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status(), e.Error)
		}
		return fmt.Errorf("unexpected status %s", resp.Status())
	}
	return nil
}

// Login exchanges credentials for a token and uses it on later calls.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var out LoginResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"username": username, "password": password}).
		SetResult(&out).
		SetError(&apiError{}).
		Post("/api/auth/login")
	if err := check(resp, err); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	c.http.SetHeader("x-access-token", out.AccessToken)
	return &out, nil
}

// GetSale fetches one sale with its line items.
func (c *Client) GetSale(ctx context.Context, id uint) (*Sale, error) {
	var out Sale
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&apiError{}).
		Get(fmt.Sprintf("/api/sales/%d", id))
	if err := check(resp, err); err != nil {
		return nil, fmt.Errorf("get sale %d: %w", id, err)
	}
	out.Raw = resp.Body()
	return &out, nil
}

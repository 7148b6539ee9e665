package pagination

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromQuery(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		p := FromQuery(c)
		return c.JSON(fiber.Map{"page": p.Page, "limit": p.Limit, "offset": p.Offset()})
	})

	cases := []struct {
		query               string
		page, limit, offset int
	}{
		{"", 1, 10, 0},
		{"?page=3&limit=5", 3, 5, 10},
		{"?page=0&limit=-1", 1, 10, 0},
		{"?page=abc&limit=1000", 1, 100, 0},
	}
	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest("GET", "/"+tc.query, nil))
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		var got map[string]int
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, tc.page, got["page"], tc.query)
		assert.Equal(t, tc.limit, got["limit"], tc.query)
		assert.Equal(t, tc.offset, got["offset"], tc.query)
	}
}

func TestTotalPages(t *testing.T) {
	p := Page{Page: 1, Limit: 10}
	assert.Equal(t, 0, p.TotalPages(0))
	assert.Equal(t, 1, p.TotalPages(10))
	assert.Equal(t, 2, p.TotalPages(11))
}

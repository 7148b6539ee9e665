// Package pagination parses ?page=&limit= and shapes paged list responses.
package pagination

import (
	"github.com/gofiber/fiber/v2"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

type Page struct {
	Page  int
	Limit int
}

// FromQuery reads page (1-based) and limit, clamping bad values to defaults.
func FromQuery(c *fiber.Ctx) Page {
	p := Page{Page: c.QueryInt("page", 1), Limit: c.QueryInt("limit", DefaultLimit)}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

func (p Page) Offset() int { return (p.Page - 1) * p.Limit }

func (p Page) TotalPages(total int64) int {
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}

// Result builds {key: rows, total, page, totalPages}.
func (p Page) Result(key string, rows any, total int64) fiber.Map {
	return fiber.Map{
		key:          rows,
		"total":      total,
		"page":       p.Page,
		"totalPages": p.TotalPages(total),
	}
}

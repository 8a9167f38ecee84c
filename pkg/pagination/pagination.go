package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100

	// SheetMaxItems bounds each tab fetch of the partner details panel
	SheetMaxItems = 10
)

// Params is one validated page of a list query
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// Parse reads page and limit from the query. pageSize is accepted in place of limit.
func Parse(c *gin.Context) Params {
	page, _ := strconv.Atoi(c.Query("page"))
	raw := c.Query("limit")
	if raw == "" {
		raw = c.Query("pageSize")
	}
	limit, _ := strconv.Atoi(raw)
	return New(page, limit)
}

// New clamps page and limit into their valid ranges
func New(page, limit int) Params {
	if page < 1 {
		page = DefaultPage
	}
	switch {
	case limit < 1:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

// SheetSize reads pageSize and bounds it by SheetMaxItems
func SheetSize(c *gin.Context) int {
	return ClampSheet(c.Query("pageSize"))
}

// ClampSheet parses a page size, defaulting to and capping at SheetMaxItems
func ClampSheet(raw string) int {
	n, _ := strconv.Atoi(raw)
	return BoundSheet(n)
}

// BoundSheet replaces a limit outside [1, SheetMaxItems] with SheetMaxItems
func BoundSheet(limit int) int {
	if limit < 1 || limit > SheetMaxItems {
		return SheetMaxItems
	}
	return limit
}

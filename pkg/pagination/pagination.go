package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

const (
	defaultPerPage = 15
	maxPerPage     = 100
)

// Pagination is the page metadata returned with a list
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

// PaginationParams represents input parameters for pagination
type PaginationParams struct {
	Page    int `form:"page" json:"page"`
	PerPage int `form:"per_page" json:"per_page"`
}

// DefaultPagination returns default pagination values
func DefaultPagination() *PaginationParams {
	return &PaginationParams{Page: 1, PerPage: defaultPerPage}
}

// Validate clamps the parameters into range
func (p *PaginationParams) Validate() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = defaultPerPage
	}
	if p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
}

// Offset calculates the offset for SQL queries
func (p *PaginationParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// NewPagination creates a new Pagination response
func NewPagination(page, perPage int, total int64) *Pagination {
	totalPages := 0
	if perPage > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(perPage)))
	}
	return &Pagination{
		CurrentPage: page,
		PerPage:     perPage,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}

// PaginatedResult represents a paginated result with items and pagination info
type PaginatedResult[T any] struct {
	Items      []T         `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

// NewPaginatedResult creates a new paginated result
func NewPaginatedResult[T any](items []T, pagination *Pagination) *PaginatedResult[T] {
	if items == nil {
		items = []T{}
	}
	return &PaginatedResult[T]{Items: items, Pagination: pagination}
}

// Keyset pagination, used by the bill history feed where offsets drift as
// new bills arrive.

// Cursor is the decoded position of the last item seen
type Cursor struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// CursorParams represents input parameters for cursor-based pagination
type CursorParams struct {
	Cursor string `form:"cursor" json:"cursor"`
	Limit  int    `form:"limit" json:"limit"`
}

// Validate clamps the limit into range
func (c *CursorParams) Validate() {
	if c.Limit < 1 {
		c.Limit = defaultPerPage
	}
	if c.Limit > maxPerPage {
		c.Limit = maxPerPage
	}
}

// Decode returns nil for the first page
func (c *CursorParams) Decode() (*Cursor, error) {
	if c.Cursor == "" {
		return nil, nil
	}
	raw, err := base64.URLEncoding.DecodeString(c.Cursor)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor format: %w", err)
	}
	var cursor Cursor
	if err := json.Unmarshal(raw, &cursor); err != nil {
		return nil, fmt.Errorf("invalid cursor data: %w", err)
	}
	return &cursor, nil
}

// EncodeCursor turns a position into an opaque token
func EncodeCursor(id string, createdAt time.Time) string {
	data, _ := json.Marshal(Cursor{ID: id, CreatedAt: createdAt})
	return base64.URLEncoding.EncodeToString(data)
}

// CursorPagination is the keyset metadata returned with a list
type CursorPagination struct {
	NextCursor *string `json:"next_cursor,omitempty"`
	HasNext    bool    `json:"has_next"`
	Limit      int     `json:"limit"`
}

// CursorPaginatedResult represents a cursor-paginated result with items
type CursorPaginatedResult[T any] struct {
	Items      []T               `json:"items"`
	Pagination *CursorPagination `json:"pagination"`
}

// NewCursorPage trims items fetched with limit+1 and builds the next cursor
// from the last item kept.
func NewCursorPage[T any](items []T, limit int, position func(T) (string, time.Time)) *CursorPaginatedResult[T] {
	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}
	if items == nil {
		items = []T{}
	}
	meta := &CursorPagination{Limit: limit, HasNext: hasMore}
	if hasMore && len(items) > 0 {
		id, createdAt := position(items[len(items)-1])
		next := EncodeCursor(id, createdAt)
		meta.NextCursor = &next
	}
	return &CursorPaginatedResult[T]{Items: items, Pagination: meta}
}

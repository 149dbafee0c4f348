package request

import "github.com/shopspring/decimal"

// CreateBookRequest represents a book creation request
type CreateBookRequest struct {
	Title           string          `json:"title" binding:"required,max=255"`
	Author          string          `json:"author" binding:"omitempty,max=255"`
	ISBN            string          `json:"isbn" binding:"required,max=20"`
	Price           decimal.Decimal `json:"price"`
	Quantity        int             `json:"quantity" binding:"min=0"`
	Category        string          `json:"category" binding:"omitempty,max=100"`
	Publisher       string          `json:"publisher" binding:"omitempty,max=255"`
	PublicationYear int             `json:"publication_year" binding:"omitempty,min=0,max=9999"`
	Language        string          `json:"language" binding:"omitempty,max=50"`
	CoverImage      *string         `json:"cover_image"`
}

// UpdateBookRequest represents a book update request.
// Quantity is changed through the stock endpoint only.
type UpdateBookRequest struct {
	Title           *string          `json:"title" binding:"omitempty,max=255"`
	Author          *string          `json:"author" binding:"omitempty,max=255"`
	ISBN            *string          `json:"isbn" binding:"omitempty,max=20"`
	Price           *decimal.Decimal `json:"price"`
	Category        *string          `json:"category" binding:"omitempty,max=100"`
	Publisher       *string          `json:"publisher" binding:"omitempty,max=255"`
	PublicationYear *int             `json:"publication_year" binding:"omitempty,min=0,max=9999"`
	Language        *string          `json:"language" binding:"omitempty,max=50"`
	CoverImage      *string          `json:"cover_image"`
	IsActive        *bool            `json:"is_active"`
}

// AdjustStockRequest adds (or with a negative delta removes) copies
type AdjustStockRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// BookFilterRequest represents book filter parameters
type BookFilterRequest struct {
	Search          string `form:"search"`
	Category        string `form:"category"`
	IncludeInactive bool   `form:"include_inactive"`
	SortBy          string `form:"sort_by"`
	SortOrder       string `form:"sort_order"`
	Page            int    `form:"page"`
	PerPage         int    `form:"per_page"`
}

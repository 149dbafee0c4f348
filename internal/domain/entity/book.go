package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Book represents a catalog entry and its stock on hand
type Book struct {
	ID              uuid.UUID       `gorm:"type:char(36);primaryKey" json:"id"`
	Title           string          `gorm:"size:255;not null;index" json:"title"`
	Author          string          `gorm:"size:255;index" json:"author"`
	ISBN            string          `gorm:"column:isbn;size:20;uniqueIndex;not null" json:"isbn"`
	Price           decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"price"`
	Quantity        int             `gorm:"not null;default:0" json:"quantity"`
	Category        string          `gorm:"size:100;index" json:"category,omitempty"`
	Publisher       string          `gorm:"size:255" json:"publisher,omitempty"`
	PublicationYear int             `json:"publication_year,omitempty"`
	Language        string          `gorm:"size:50" json:"language,omitempty"`
	CoverImage      *string         `gorm:"size:255" json:"cover_image,omitempty"`
	IsActive        bool            `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new book
func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Book model
func (Book) TableName() string {
	return "books"
}

// IsLowStock reports whether stock is at or below threshold
func (b *Book) IsLowStock(threshold int) bool {
	return b.Quantity <= threshold
}

// InStock reports whether qty copies can be sold
func (b *Book) InStock(qty int) bool {
	return b.Quantity >= qty
}

package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sangkips/bookshop-pos/internal/domain/enum"
)

// Bill is a sale or a collection request. Bills are never deleted;
// Total always equals Subtotal - Discount + Tax + DeliveryCharge.
type Bill struct {
	ID              uuid.UUID       `gorm:"type:char(36);primaryKey" json:"id"`
	BillNumber      string          `gorm:"size:50;uniqueIndex;not null" json:"bill_number"`
	BillDate        time.Time       `gorm:"not null;index" json:"bill_date"`
	CustomerID      uuid.UUID       `gorm:"type:char(36);not null;index" json:"customer_id"`
	CashierID       uuid.UUID       `gorm:"type:char(36);not null;index" json:"cashier_id"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"subtotal"`
	Discount        decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"discount"`
	Tax             decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"tax"`
	DeliveryCharge  decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"delivery_charge"`
	Total           decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"total"`
	PaymentMethod   string          `gorm:"size:30;not null" json:"payment_method"`
	Status          enum.BillStatus `gorm:"not null;default:0;index" json:"status"`
	IsDelivery      bool            `gorm:"not null;default:false" json:"is_delivery"`
	DeliveryAddress string          `gorm:"type:text" json:"delivery_address,omitempty"`
	UnitsConsumed   int             `gorm:"not null;default:0" json:"units_consumed"`
	DiscountPolicy  string          `gorm:"size:20" json:"discount_policy,omitempty"`
	Notes           *string         `gorm:"type:text" json:"notes,omitempty"`
	StatusChangedAt time.Time       `json:"status_changed_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Relationships
	Customer *User      `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Cashier  *User      `gorm:"foreignKey:CashierID" json:"cashier,omitempty"`
	Items    []BillItem `gorm:"foreignKey:BillID" json:"items,omitempty"`
}

// BeforeCreate generates a UUID before creating a new bill
func (b *Bill) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Bill model
func (Bill) TableName() string {
	return "bills"
}

// TotalUnits sums item quantities
func (b *Bill) TotalUnits() int {
	units := 0
	for _, item := range b.Items {
		units += item.Quantity
	}
	return units
}

// Clone returns a deep copy of the bill, its items and the referenced users
func (b *Bill) Clone() *Bill {
	if b == nil {
		return nil
	}
	c := *b
	if b.Notes != nil {
		notes := *b.Notes
		c.Notes = &notes
	}
	if b.Customer != nil {
		customer := *b.Customer
		c.Customer = &customer
	}
	if b.Cashier != nil {
		cashier := *b.Cashier
		c.Cashier = &cashier
	}
	if b.Items != nil {
		c.Items = make([]BillItem, len(b.Items))
		for i, item := range b.Items {
			c.Items[i] = item
			if item.Book != nil {
				book := *item.Book
				c.Items[i].Book = &book
			}
		}
	}
	return &c
}

// BillItem is one line of a bill. Title and UnitPrice are captured at sale time.
type BillItem struct {
	ID              uuid.UUID       `gorm:"type:char(36);primaryKey" json:"id"`
	BillID          uuid.UUID       `gorm:"type:char(36);not null;index" json:"bill_id"`
	BookID          uuid.UUID       `gorm:"type:char(36);not null;index" json:"book_id"`
	Title           string          `gorm:"size:255" json:"title"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"unit_price"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(7,4);not null" json:"discount_percent"`
	Total           decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"total"`
	CreatedAt       time.Time       `json:"created_at"`

	// Relationships
	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

// BeforeCreate generates a UUID before creating a new bill item
func (i *BillItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the BillItem model
func (BillItem) TableName() string {
	return "bill_items"
}

package request

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillItemRequest is one cart line
type BillItemRequest struct {
	BookID          uuid.UUID       `json:"book_id" binding:"required"`
	Quantity        int             `json:"quantity" binding:"required,min=1"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// PaymentDetailsRequest carries the credentials some payment methods need
type PaymentDetailsRequest struct {
	CardNumber string `json:"card_number"`
	CardType   string `json:"card_type"`
	UPIID      string `json:"upi_id"`
}

// CheckoutRequest rings up a sale. It is also used for quotes and held bills.
type CheckoutRequest struct {
	CustomerID      uuid.UUID              `json:"customer_id" binding:"required"`
	Items           []BillItemRequest      `json:"items" binding:"required,min=1,dive"`
	PaymentMethod   string                 `json:"payment_method"`
	PaymentDetails  PaymentDetailsRequest  `json:"payment_details"`
	DiscountPolicy  string                 `json:"discount_policy" binding:"omitempty,oneof=tiered flat TIERED FLAT"`
	ManualDiscount  *ManualDiscountRequest `json:"manual_discount"`
	IsDelivery      bool                   `json:"is_delivery"`
	DeliveryAddress string                 `json:"delivery_address"`
	Notes           string                 `json:"notes"`
}

// ManualDiscountRequest is a discount granted by the cashier
type ManualDiscountRequest struct {
	Type  string          `json:"type" binding:"required,oneof=PERCENTAGE FIXED percentage fixed"`
	Value decimal.Decimal `json:"value"`
}

// PayRequest settles a held bill
type PayRequest struct {
	PaymentMethod  string                `json:"payment_method" binding:"required"`
	PaymentDetails PaymentDetailsRequest `json:"payment_details"`
}

// SubmitCollectionRequest asks for books to be put aside for collection
type SubmitCollectionRequest struct {
	CustomerID      *uuid.UUID        `json:"customer_id"`
	Items           []BillItemRequest `json:"items" binding:"required,min=1,dive"`
	IsDelivery      bool              `json:"is_delivery"`
	DeliveryAddress string            `json:"delivery_address"`
	DiscountPolicy  string            `json:"discount_policy" binding:"omitempty,oneof=tiered flat TIERED FLAT"`
	Notes           string            `json:"notes"`
}

// ProcessCollectionRequest moves a collection request one step on.
// Payment fields only matter when the request is billed.
type ProcessCollectionRequest struct {
	PaymentMethod  string                `json:"payment_method"`
	PaymentDetails PaymentDetailsRequest `json:"payment_details"`
	DiscountPolicy string                `json:"discount_policy" binding:"omitempty,oneof=tiered flat TIERED FLAT"`
}

// CompleteCollectionRequest carries the credentials charged on hand-over
type CompleteCollectionRequest struct {
	PaymentDetails PaymentDetailsRequest `json:"payment_details"`
}


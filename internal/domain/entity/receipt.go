package entity

import "github.com/shopspring/decimal"

// ReceiptHeader holds the shop details printed at the top of a receipt.
type ReceiptHeader struct {
	CompanyName string `json:"company_name"`
	Address     string `json:"address,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
}

// ReceiptItem represents a single line item on a receipt.
type ReceiptItem struct {
	Title           string          `json:"title"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Total           decimal.Decimal `json:"total"`
}

// Receipt is a printable view of a bill. It is composed at print time and never stored.
type Receipt struct {
	Header         ReceiptHeader   `json:"header"`
	BillNumber     string          `json:"bill_number"`
	Date           string          `json:"date"`
	Cashier        string          `json:"cashier,omitempty"`
	Customer       string          `json:"customer,omitempty"`
	AccountNumber  string          `json:"account_number,omitempty"`
	PaymentMethod  string          `json:"payment_method,omitempty"`
	Items          []ReceiptItem   `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"discount"`
	Tax            decimal.Decimal `json:"tax"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge"`
	Total          decimal.Decimal `json:"total"`
	Footer         string          `json:"footer,omitempty"`
}

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesTotals aggregates settled bills over a period
type SalesTotals struct {
	BillCount       int64           `json:"bill_count"`
	GrossSales      decimal.Decimal `json:"gross_sales"` // sum of subtotals
	NetSales        decimal.Decimal `json:"net_sales"`   // sum of totals
	Discount        decimal.Decimal `json:"discount"`
	Tax             decimal.Decimal `json:"tax"`
	DeliveryCharge  decimal.Decimal `json:"delivery_charge"`
	UnitsSold       int64           `json:"units_sold"`
	UniqueCustomers int64           `json:"unique_customers"`
}

// TopBookResult is a book's sales over a period
type TopBookResult struct {
	BookID       uuid.UUID       `json:"book_id"`
	Title        string          `json:"title"`
	QuantitySold int64           `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// CashierSalesResult is a cashier's takings over a period
type CashierSalesResult struct {
	CashierID   uuid.UUID       `json:"cashier_id"`
	CashierName string          `json:"cashier_name"`
	BillCount   int64           `json:"bill_count"`
	Total       decimal.Decimal `json:"total"`
}

// ReportRepository defines aggregation queries over settled bills in [from, to)
type ReportRepository interface {
	SalesTotals(ctx context.Context, from, to time.Time) (*SalesTotals, error)
	TopBooks(ctx context.Context, from, to time.Time, limit int) ([]TopBookResult, error)
	SalesByCashier(ctx context.Context, from, to time.Time) ([]CashierSalesResult, error)
}

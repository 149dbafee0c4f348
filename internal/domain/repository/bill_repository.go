package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sangkips/bookshop-pos/internal/domain/entity"
	"github.com/sangkips/bookshop-pos/internal/domain/enum"
	"github.com/sangkips/bookshop-pos/pkg/pagination"
)

// BillEffects are the stock and loyalty changes committed together with a bill write
type BillEffects struct {
	// DecrementStock is applied only if every book has enough copies
	DecrementStock map[uuid.UUID]int
	IncrementStock map[uuid.UUID]int
	// CustomerUnits is added to the customer's units consumed
	CustomerUnits int
}

// InsufficientStockError lists the books that could not be decremented
type InsufficientStockError struct {
	BookIDs []uuid.UUID
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %d book(s)", len(e.BookIDs))
}

// StaleStatusError means the stored status was not the one the caller read
type StaleStatusError struct {
	BillID   uuid.UUID
	Expected enum.BillStatus
}

func (e *StaleStatusError) Error() string {
	return fmt.Sprintf("bill %s is no longer %s", e.BillID, e.Expected)
}

// BillRepository defines the interface for bill persistence
type BillRepository interface {
	// Create inserts the bill and its items and applies effects, all or nothing
	Create(ctx context.Context, bill *entity.Bill, effects BillEffects) error
	// UpdateStatus persists status, totals and payment method of a bill whose
	// stored status is still from, and applies effects in the same transaction
	UpdateStatus(ctx context.Context, bill *entity.Bill, from enum.BillStatus, effects BillEffects) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Bill, error)
	GetByNumber(ctx context.Context, number string) (*entity.Bill, error)
	List(ctx context.Context, params *BillFilterParams) ([]entity.Bill, int64, error)
	ListWithCursor(ctx context.Context, params *BillCursorFilterParams) ([]entity.Bill, error)
	CountByStatus(ctx context.Context, statuses ...enum.BillStatus) (int64, error)
	CustomerStats(ctx context.Context, customerID uuid.UUID) (*CustomerStats, error)
}

// BillFilter holds the filters shared by page and cursor listing
type BillFilter struct {
	Search     string // bill number
	CustomerID *uuid.UUID
	CashierID  *uuid.UUID
	Statuses   []enum.BillStatus
	StartDate  *time.Time
	EndDate    *time.Time
}

// BillFilterParams contains filtering parameters for bill queries
type BillFilterParams struct {
	BillFilter
	Pagination *pagination.PaginationParams
	SortBy     string
	SortOrder  string
}

// BillCursorFilterParams contains cursor-based filtering parameters for bill queries
type BillCursorFilterParams struct {
	BillFilter
	Cursor *pagination.CursorParams
}

// CustomerStats summarises a customer's settled purchases
type CustomerStats struct {
	CustomerID    uuid.UUID       `json:"customer_id"`
	BillCount     int64           `json:"bill_count"`
	TotalSpent    decimal.Decimal `json:"total_spent"`
	UnitsConsumed int             `json:"units_consumed"`
	LastBillAt    *time.Time      `json:"last_bill_at,omitempty"`
}

// SettledStatuses are the statuses of bills that count as sales
func SettledStatuses() []enum.BillStatus {
	return []enum.BillStatus{enum.BillStatusPaid, enum.BillStatusCompleted}
}

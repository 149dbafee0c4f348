package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/sangkips/bookshop-pos/internal/domain/entity"
	"github.com/sangkips/bookshop-pos/pkg/pagination"
)

// BookRepository defines the interface for catalog and stock operations
type BookRepository interface {
	Create(ctx context.Context, book *entity.Book) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Book, error)
	// GetByIDs retrieves several books in one query
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Book, error)
	GetByISBN(ctx context.Context, isbn string) (*entity.Book, error)
	Update(ctx context.Context, book *entity.Book) error
	List(ctx context.Context, params *BookFilterParams) ([]entity.Book, int64, error)
	GetLowStock(ctx context.Context, threshold int) ([]entity.Book, error)
	CountLowStock(ctx context.Context, threshold int) (int64, error)
	// AdjustStock adds delta (which may be negative) to the stock of a book.
	// Returns (false, nil) when the result would be negative.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (bool, error)
	// AtomicIncrementBatch restores stock for several books in one transaction
	AtomicIncrementBatch(ctx context.Context, increments map[uuid.UUID]int) error
}

// BookFilterParams contains filtering parameters for book queries
type BookFilterParams struct {
	Pagination      *pagination.PaginationParams
	Search          string // title, author or ISBN
	Category        string
	IncludeInactive bool
	LowStock        *int // only books at or below this quantity
	SortBy          string
	SortOrder       string
}

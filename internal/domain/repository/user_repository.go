package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sangkips/bookshop-pos/internal/domain/entity"
	"github.com/sangkips/bookshop-pos/internal/domain/enum"
	"github.com/sangkips/bookshop-pos/pkg/pagination"
)

// UserRepository defines the interface for staff and customer accounts
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByAccountNumber(ctx context.Context, accountNumber string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	List(ctx context.Context, params *UserFilterParams) ([]entity.User, int64, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	// LastAccountNumber returns the highest account number with prefix, or "" if none
	LastAccountNumber(ctx context.Context, prefix string) (string, error)
}

// UserFilterParams contains filtering parameters for user queries
type UserFilterParams struct {
	Pagination      *pagination.PaginationParams
	Search          string // username, full name, email or account number
	Roles           []enum.UserRole
	IncludeInactive bool
}

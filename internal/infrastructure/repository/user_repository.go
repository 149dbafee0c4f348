package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/sangkips/bookshop-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/bookshop-pos/internal/domain/repository"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) domainRepo.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return pkgerrors.Wrap(r.db.WithContext(ctx).Create(user).Error, "create user")
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *userRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (*entity.User, error) {
	return r.findOne(ctx, "account_number = ?", accountNumber)
}

func (r *userRepository) findOne(ctx context.Context, query string, arg interface{}) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "get user")
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	return pkgerrors.Wrap(r.db.WithContext(ctx).Save(user).Error, "update user")
}

func (r *userRepository) List(ctx context.Context, params *domainRepo.UserFilterParams) ([]entity.User, int64, error) {
	var users []entity.User
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.User{}).
		Scopes(
			ActiveScope(params.IncludeInactive),
			SearchScope(params.Search, "username", "full_name", "email", "account_number"),
		)
	if len(params.Roles) > 0 {
		query = query.Where("role IN ?", params.Roles)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(err, "count users")
	}

	err := query.Scopes(PaginateScope(params.Pagination)).
		Order("full_name ASC").
		Find(&users).Error
	return users, total, pkgerrors.Wrap(err, "list users")
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&entity.User{}).
		Where("id = ?", id).
		Update("last_login_at", at).Error
	return pkgerrors.Wrap(err, "update last login")
}

// LastAccountNumber relies on account numbers being zero padded to a fixed
// width, so lexical order equals numeric order.
func (r *userRepository) LastAccountNumber(ctx context.Context, prefix string) (string, error) {
	var user entity.User
	err := r.db.WithContext(ctx).
		Where("account_number LIKE ?", prefix+"%").
		Order("account_number DESC").
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", pkgerrors.Wrap(err, "last account number")
	}
	return user.Account(), nil
}

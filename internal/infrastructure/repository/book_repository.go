package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/sangkips/bookshop-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/bookshop-pos/internal/domain/repository"
)

var bookSortColumns = map[string]bool{
	"title": true, "author": true, "price": true, "quantity": true, "created_at": true,
}

type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *gorm.DB) domainRepo.BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(ctx context.Context, book *entity.Book) error {
	return pkgerrors.Wrap(r.db.WithContext(ctx).Create(book).Error, "create book")
}

func (r *bookRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Book, error) {
	var book entity.Book
	err := r.db.WithContext(ctx).First(&book, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "get book %s", id)
	}
	return &book, nil
}

func (r *bookRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var books []entity.Book
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&books).Error
	return books, pkgerrors.Wrap(err, "get books by ids")
}

func (r *bookRepository) GetByISBN(ctx context.Context, isbn string) (*entity.Book, error) {
	var book entity.Book
	err := r.db.WithContext(ctx).First(&book, "isbn = ?", isbn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "get book by isbn")
	}
	return &book, nil
}

func (r *bookRepository) Update(ctx context.Context, book *entity.Book) error {
	return pkgerrors.Wrap(r.db.WithContext(ctx).Save(book).Error, "update book")
}

func (r *bookRepository) List(ctx context.Context, params *domainRepo.BookFilterParams) ([]entity.Book, int64, error) {
	var books []entity.Book
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Book{}).
		Scopes(ActiveScope(params.IncludeInactive), SearchScope(params.Search, "title", "author", "isbn"))
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	if params.LowStock != nil {
		query = query.Where("quantity <= ?", *params.LowStock)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(err, "count books")
	}

	err := query.Scopes(PaginateScope(params.Pagination)).
		Order(orderClause(params.SortBy, params.SortOrder, bookSortColumns, "title")).
		Find(&books).Error
	return books, total, pkgerrors.Wrap(err, "list books")
}

func (r *bookRepository) GetLowStock(ctx context.Context, threshold int) ([]entity.Book, error) {
	var books []entity.Book
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND quantity <= ?", true, threshold).
		Order("quantity ASC, title ASC").
		Find(&books).Error
	return books, pkgerrors.Wrap(err, "list low stock books")
}

func (r *bookRepository) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Book{}).
		Where("is_active = ? AND quantity <= ?", true, threshold).
		Count(&count).Error
	return count, pkgerrors.Wrap(err, "count low stock books")
}

func (r *bookRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entity.Book{}).
		Where("id = ? AND quantity + ? >= 0", id, delta).
		Update("quantity", gorm.Expr("quantity + ?", delta))
	if result.Error != nil {
		return false, pkgerrors.Wrapf(result.Error, "adjust stock of %s", id)
	}
	return result.RowsAffected > 0, nil
}

func (r *bookRepository) AtomicIncrementBatch(ctx context.Context, increments map[uuid.UUID]int) error {
	if len(increments) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return incrementStock(tx, increments)
	})
	return pkgerrors.Wrap(err, "restore stock")
}

func incrementStock(tx *gorm.DB, increments map[uuid.UUID]int) error {
	for id, amount := range increments {
		if err := tx.Model(&entity.Book{}).
			Where("id = ?", id).
			Update("quantity", gorm.Expr("quantity + ?", amount)).Error; err != nil {
			return err
		}
	}
	return nil
}

// decrementStock applies every decrement or none. Books that lacked stock are
// reported through InsufficientStockError so the caller can roll back.
func decrementStock(tx *gorm.DB, decrements map[uuid.UUID]int) error {
	var failed []uuid.UUID
	for id, amount := range decrements {
		result := tx.Model(&entity.Book{}).
			Where("id = ? AND quantity >= ?", id, amount).
			Update("quantity", gorm.Expr("quantity - ?", amount))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			failed = append(failed, id)
		}
	}
	if len(failed) > 0 {
		return &domainRepo.InsufficientStockError{BookIDs: failed}
	}
	return nil
}

package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/sangkips/bookshop-pos/internal/domain/entity"
	"github.com/sangkips/bookshop-pos/internal/domain/repository"
	"github.com/sangkips/bookshop-pos/pkg/apperror"
	"github.com/sangkips/bookshop-pos/pkg/pagination"
)

// BookService handles the catalog and stock levels
type BookService struct {
	bookRepo repository.BookRepository
	settings *SettingsService
}

// NewBookService creates a new book service
func NewBookService(bookRepo repository.BookRepository, settings *SettingsService) *BookService {
	return &BookService{bookRepo: bookRepo, settings: settings}
}

// CreateBookInput represents the create book input
type CreateBookInput struct {
	Title           string
	Author          string
	ISBN            string
	Price           decimal.Decimal
	Quantity        int
	Category        string
	Publisher       string
	PublicationYear int
	Language        string
	CoverImage      *string
}

func (in *CreateBookInput) validate() error {
	var fieldErrors []apperror.FieldError
	if strings.TrimSpace(in.Title) == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "title", Message: "is required"})
	}
	if strings.TrimSpace(in.ISBN) == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "isbn", Message: "is required"})
	}
	if in.Price.IsNegative() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "price", Message: "must not be negative"})
	}
	if in.Quantity < 0 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "quantity", Message: "must not be negative"})
	}
	if len(fieldErrors) > 0 {
		return apperror.NewValidationError(fieldErrors)
	}
	return nil
}

// CreateBook adds a book to the catalog
func (s *BookService) CreateBook(ctx context.Context, input *CreateBookInput) (*entity.Book, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	isbn := normalizeISBN(input.ISBN)
	existing, err := s.bookRepo.GetByISBN(ctx, isbn)
	if err != nil {
		return nil, persistenceError(err)
	}
	if existing != nil {
		return nil, apperror.NewConflictError("A book with this ISBN already exists")
	}

	book := &entity.Book{
		Title:           strings.TrimSpace(input.Title),
		Author:          strings.TrimSpace(input.Author),
		ISBN:            isbn,
		Price:           input.Price,
		Quantity:        input.Quantity,
		Category:        strings.TrimSpace(input.Category),
		Publisher:       strings.TrimSpace(input.Publisher),
		PublicationYear: input.PublicationYear,
		Language:        strings.TrimSpace(input.Language),
		CoverImage:      input.CoverImage,
		IsActive:        true,
	}
	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, persistenceError(err)
	}
	log.WithFields(log.Fields{"book_id": book.ID, "isbn": book.ISBN}).Info("book created")
	return book, nil
}

// GetBook retrieves a book by ID
func (s *BookService) GetBook(ctx context.Context, id uuid.UUID) (*entity.Book, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		return nil, persistenceError(err)
	}
	if book == nil {
		return nil, apperror.NewNotFoundError("Book")
	}
	return book, nil
}

// ListBooks lists the catalog
func (s *BookService) ListBooks(ctx context.Context, params *repository.BookFilterParams) (*pagination.PaginatedResult[entity.Book], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()

	books, total, err := s.bookRepo.List(ctx, params)
	if err != nil {
		return nil, persistenceError(err)
	}

	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(books, pag), nil
}

// UpdateBookInput represents the update book input
type UpdateBookInput struct {
	ID              uuid.UUID
	Title           *string
	Author          *string
	ISBN            *string
	Price           *decimal.Decimal
	Category        *string
	Publisher       *string
	PublicationYear *int
	Language        *string
	CoverImage      *string
	IsActive        *bool
}

// UpdateBook changes catalog details. Stock moves through AdjustStock only.
func (s *BookService) UpdateBook(ctx context.Context, input *UpdateBookInput) (*entity.Book, error) {
	book, err := s.GetBook(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, apperror.NewFieldError("title", "must not be empty")
		}
		book.Title = strings.TrimSpace(*input.Title)
	}
	if input.ISBN != nil {
		isbn := normalizeISBN(*input.ISBN)
		if isbn == "" {
			return nil, apperror.NewFieldError("isbn", "must not be empty")
		}
		if isbn != book.ISBN {
			existing, err := s.bookRepo.GetByISBN(ctx, isbn)
			if err != nil {
				return nil, persistenceError(err)
			}
			if existing != nil && existing.ID != book.ID {
				return nil, apperror.NewConflictError("A book with this ISBN already exists")
			}
			book.ISBN = isbn
		}
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, apperror.NewFieldError("price", "must not be negative")
		}
		book.Price = *input.Price
	}
	if input.Author != nil {
		book.Author = strings.TrimSpace(*input.Author)
	}
	if input.Category != nil {
		book.Category = strings.TrimSpace(*input.Category)
	}
	if input.Publisher != nil {
		book.Publisher = strings.TrimSpace(*input.Publisher)
	}
	if input.PublicationYear != nil {
		book.PublicationYear = *input.PublicationYear
	}
	if input.Language != nil {
		book.Language = strings.TrimSpace(*input.Language)
	}
	if input.CoverImage != nil {
		book.CoverImage = input.CoverImage
	}
	if input.IsActive != nil {
		book.IsActive = *input.IsActive
	}

	if err := s.bookRepo.Update(ctx, book); err != nil {
		return nil, persistenceError(err)
	}
	return book, nil
}

// DeleteBook retires a book. Bills keep referring to it.
func (s *BookService) DeleteBook(ctx context.Context, id uuid.UUID) error {
	inactive := false
	_, err := s.UpdateBook(ctx, &UpdateBookInput{ID: id, IsActive: &inactive})
	return err
}

// AdjustStock adds delta copies (negative to remove) and returns the book
func (s *BookService) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*entity.Book, error) {
	if delta == 0 {
		return nil, apperror.NewFieldError("delta", "must not be zero")
	}
	book, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.bookRepo.AdjustStock(ctx, id, delta)
	if err != nil {
		return nil, persistenceError(err)
	}
	if !ok {
		return nil, apperror.NewFieldError("delta", "stock cannot go below zero")
	}

	updated, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"book_id": id, "delta": delta, "from": book.Quantity, "to": updated.Quantity}).Info("stock adjusted")
	return updated, nil
}

// LowStock lists active books at or below LOW_STOCK_THRESHOLD
func (s *BookService) LowStock(ctx context.Context) ([]entity.Book, int, error) {
	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, 0, err
	}
	books, err := s.bookRepo.GetLowStock(ctx, snap.LowStockThreshold)
	if err != nil {
		return nil, 0, persistenceError(err)
	}
	return books, snap.LowStockThreshold, nil
}

func normalizeISBN(isbn string) string {
	return strings.ToUpper(strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(isbn)))
}

package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sangkips/bookshop-pos/internal/application/service"
	"github.com/sangkips/bookshop-pos/internal/domain/repository"
	"github.com/sangkips/bookshop-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/bookshop-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/bookshop-pos/pkg/pagination"
)

// BookHandler handles catalog HTTP requests
type BookHandler struct {
	bookService *service.BookService
}

// NewBookHandler creates a new book handler
func NewBookHandler(bookService *service.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

// List handles listing books with filters
// @Summary List Books
// @Tags books
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(15)
// @Param search query string false "Title, author or ISBN"
// @Param category query string false "Category"
// @Param sort_by query string false "title, author, price, quantity or created_at"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} response.APIResponse
// @Router /books [get]
func (h *BookHandler) List(c *gin.Context) {
	var req request.BookFilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, bindingError(err))
		return
	}

	result, err := h.bookService.ListBooks(c.Request.Context(), &repository.BookFilterParams{
		Pagination:      &pagination.PaginationParams{Page: req.Page, PerPage: req.PerPage},
		Search:          req.Search,
		Category:        req.Category,
		IncludeInactive: req.IncludeInactive,
		SortBy:          req.SortBy,
		SortOrder:       req.SortOrder,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Books retrieved successfully", result)
}

// LowStock lists the books at or below the configured threshold
// @Summary Low Stock Books
// @Tags books
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse
// @Router /books/low-stock [get]
func (h *BookHandler) LowStock(c *gin.Context) {
	books, threshold, err := h.bookService.LowStock(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Low stock books retrieved successfully", gin.H{
		"threshold": threshold,
		"books":     books,
	})
}

// Get handles getting a single book
// @Summary Get Book
// @Tags books
// @Security BearerAuth
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /books/{id} [get]
func (h *BookHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	book, err := h.bookService.GetBook(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Book retrieved successfully", book)
}

// Create handles adding a book to the catalog
// @Summary Create Book
// @Tags books
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body request.CreateBookRequest true "Book data"
// @Success 201 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /books [post]
func (h *BookHandler) Create(c *gin.Context) {
	var req request.CreateBookRequest
	if !bindJSON(c, &req) {
		return
	}

	book, err := h.bookService.CreateBook(c.Request.Context(), &service.CreateBookInput{
		Title:           req.Title,
		Author:          req.Author,
		ISBN:            req.ISBN,
		Price:           req.Price,
		Quantity:        req.Quantity,
		Category:        req.Category,
		Publisher:       req.Publisher,
		PublicationYear: req.PublicationYear,
		Language:        req.Language,
		CoverImage:      req.CoverImage,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Book created successfully", book)
}

// Update handles updating catalog details
// @Summary Update Book
// @Tags books
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Book ID"
// @Param request body request.UpdateBookRequest true "Book data"
// @Success 200 {object} response.APIResponse
// @Router /books/{id} [put]
func (h *BookHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req request.UpdateBookRequest
	if !bindJSON(c, &req) {
		return
	}

	book, err := h.bookService.UpdateBook(c.Request.Context(), &service.UpdateBookInput{
		ID:              id,
		Title:           req.Title,
		Author:          req.Author,
		ISBN:            req.ISBN,
		Price:           req.Price,
		Category:        req.Category,
		Publisher:       req.Publisher,
		PublicationYear: req.PublicationYear,
		Language:        req.Language,
		CoverImage:      req.CoverImage,
		IsActive:        req.IsActive,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Book updated successfully", book)
}

// AdjustStock adds or removes copies
// @Summary Adjust Stock
// @Tags books
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Book ID"
// @Param request body request.AdjustStockRequest true "Stock change"
// @Success 200 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse
// @Router /books/{id}/stock [patch]
func (h *BookHandler) AdjustStock(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req request.AdjustStockRequest
	if !bindJSON(c, &req) {
		return
	}

	book, err := h.bookService.AdjustStock(c.Request.Context(), id, req.Delta)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Stock updated successfully", book)
}

// Delete soft deletes a book
// @Summary Delete Book
// @Tags books
// @Security BearerAuth
// @Param id path string true "Book ID"
// @Success 200 {object} response.APIResponse
// @Router /books/{id} [delete]
func (h *BookHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.bookService.DeleteBook(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Book deleted successfully", nil)
}

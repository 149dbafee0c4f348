package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/sangkips/bookshop-pos/internal/application/service"
	"github.com/sangkips/bookshop-pos/internal/domain/enum"
	"github.com/sangkips/bookshop-pos/internal/domain/repository"
	"github.com/sangkips/bookshop-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/bookshop-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/bookshop-pos/pkg/apperror"
	"github.com/sangkips/bookshop-pos/pkg/pagination"
)

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) *uuid.UUID {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		return nil
	}
	userID, ok := userIDVal.(uuid.UUID)
	if !ok {
		return nil
	}
	return &userID
}

// GetUserRole extracts the user role from the Gin context
func GetUserRole(c *gin.Context) enum.UserRole {
	role, _ := c.Get("role")
	r, _ := role.(enum.UserRole)
	return r
}

// CurrentActor returns the signed-in user, writing a 401 when there is none
func CurrentActor(c *gin.Context) (service.Actor, bool) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return service.Actor{}, false
	}
	return service.Actor{ID: *userID, Role: GetUserRole(c)}, true
}

// pathID parses the :id parameter, writing a 400 when it is not a UUID
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid ID format")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON binds the body, answering binding failures with a 422 listing the fields
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, bindingError(err))
		return false
	}
	return true
}

// bindingError turns validator failures into field errors
func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.NewBadRequestError("Invalid request body")
	}
	fieldErrors := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fieldErrors = append(fieldErrors, apperror.FieldError{
			Field:   jsonFieldName(fe),
			Message: validationMessage(fe),
		})
	}
	return apperror.NewValidationError(fieldErrors)
}

// jsonFieldName turns "CheckoutRequest.Items[0].Quantity" into "items[0].quantity"
func jsonFieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return toSnake(ns)
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && s[i-1] != '.' && s[i-1] != ']' && !(s[i-1] >= 'A' && s[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of " + fe.Param()
	case "eqfield":
		return "must match " + toSnake(fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func pageParams(c *gin.Context) *pagination.PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "15"))
	return &pagination.PaginationParams{Page: page, PerPage: perPage}
}

// billFilter reads the shared bill list query: status (repeatable),
// customer_id, cashier_id, start_date, end_date and search.
func billFilter(c *gin.Context) (repository.BillFilter, error) {
	filter := repository.BillFilter{Search: c.Query("search")}

	for _, raw := range c.QueryArray("status") {
		status, err := enum.ParseBillStatus(raw)
		if err != nil {
			return filter, apperror.NewFieldError("status", err.Error())
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	if raw := c.Query("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, apperror.NewFieldError("customer_id", "must be a UUID")
		}
		filter.CustomerID = &id
	}
	if raw := c.Query("cashier_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, apperror.NewFieldError("cashier_id", "must be a UUID")
		}
		filter.CashierID = &id
	}
	if raw := c.Query("start_date"); raw != "" {
		start, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, apperror.NewFieldError("start_date", "must be YYYY-MM-DD")
		}
		filter.StartDate = &start
	}
	if raw := c.Query("end_date"); raw != "" {
		end, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, apperror.NewFieldError("end_date", "must be YYYY-MM-DD")
		}
		// inclusive of the whole day
		end = end.Add(24*time.Hour - time.Nanosecond)
		filter.EndDate = &end
	}
	return filter, nil
}

func cartItems(items []request.BillItemRequest) []service.CartItem {
	out := make([]service.CartItem, len(items))
	for i, item := range items {
		out[i] = service.CartItem{
			BookID:          item.BookID,
			Quantity:        item.Quantity,
			DiscountPercent: item.DiscountPercent,
		}
	}
	return out
}

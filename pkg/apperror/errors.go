package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError independently of its HTTP code
type Kind int

const (
	KindGeneric Kind = iota
	KindValidation
	KindIllegalTransition
	KindConfiguration
	KindPersistence
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
	Kind    Kind         `json:"-"`
	Err     error        `json:"-"`
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// PersistenceMessage is the only text a client sees for storage failures.
const PersistenceMessage = "Something went wrong, please try again"

// Common errors
var (
	ErrNotFound           = &AppError{Code: http.StatusNotFound, Message: "Resource not found"}
	ErrUnauthorized       = &AppError{Code: http.StatusUnauthorized, Message: "Unauthorized"}
	ErrForbidden          = &AppError{Code: http.StatusForbidden, Message: "Forbidden"}
	ErrBadRequest         = &AppError{Code: http.StatusBadRequest, Message: "Bad request"}
	ErrInternalServer     = &AppError{Code: http.StatusInternalServerError, Message: "Internal server error"}
	ErrConflict           = &AppError{Code: http.StatusConflict, Message: "Resource already exists"}
	ErrInvalidCredentials = &AppError{Code: http.StatusUnauthorized, Message: "Invalid username or password"}
	ErrAccountDisabled    = &AppError{Code: http.StatusForbidden, Message: "Account is disabled"}
	ErrInvalidToken       = &AppError{Code: http.StatusUnauthorized, Message: "Invalid token"}
	ErrPaymentDeclined    = &AppError{Code: http.StatusPaymentRequired, Message: "Payment was declined"}
)

// NewAppError creates a new application error
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Errors:  fieldErrors,
		Kind:    KindValidation,
	}
}

// NewFieldError is a validation error for a single field
func NewFieldError(field, message string) *AppError {
	return NewValidationError([]FieldError{{Field: field, Message: message}})
}

// NewIllegalTransitionError reports an action the current order state does not allow
func NewIllegalTransitionError(state, action string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Message: fmt.Sprintf("cannot %s an order in state %s", action, state),
		Kind:    KindIllegalTransition,
	}
}

// NewConfigurationError reports a missing or unparseable system setting
func NewConfigurationError(key, reason string) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Message: fmt.Sprintf("configuration %s: %s", key, reason),
		Kind:    KindConfiguration,
	}
}

// NewPersistenceError hides a storage failure behind a generic message
func NewPersistenceError(err error) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Message: PersistenceMessage,
		Kind:    KindPersistence,
		Err:     err,
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Message: resource + " not found",
	}
}

// NewConflictError creates a conflict error with a custom message
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Message: message,
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Message: message,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func isKind(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

func IsValidation(err error) bool        { return isKind(err, KindValidation) }
func IsIllegalTransition(err error) bool { return isKind(err, KindIllegalTransition) }
func IsConfiguration(err error) bool     { return isKind(err, KindConfiguration) }
func IsPersistence(err error) bool       { return isKind(err, KindPersistence) }

// GetAppError converts an error to AppError if possible.
// Unknown errors never expose their text.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewPersistenceError(err)
}

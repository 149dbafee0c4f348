package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/sangkips/bookshop-pos/internal/domain/entity"
	"github.com/sangkips/bookshop-pos/internal/domain/enum"
	"github.com/sangkips/bookshop-pos/internal/domain/repository"
	"github.com/sangkips/bookshop-pos/pkg/apperror"
	"github.com/sangkips/bookshop-pos/pkg/pagination"
	"github.com/sangkips/bookshop-pos/pkg/utils"
)

const (
	defaultAccountPrefix = "ACC-"
	defaultAccountLength = 6
)

// CustomerService handles customer accounts and their purchase history
type CustomerService struct {
	userRepo repository.UserRepository
	billRepo repository.BillRepository
	settings *SettingsService
}

// NewCustomerService creates a new customer service
func NewCustomerService(userRepo repository.UserRepository, billRepo repository.BillRepository, settings *SettingsService) *CustomerService {
	return &CustomerService{userRepo: userRepo, billRepo: billRepo, settings: settings}
}

// CreateCustomerInput represents the create customer input.
// Without a password the account cannot log in until one is set.
type CreateCustomerInput struct {
	FullName string
	Email    string
	Phone    string
	Address  string
	Username string
	Password string
}

// CreateCustomer registers a customer and assigns the next account number
func (s *CustomerService) CreateCustomer(ctx context.Context, input *CreateCustomerInput) (*entity.User, error) {
	var fieldErrors []apperror.FieldError
	if strings.TrimSpace(input.FullName) == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "full_name", Message: "is required"})
	}
	if input.Password != "" && len(input.Password) < minPasswordLength {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "password", Message: "must be at least 6 characters"})
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	accountNumber, err := s.nextAccountNumber(ctx)
	if err != nil {
		return nil, err
	}

	username := strings.TrimSpace(input.Username)
	if username == "" {
		username = strings.ToLower(accountNumber)
	}
	if err := ensureUniqueLogin(ctx, s.userRepo, uuid.Nil, username, input.Email); err != nil {
		return nil, err
	}

	password := input.Password
	if password == "" {
		if password, err = randomSecret(); err != nil {
			return nil, apperror.NewPersistenceError(err)
		}
	}
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, apperror.NewPersistenceError(err)
	}

	customer := &entity.User{
		Username:      username,
		Password:      hashed,
		Email:         strings.TrimSpace(input.Email),
		FullName:      strings.TrimSpace(input.FullName),
		Phone:         strings.TrimSpace(input.Phone),
		Address:       strings.TrimSpace(input.Address),
		Role:          enum.RoleCustomer,
		AccountNumber: &accountNumber,
		IsActive:      true,
	}
	if err := s.userRepo.Create(ctx, customer); err != nil {
		return nil, persistenceError(err)
	}

	log.WithFields(log.Fields{"customer_id": customer.ID, "account_number": accountNumber}).Info("customer registered")
	return customer, nil
}

// nextAccountNumber is ACCOUNT_PREFIX followed by the next number zero padded to ACCOUNT_LENGTH
func (s *CustomerService) nextAccountNumber(ctx context.Context) (string, error) {
	prefix, err := s.settings.Value(ctx, entity.SettingAccountPrefix, defaultAccountPrefix)
	if err != nil {
		return "", err
	}
	rawLength, err := s.settings.Value(ctx, entity.SettingAccountLength, strconv.Itoa(defaultAccountLength))
	if err != nil {
		return "", err
	}
	length, err := strconv.Atoi(rawLength)
	if err != nil || length < 1 {
		return "", apperror.NewConfigurationError(entity.SettingAccountLength, fmt.Sprintf("%q is not a positive integer", rawLength))
	}

	last, err := s.userRepo.LastAccountNumber(ctx, prefix)
	if err != nil {
		return "", persistenceError(err)
	}
	return FormatAccountNumber(prefix, length, last)
}

// FormatAccountNumber returns the account number that follows last.
// An empty last starts the sequence at 1.
func FormatAccountNumber(prefix string, length int, last string) (string, error) {
	next := 1
	if last != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(last, prefix))
		if err != nil {
			return "", apperror.NewConfigurationError(entity.SettingAccountPrefix, fmt.Sprintf("existing account number %q does not follow the prefix", last))
		}
		next = n + 1
	}
	return fmt.Sprintf("%s%0*d", prefix, length, next), nil
}

func randomSecret() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GetCustomer retrieves a customer by ID
func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	customer, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, persistenceError(err)
	}
	if customer == nil || !customer.IsCustomer() {
		return nil, apperror.NewNotFoundError("Customer")
	}
	return customer, nil
}

// GetByAccountNumber retrieves a customer by account number
func (s *CustomerService) GetByAccountNumber(ctx context.Context, accountNumber string) (*entity.User, error) {
	customer, err := s.userRepo.GetByAccountNumber(ctx, strings.TrimSpace(accountNumber))
	if err != nil {
		return nil, persistenceError(err)
	}
	if customer == nil || !customer.IsCustomer() {
		return nil, apperror.NewNotFoundError("Customer")
	}
	return customer, nil
}

// ListCustomers lists customers
func (s *CustomerService) ListCustomers(ctx context.Context, params *pagination.PaginationParams, search string, includeInactive bool) (*pagination.PaginatedResult[entity.User], error) {
	if params == nil {
		params = pagination.DefaultPagination()
	}
	params.Validate()

	customers, total, err := s.userRepo.List(ctx, &repository.UserFilterParams{
		Pagination:      params,
		Search:          search,
		Roles:           []enum.UserRole{enum.RoleCustomer},
		IncludeInactive: includeInactive,
	})
	if err != nil {
		return nil, persistenceError(err)
	}

	pag := pagination.NewPagination(params.Page, params.PerPage, total)
	return pagination.NewPaginatedResult(customers, pag), nil
}

// UpdateCustomerInput represents the update customer input
type UpdateCustomerInput struct {
	ID       uuid.UUID
	FullName *string
	Email    *string
	Phone    *string
	Address  *string
	IsActive *bool
}

// UpdateCustomer updates a customer. The account number never changes.
func (s *CustomerService) UpdateCustomer(ctx context.Context, input *UpdateCustomerInput) (*entity.User, error) {
	customer, err := s.GetCustomer(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.FullName != nil {
		if strings.TrimSpace(*input.FullName) == "" {
			return nil, apperror.NewFieldError("full_name", "must not be empty")
		}
		customer.FullName = strings.TrimSpace(*input.FullName)
	}
	if input.Email != nil && !strings.EqualFold(*input.Email, customer.Email) {
		if err := ensureUniqueLogin(ctx, s.userRepo, customer.ID, "", *input.Email); err != nil {
			return nil, err
		}
		customer.Email = strings.TrimSpace(*input.Email)
	}
	if input.Phone != nil {
		customer.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Address != nil {
		customer.Address = strings.TrimSpace(*input.Address)
	}
	if input.IsActive != nil {
		customer.IsActive = *input.IsActive
	}

	if err := s.userRepo.Update(ctx, customer); err != nil {
		return nil, persistenceError(err)
	}
	return customer, nil
}

// DeactivateCustomer hides a customer from lists. Their bills are kept.
func (s *CustomerService) DeactivateCustomer(ctx context.Context, id uuid.UUID) error {
	inactive := false
	_, err := s.UpdateCustomer(ctx, &UpdateCustomerInput{ID: id, IsActive: &inactive})
	return err
}

// PurchaseStats summarises a customer's settled bills
func (s *CustomerService) PurchaseStats(ctx context.Context, id uuid.UUID) (*repository.CustomerStats, error) {
	if _, err := s.GetCustomer(ctx, id); err != nil {
		return nil, err
	}
	stats, err := s.billRepo.CustomerStats(ctx, id)
	if err != nil {
		return nil, persistenceError(err)
	}
	return stats, nil
}

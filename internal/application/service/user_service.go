package service

import (
	"context"
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

// UserService manages staff accounts (administrators and cashiers)
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// CreateUserInput represents the input for creating a staff account
type CreateUserInput struct {
	Username string
	Password string
	Email    string
	FullName string
	Phone    string
	Role     enum.UserRole
}

// CreateUser creates an administrator or cashier
func (s *UserService) CreateUser(ctx context.Context, input *CreateUserInput) (*entity.User, error) {
	var fieldErrors []apperror.FieldError
	if strings.TrimSpace(input.Username) == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "username", Message: "is required"})
	}
	if len(input.Password) < minPasswordLength {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "password", Message: "must be at least 6 characters"})
	}
	if strings.TrimSpace(input.FullName) == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "full_name", Message: "is required"})
	}
	if !input.Role.IsStaff() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "role", Message: "must be ADMIN or CASHIER"})
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	if err := ensureUniqueLogin(ctx, s.userRepo, uuid.Nil, input.Username, input.Email); err != nil {
		return nil, err
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, apperror.NewPersistenceError(err)
	}
	user := &entity.User{
		Username: strings.TrimSpace(input.Username),
		Password: hashed,
		Email:    strings.TrimSpace(input.Email),
		FullName: strings.TrimSpace(input.FullName),
		Phone:    strings.TrimSpace(input.Phone),
		Role:     input.Role,
		IsActive: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, persistenceError(err)
	}

	log.WithFields(log.Fields{"user_id": user.ID, "role": user.Role}).Info("staff account created")
	return user, nil
}

// GetUser returns a staff account by ID
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, persistenceError(err)
	}
	if user == nil || !user.Role.IsStaff() {
		return nil, apperror.NewNotFoundError("User")
	}
	return user, nil
}

// ListUsersInput represents the input for listing staff
type ListUsersInput struct {
	Pagination      *pagination.PaginationParams
	Search          string
	Role            *enum.UserRole
	IncludeInactive bool
}

// ListUsers returns a page of staff accounts
func (s *UserService) ListUsers(ctx context.Context, input *ListUsersInput) (*pagination.PaginatedResult[entity.User], error) {
	params := input.Pagination
	if params == nil {
		params = pagination.DefaultPagination()
	}
	params.Validate()

	roles := []enum.UserRole{enum.RoleAdmin, enum.RoleCashier}
	if input.Role != nil {
		if !input.Role.IsStaff() {
			return nil, apperror.NewFieldError("role", "must be ADMIN or CASHIER")
		}
		roles = []enum.UserRole{*input.Role}
	}

	users, total, err := s.userRepo.List(ctx, &repository.UserFilterParams{
		Pagination:      params,
		Search:          input.Search,
		Roles:           roles,
		IncludeInactive: input.IncludeInactive,
	})
	if err != nil {
		return nil, persistenceError(err)
	}

	pag := pagination.NewPagination(params.Page, params.PerPage, total)
	return pagination.NewPaginatedResult(users, pag), nil
}

// UpdateUserInput represents the input for updating a staff account
type UpdateUserInput struct {
	ID       uuid.UUID
	Email    *string
	FullName *string
	Phone    *string
	Role     *enum.UserRole
	IsActive *bool
	Password *string
}

// UpdateUser changes a staff account
func (s *UserService) UpdateUser(ctx context.Context, input *UpdateUserInput) (*entity.User, error) {
	user, err := s.GetUser(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Email != nil && !strings.EqualFold(*input.Email, user.Email) {
		if err := ensureUniqueLogin(ctx, s.userRepo, user.ID, "", *input.Email); err != nil {
			return nil, err
		}
		user.Email = strings.TrimSpace(*input.Email)
	}
	if input.FullName != nil {
		if strings.TrimSpace(*input.FullName) == "" {
			return nil, apperror.NewFieldError("full_name", "must not be empty")
		}
		user.FullName = strings.TrimSpace(*input.FullName)
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Role != nil {
		if !input.Role.IsStaff() {
			return nil, apperror.NewFieldError("role", "must be ADMIN or CASHIER")
		}
		user.Role = *input.Role
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.Password != nil {
		if len(*input.Password) < minPasswordLength {
			return nil, apperror.NewFieldError("password", "must be at least 6 characters")
		}
		hashed, err := utils.HashPassword(*input.Password)
		if err != nil {
			return nil, apperror.NewPersistenceError(err)
		}
		user.Password = hashed
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, persistenceError(err)
	}
	return user, nil
}

// DeactivateUser disables a staff account. Staff cannot disable themselves.
func (s *UserService) DeactivateUser(ctx context.Context, id, actorID uuid.UUID) error {
	if id == actorID {
		return apperror.NewBadRequestError("You cannot deactivate your own account")
	}
	inactive := false
	_, err := s.UpdateUser(ctx, &UpdateUserInput{ID: id, IsActive: &inactive})
	return err
}

// ensureUniqueLogin rejects a username or email already used by another account
func ensureUniqueLogin(ctx context.Context, repo repository.UserRepository, self uuid.UUID, username, email string) error {
	if username = strings.TrimSpace(username); username != "" {
		existing, err := repo.GetByUsername(ctx, username)
		if err != nil {
			return persistenceError(err)
		}
		if existing != nil && existing.ID != self {
			return apperror.NewConflictError("Username already taken")
		}
	}
	if email = strings.TrimSpace(email); email != "" {
		existing, err := repo.GetByEmail(ctx, email)
		if err != nil {
			return persistenceError(err)
		}
		if existing != nil && existing.ID != self {
			return apperror.NewConflictError("Email already registered")
		}
	}
	return nil
}

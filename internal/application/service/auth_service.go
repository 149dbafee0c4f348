package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/sangkips/bookshop-pos/internal/domain/entity"
	"github.com/sangkips/bookshop-pos/internal/domain/repository"
	"github.com/sangkips/bookshop-pos/pkg/apperror"
	"github.com/sangkips/bookshop-pos/pkg/utils"
)

const minPasswordLength = 6

// AuthService handles authentication-related operations
type AuthService struct {
	userRepo   repository.UserRepository
	jwtManager *utils.JWTManager
	now        func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repository.UserRepository, jwtManager *utils.JWTManager) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		now:        time.Now,
	}
}

// LoginInput represents the login input
type LoginInput struct {
	Username string
	Password string
}

// LoginOutput represents the login output
type LoginOutput struct {
	User         *entity.User
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// Login authenticates a user by username and returns tokens
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		return nil, persistenceError(err)
	}
	if user == nil || !utils.CheckPasswordHash(input.Password, user.Password) {
		return nil, apperror.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperror.ErrAccountDisabled
	}

	out, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("failed to record last login")
	} else {
		user.LastLoginAt = &now
	}

	log.WithFields(log.Fields{"user_id": user.ID, "role": user.Role}).Info("user logged in")
	return out, nil
}

// RefreshToken generates new tokens from a refresh token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*LoginOutput, error) {
	userID, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperror.ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, persistenceError(err)
	}
	if user == nil {
		return nil, apperror.ErrInvalidToken
	}
	if !user.IsActive {
		return nil, apperror.ErrAccountDisabled
	}

	return s.issueTokens(user)
}

func (s *AuthService) issueTokens(user *entity.User) (*LoginOutput, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username, user.Role.String())
	if err != nil {
		return nil, apperror.NewPersistenceError(err)
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, apperror.NewPersistenceError(err)
	}
	return &LoginOutput{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtManager.AccessTokenExpiry().Seconds()),
	}, nil
}

// GetCurrentUser returns the current user by ID
func (s *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, persistenceError(err)
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User")
	}
	return user, nil
}

// ChangePasswordInput represents the change password input
type ChangePasswordInput struct {
	UserID          uuid.UUID
	CurrentPassword string
	NewPassword     string
}

// ChangePassword replaces the password after checking the current one
func (s *AuthService) ChangePassword(ctx context.Context, input *ChangePasswordInput) error {
	if len(input.NewPassword) < minPasswordLength {
		return apperror.NewFieldError("new_password", "must be at least 6 characters")
	}

	user, err := s.GetCurrentUser(ctx, input.UserID)
	if err != nil {
		return err
	}
	if !utils.CheckPasswordHash(input.CurrentPassword, user.Password) {
		return apperror.NewFieldError("current_password", "is incorrect")
	}

	hashed, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		return apperror.NewPersistenceError(err)
	}
	user.Password = hashed
	if err := s.userRepo.Update(ctx, user); err != nil {
		return persistenceError(err)
	}
	log.WithField("user_id", user.ID).Info("password changed")
	return nil
}

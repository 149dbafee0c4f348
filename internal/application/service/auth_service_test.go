package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/bookshop-pos/internal/domain/enum"
	"github.com/sangkips/bookshop-pos/pkg/apperror"
	"github.com/sangkips/bookshop-pos/pkg/utils"
)

func newAuthService(f *fixture) *AuthService {
	return NewAuthService(f.users, utils.NewJWTManager("test-secret", 15*time.Minute, time.Hour))
}

func TestLoginIssuesTokens(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f)
	ctx := context.Background()

	out, err := svc.Login(ctx, &LoginInput{Username: "till1", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, f.cashier.ID, out.User.ID)
	assert.EqualValues(t, 900, out.ExpiresIn)
	require.NotNil(t, out.User.LastLoginAt)

	claims, err := svc.jwtManager.ValidateAccessToken(out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, f.cashier.ID, claims.UserID)
	assert.Equal(t, enum.RoleCashier.String(), claims.Role)

	refreshed, err := svc.RefreshToken(ctx, out.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.RefreshToken(ctx, out.AccessToken)
	assert.ErrorIs(t, err, apperror.ErrInvalidToken)
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f)
	ctx := context.Background()

	_, err := svc.Login(ctx, &LoginInput{Username: "till1", Password: "wrong"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	_, err = svc.Login(ctx, &LoginInput{Username: "ghost", Password: "secret123"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	f.users.users[f.cashier.ID].IsActive = false
	_, err = svc.Login(ctx, &LoginInput{Username: "till1", Password: "secret123"})
	assert.ErrorIs(t, err, apperror.ErrAccountDisabled)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, &ChangePasswordInput{UserID: f.admin.ID, CurrentPassword: "nope", NewPassword: "newsecret"})
	assert.True(t, apperror.IsValidation(err))

	err = svc.ChangePassword(ctx, &ChangePasswordInput{UserID: f.admin.ID, CurrentPassword: "secret123", NewPassword: "short"})
	assert.True(t, apperror.IsValidation(err))

	require.NoError(t, svc.ChangePassword(ctx, &ChangePasswordInput{UserID: f.admin.ID, CurrentPassword: "secret123", NewPassword: "newsecret"}))
	_, err = svc.Login(ctx, &LoginInput{Username: "admin", Password: "newsecret"})
	assert.NoError(t, err)
}

func TestUserServiceManagesStaffOnly(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.users)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, &CreateUserInput{Username: "till2", Password: "secret123", FullName: "Till Two", Role: enum.RoleCashier})
	require.NoError(t, err)
	assert.True(t, user.IsActive)

	_, err = svc.CreateUser(ctx, &CreateUserInput{Username: "TILL2", Password: "secret123", FullName: "Dup", Role: enum.RoleCashier})
	assert.Equal(t, http.StatusConflict, apperror.GetAppError(err).Code)

	_, err = svc.CreateUser(ctx, &CreateUserInput{Username: "cust", Password: "secret123", FullName: "C", Role: enum.RoleCustomer})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.GetUser(ctx, f.customer.ID)
	assert.Equal(t, http.StatusNotFound, apperror.GetAppError(err).Code)

	page, err := svc.ListUsers(ctx, &ListUsersInput{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)

	cashier := enum.RoleCashier
	page, err = svc.ListUsers(ctx, &ListUsersInput{Role: &cashier})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	err = svc.DeactivateUser(ctx, f.admin.ID, f.admin.ID)
	assert.Equal(t, http.StatusBadRequest, apperror.GetAppError(err).Code)

	require.NoError(t, svc.DeactivateUser(ctx, user.ID, f.admin.ID))
	page, err = svc.ListUsers(ctx, &ListUsersInput{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}

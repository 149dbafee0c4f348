package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/bookshop-pos/pkg/apperror"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour, 24*time.Hour)
	id := uuid.New()

	token, err := m.GenerateAccessToken(id, "cashier1", "CASHIER")
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "cashier1", claims.Username)
	assert.Equal(t, "CASHIER", claims.Role)
}

func TestAccessTokenRejectsOtherSecretAndExpiry(t *testing.T) {
	m := NewJWTManager("secret", time.Hour, time.Hour)
	token, err := m.GenerateAccessToken(uuid.New(), "u", "ADMIN")
	require.NoError(t, err)

	_, err = NewJWTManager("other", time.Hour, time.Hour).ValidateAccessToken(token)
	assert.Error(t, err)

	expired := NewJWTManager("secret", -time.Minute, time.Hour)
	token, err = expired.GenerateAccessToken(uuid.New(), "u", "ADMIN")
	require.NoError(t, err)
	_, err = m.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	m := NewJWTManager("secret", time.Hour, time.Hour)
	id := uuid.New()

	refresh, err := m.GenerateRefreshToken(id)
	require.NoError(t, err)

	got, err := m.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = m.ValidateAccessToken(refresh)
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, CheckPasswordHash("s3cret!", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestParseUUID(t *testing.T) {
	id := uuid.New()
	got, err := ParseUUID(id.String(), "bill id")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseUUID("nope", "bill id")
	require.Error(t, err)
	assert.Equal(t, "Invalid bill id", apperror.GetAppError(err).Message)

	opt, err := ParseOptionalUUID("", "customer_id")
	require.NoError(t, err)
	assert.Nil(t, opt)
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/bookshop-pos/internal/domain/entity"
	"github.com/sangkips/bookshop-pos/internal/domain/enum"
	"github.com/sangkips/bookshop-pos/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	jwtManager := utils.NewJWTManager("secret", time.Hour, time.Hour)
	userID := uuid.New()

	r := gin.New()
	r.GET("/me", AuthMiddleware(jwtManager), func(c *gin.Context) {
		c.JSON(200, gin.H{
			"user_id": c.MustGet("user_id").(uuid.UUID).String(),
			"role":    string(c.MustGet("role").(enum.UserRole)),
		})
	})

	w := serve(r, http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodGet, "/me", "", map[string]string{"Authorization": "Token abc"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	refresh, err := jwtManager.GenerateRefreshToken(userID)
	require.NoError(t, err)
	w = serve(r, http.MethodGet, "/me", "", map[string]string{"Authorization": "Bearer " + refresh})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	bogusRole, err := jwtManager.GenerateAccessToken(userID, "x", "OWNER")
	require.NoError(t, err)
	w = serve(r, http.MethodGet, "/me", "", map[string]string{"Authorization": "Bearer " + bogusRole})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := jwtManager.GenerateAccessToken(userID, "cashier1", "CASHIER")
	require.NoError(t, err)
	w = serve(r, http.MethodGet, "/me", "", map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
	assert.Contains(t, w.Body.String(), `"role":"CASHIER"`)
}

func withRole(role enum.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", uuid.New())
		c.Set("role", role)
	}
}

func TestRequireRole(t *testing.T) {
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	cases := []struct {
		role  enum.UserRole
		admin int
		staff int
	}{
		{enum.RoleAdmin, http.StatusNoContent, http.StatusNoContent},
		{enum.RoleCashier, http.StatusForbidden, http.StatusNoContent},
		{enum.RoleCustomer, http.StatusForbidden, http.StatusForbidden},
	}
	for _, tc := range cases {
		r := gin.New()
		r.Use(withRole(tc.role))
		r.GET("/admin", RequireRole(enum.RoleAdmin), ok)
		r.GET("/staff", RequireStaff(), ok)

		assert.Equal(t, tc.admin, serve(r, http.MethodGet, "/admin", "", nil).Code, tc.role)
		assert.Equal(t, tc.staff, serve(r, http.MethodGet, "/staff", "", nil).Code, tc.role)
	}

	r := gin.New()
	r.GET("/admin", RequireRole(enum.RoleAdmin), ok)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/admin", "", nil).Code)
}

func TestRateLimiterIsPerUser(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 2})
	defer rl.Stop()

	alice, bob := uuid.New(), uuid.New()
	r := gin.New()
	r.Use(func(c *gin.Context) {
		switch c.GetHeader("X-User") {
		case "alice":
			c.Set("user_id", alice)
		case "bob":
			c.Set("user_id", bob)
		}
	})
	r.Use(rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	asAlice := map[string]string{"X-User": "alice"}
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", "", asAlice).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", "", asAlice).Code)
	w := serve(r, http.MethodGet, "/", "", asAlice)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", "", map[string]string{"X-User": "bob"}).Code)
	assert.Equal(t, 2, rl.Stats()["active_clients"])
}

func TestRateLimiterCleanupDropsIdleClients(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerSecond: 1, BurstSize: 1, EntryTTL: time.Minute})
	defer rl.Stop()

	now := time.Now()
	rl.now = func() time.Time { return now }
	rl.getLimiter("ip:10.0.0.1")
	rl.getLimiter("ip:10.0.0.2")

	now = now.Add(2 * time.Minute)
	rl.getLimiter("ip:10.0.0.2")
	rl.cleanup()

	assert.Equal(t, 1, rl.Stats()["active_clients"])
}

func TestNewRateLimiterDefaults(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{})
	defer rl.Stop()

	stats := rl.Stats()
	assert.Equal(t, 20, stats["burst_size"])
	assert.Equal(t, float64(10), stats["rate_per_second"])
}

type memoryIdempotencyRepo struct {
	mu   sync.Mutex
	keys map[string]*entity.IdempotencyKey
}

func (r *memoryIdempotencyRepo) GetByKey(_ context.Context, key string, userID uuid.UUID) (*entity.IdempotencyKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if k, ok := r.keys[userID.String()+key]; ok {
		c := *k
		return &c, nil
	}
	return nil, nil
}

func (r *memoryIdempotencyRepo) Create(_ context.Context, ikey *entity.IdempotencyKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.keys == nil {
		r.keys = map[string]*entity.IdempotencyKey{}
	}
	c := *ikey
	r.keys[ikey.UserID.String()+ikey.Key] = &c
	return nil
}

func (r *memoryIdempotencyRepo) DeleteExpired(_ context.Context) (int64, error) {
	return 0, nil
}

func TestIdempotencyReplaysSuccessfulResponses(t *testing.T) {
	repo := &memoryIdempotencyRepo{}
	userID := uuid.New()
	var calls int32

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", userID) })
	idem := Idempotency(IdempotencyConfig{Repo: repo, Required: true})
	r.POST("/bills", idem, func(c *gin.Context) {
		n := atomic.AddInt32(&calls, 1)
		c.JSON(http.StatusCreated, gin.H{"call": n})
	})
	r.POST("/other", idem, func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/bills", `{}`, nil).Code)

	key := map[string]string{IdempotencyKeyHeader: "k-1"}
	first := serve(r, http.MethodPost, "/bills", `{"a":1}`, key)
	require.Equal(t, http.StatusCreated, first.Code)

	again := serve(r, http.MethodPost, "/bills", `{"a":1}`, key)
	assert.Equal(t, http.StatusCreated, again.Code)
	assert.Equal(t, "true", again.Header().Get(IdempotencyReplayedHeader))
	assert.JSONEq(t, first.Body.String(), again.Body.String())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	assert.Equal(t, http.StatusUnprocessableEntity, serve(r, http.MethodPost, "/bills", `{"a":2}`, key).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, serve(r, http.MethodPost, "/other", `{"a":1}`, key).Code)
}

func TestIdempotencyDoesNotStoreFailures(t *testing.T) {
	repo := &memoryIdempotencyRepo{}
	userID := uuid.New()
	fail := true

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", userID) })
	r.POST("/bills", Idempotency(IdempotencyConfig{Repo: repo}), func(c *gin.Context) {
		if fail {
			c.JSON(http.StatusConflict, gin.H{"message": "out of stock"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})

	key := map[string]string{IdempotencyKeyHeader: "k-2"}
	assert.Equal(t, http.StatusConflict, serve(r, http.MethodPost, "/bills", `{}`, key).Code)

	fail = false
	w := serve(r, http.MethodPost, "/bills", `{}`, key)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get(IdempotencyReplayedHeader))

	// optional mode lets keyless requests through
	assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/bills", `{}`, nil).Code)
}

func TestIdempotencyIgnoresExpiredKeys(t *testing.T) {
	userID := uuid.New()
	repo := &memoryIdempotencyRepo{}
	require.NoError(t, repo.Create(context.Background(), &entity.IdempotencyKey{
		Key: "old", UserID: userID, Endpoint: "POST /bills", ResponseCode: 201,
		ResponseBody: `{"stale":true}`, ExpiresAt: time.Now().Add(-time.Minute),
	}))

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", userID) })
	r.POST("/bills", Idempotency(IdempotencyConfig{Repo: repo}), func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"fresh": true})
	})

	w := serve(r, http.MethodPost, "/bills", `{}`, map[string]string{IdempotencyKeyHeader: "old"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "fresh")
}

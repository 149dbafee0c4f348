package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/bookshop-pos/internal/domain/enum"
	"github.com/sangkips/bookshop-pos/internal/domain/repository"
	"github.com/sangkips/bookshop-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/bookshop-pos/pkg/apperror"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Errors  []apperror.FieldError `json:"errors"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func fields(errs []apperror.FieldError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Field
	}
	return out
}

func TestBindJSONReportsFieldsInSnakeCase(t *testing.T) {
	r := gin.New()
	r.POST("/bills", func(c *gin.Context) {
		var req request.CheckoutRequest
		if !bindJSON(c, &req) {
			return
		}
		c.Status(http.StatusNoContent)
	})

	body := `{"items":[{"book_id":"` + uuid.NewString() + `","quantity":0}],"discount_policy":"loyalty"}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/bills", strings.NewReader(body)))

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	env := decode(t, w)
	assert.False(t, env.Success)
	assert.ElementsMatch(t, []string{"customer_id", "items[0].quantity", "discount_policy"}, fields(env.Errors))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/bills", strings.NewReader(`{"items":`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", decode(t, w).Message)
}

func TestToSnake(t *testing.T) {
	cases := map[string]string{
		"CustomerID":           "customer_id",
		"Items[2].BookID":      "items[2].book_id",
		"PaymentDetails.UPIID": "payment_details.upiid",
		"ConfirmPassword":      "confirm_password",
		"already_snake":        "already_snake",
	}
	for in, want := range cases {
		assert.Equal(t, want, toSnake(in), in)
	}
}

func filterFor(query string) (repository.BillFilter, error) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/bills?"+query, nil)
	return billFilter(c)
}

func TestBillFilter(t *testing.T) {
	customer := uuid.New()
	f, err := filterFor("status=paid&status=PENDING&customer_id=" + customer.String() +
		"&start_date=2024-03-01&end_date=2024-03-31&search=BILL-2024")
	require.NoError(t, err)
	assert.Equal(t, []enum.BillStatus{enum.BillStatusPaid, enum.BillStatusPending}, f.Statuses)
	require.NotNil(t, f.CustomerID)
	assert.Equal(t, customer, *f.CustomerID)
	assert.Nil(t, f.CashierID)
	assert.Equal(t, "BILL-2024", f.Search)
	require.NotNil(t, f.StartDate)
	require.NotNil(t, f.EndDate)
	assert.Equal(t, "2024-03-01T00:00:00Z", f.StartDate.Format("2006-01-02T15:04:05Z07:00"))
	assert.Equal(t, "2024-03-31T23:59:59Z", f.EndDate.Format("2006-01-02T15:04:05Z07:00"))

	for query, field := range map[string]string{
		"status=LOST":           "status",
		"customer_id=42":        "customer_id",
		"cashier_id=nope":       "cashier_id",
		"start_date=01/03/2024": "start_date",
		"end_date=tomorrow":     "end_date",
	} {
		_, err := filterFor(query)
		require.Error(t, err, query)
		assert.Equal(t, []string{field}, fields(apperror.GetAppError(err).Errors), query)
	}
}

func TestCurrentActorAndPathID(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := CurrentActor(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	id := uuid.New()
	c.Set("user_id", id)
	c.Set("role", enum.RoleCashier)
	actor, ok := CurrentActor(c)
	require.True(t, ok)
	assert.Equal(t, id, actor.ID)
	assert.Equal(t, enum.RoleCashier, actor.Role)

	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}
	_, ok = pathID(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPageParamsDefaults(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/books", nil)
	p := pageParams(c)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 15, p.PerPage)

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/books?page=3&per_page=50", nil)
	p = pageParams(c)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 50, p.PerPage)
}

func TestCollectionSubmitByStaffNeedsCustomer(t *testing.T) {
	h := NewCollectionHandler(nil)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", uuid.New())
		c.Set("role", enum.RoleCashier)
	})
	r.POST("/collection-requests", h.Submit)

	body := `{"items":[{"book_id":"` + uuid.NewString() + `","quantity":1}]}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/collection-requests", strings.NewReader(body)))

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, []string{"customer_id"}, fields(decode(t, w).Errors))
}

func TestReportRejectsUnknownPeriod(t *testing.T) {
	r := gin.New()
	r.GET("/reports/:type", NewReportHandler(nil).Report)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reports/hourly", nil))

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, []string{"type"}, fields(decode(t, w).Errors))
}

func TestCollectionCompleteRejectsMalformedPaymentDetails(t *testing.T) {
	h := NewCollectionHandler(nil)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", uuid.New())
		c.Set("role", enum.RoleCashier)
	})
	r.POST("/collection-requests/:id/complete", h.Complete)

	w := httptest.NewRecorder()
	path := "/collection-requests/" + uuid.NewString() + "/complete"
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"payment_details":`)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

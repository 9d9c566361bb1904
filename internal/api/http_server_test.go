package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rentalhub/internal/config"
	"rentalhub/internal/domain"
	"rentalhub/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubService returns canned results per operation.
type stubService struct {
	rental   *models.Rental
	rentals  []*models.Rental
	products []*models.Product
	err      error
	lastReq  domain.CreateRentalRequest
}

func (s *stubService) CreateRental(ctx context.Context, req domain.CreateRentalRequest) (*models.Rental, error) {
	s.lastReq = req
	return s.rental, s.err
}
func (s *stubService) ListForClient(ctx context.Context, email string) ([]*models.Rental, error) {
	return s.rentals, s.err
}
func (s *stubService) ListForOwner(ctx context.Context, email string) ([]*models.Rental, error) {
	return s.rentals, s.err
}
func (s *stubService) ListPendingForOwner(ctx context.Context, email string) ([]*models.Rental, error) {
	return s.rentals, s.err
}
func (s *stubService) ListAll(ctx context.Context, email string) ([]*models.Rental, error) {
	return s.rentals, s.err
}
func (s *stubService) ListAvailableProducts(ctx context.Context, email string) ([]*models.Product, error) {
	return s.products, s.err
}
func (s *stubService) GetByID(ctx context.Context, id int64, email string) (*models.Rental, error) {
	return s.rental, s.err
}
func (s *stubService) Cancel(ctx context.Context, id int64, email string) (*models.Rental, error) {
	return s.rental, s.err
}
func (s *stubService) Respond(ctx context.Context, id int64, email string, accepted bool, response string) (*models.Rental, error) {
	return s.rental, s.err
}
func (s *stubService) ConfirmReturn(ctx context.Context, id int64, email string) (*models.Rental, error) {
	return s.rental, s.err
}
func (s *stubService) ActivateDueRentals(ctx context.Context) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return 2, nil
}

type allowAllLimiter struct{}

func (allowAllLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return true, nil
}

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return false, nil
}

func sampleRental() *models.Rental {
	return &models.Rental{
		ID: 100, ProductID: 10, ProductName: "Cordless drill",
		ClientID: 1, OwnerID: 2,
		StartDate:    time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
		NumberOfDays: 5,
		PricePerDay:  decimal.RequireFromString("25.50"),
		TotalPrice:   decimal.RequireFromString("127.50"),
		Status:       models.StatusPending,
		CreatedAt:    time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC),
	}
}

func newTestServer(svc domain.RentalService, limiter domain.RateLimiter) http.Handler {
	logger := zerolog.Nop()
	srv := NewHTTPServer(config.APIConfig{
		HTTP:      config.APIHTTPConfig{Port: 0},
		RateLimit: config.APIRateLimitConfig{Requests: 30, Window: 60},
	}, svc, limiter, &logger)
	return srv.server.Handler
}

func doRequest(t *testing.T, handler http.Handler, method, path, actor, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if actor != "" {
		req.Header.Set("X-Actor-Email", actor)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var resp map[string]errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp["error"]
}

func TestCreateRentalEndpoint(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		svc := &stubService{rental: sampleRental()}
		handler := newTestServer(svc, allowAllLimiter{})

		rec := doRequest(t, handler, http.MethodPost, "/api/v1/rentals", "client@example.com",
			`{"product_id":10,"start_date":"2026-03-12","end_date":"2026-03-16","message":"weekend project"}`)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "client@example.com", svc.lastReq.ClientEmail)
		assert.Equal(t, int64(10), svc.lastReq.ProductID)
		assert.Equal(t, "weekend project", svc.lastReq.Message)

		var view rentalView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		assert.Equal(t, int64(100), view.ID)
		assert.Equal(t, "2026-03-12", view.StartDate)
		assert.Equal(t, "127.5", view.TotalPrice)
		assert.Equal(t, models.StatusPending, view.Status)
	})

	t.Run("MissingActorHeader", func(t *testing.T) {
		handler := newTestServer(&stubService{}, allowAllLimiter{})
		rec := doRequest(t, handler, http.MethodPost, "/api/v1/rentals", "",
			`{"product_id":10,"start_date":"2026-03-12","end_date":"2026-03-16"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("InvalidDate", func(t *testing.T) {
		handler := newTestServer(&stubService{}, allowAllLimiter{})
		rec := doRequest(t, handler, http.MethodPost, "/api/v1/rentals", "client@example.com",
			`{"product_id":10,"start_date":"12.03.2026","end_date":"2026-03-16"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("InvalidBody", func(t *testing.T) {
		handler := newTestServer(&stubService{}, allowAllLimiter{})
		rec := doRequest(t, handler, http.MethodPost, "/api/v1/rentals", "client@example.com", `{not json`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		handler := newTestServer(&stubService{}, allowAllLimiter{})
		rec := doRequest(t, handler, http.MethodGet, "/api/v1/rentals", "client@example.com", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		kind   domain.Kind
		status int
	}{
		{domain.KindNotFound, http.StatusNotFound},
		{domain.KindForbidden, http.StatusForbidden},
		{domain.KindInvalidDateRange, http.StatusBadRequest},
		{domain.KindPastStartDate, http.StatusBadRequest},
		{domain.KindItemUnavailable, http.StatusConflict},
		{domain.KindDateConflict, http.StatusConflict},
		{domain.KindInvalidStateTransition, http.StatusConflict},
		{domain.KindSelfBookingForbidden, http.StatusUnprocessableEntity},
	}

	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			svc := &stubService{err: &domain.Error{Kind: tc.kind, Message: "boom"}}
			handler := newTestServer(svc, allowAllLimiter{})

			rec := doRequest(t, handler, http.MethodGet, "/api/v1/rentals/100", "client@example.com", "")
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, string(tc.kind), decodeError(t, rec).Kind)
		})
	}

	t.Run("InfrastructureErrorIsOpaque", func(t *testing.T) {
		svc := &stubService{err: assert.AnError}
		handler := newTestServer(svc, allowAllLimiter{})

		rec := doRequest(t, handler, http.MethodGet, "/api/v1/rentals/100", "client@example.com", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "internal", body.Kind)
		assert.NotContains(t, body.Message, assert.AnError.Error())
	})
}

func TestLifecycleEndpoints(t *testing.T) {
	rental := sampleRental()

	t.Run("GetByID", func(t *testing.T) {
		handler := newTestServer(&stubService{rental: rental}, allowAllLimiter{})
		rec := doRequest(t, handler, http.MethodGet, "/api/v1/rentals/100", "client@example.com", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("InvalidID", func(t *testing.T) {
		handler := newTestServer(&stubService{rental: rental}, allowAllLimiter{})
		rec := doRequest(t, handler, http.MethodGet, "/api/v1/rentals/abc", "client@example.com", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Cancel", func(t *testing.T) {
		handler := newTestServer(&stubService{rental: rental}, allowAllLimiter{})
		rec := doRequest(t, handler, http.MethodPatch, "/api/v1/rentals/100/cancel", "client@example.com", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Respond", func(t *testing.T) {
		handler := newTestServer(&stubService{rental: rental}, allowAllLimiter{})
		rec := doRequest(t, handler, http.MethodPost, "/api/v1/rentals/100/respond", "owner@example.com",
			`{"accepted":true,"response":"pick up after 10am"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("ConfirmReturn", func(t *testing.T) {
		handler := newTestServer(&stubService{rental: rental}, allowAllLimiter{})
		rec := doRequest(t, handler, http.MethodPatch, "/api/v1/rentals/100/confirm-return", "owner@example.com", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("UnknownAction", func(t *testing.T) {
		handler := newTestServer(&stubService{rental: rental}, allowAllLimiter{})
		rec := doRequest(t, handler, http.MethodPost, "/api/v1/rentals/100/frobnicate", "owner@example.com", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListAndAdminEndpoints(t *testing.T) {
	rentals := []*models.Rental{sampleRental()}

	for _, path := range []string{
		"/api/v1/rentals/client",
		"/api/v1/rentals/owner",
		"/api/v1/rentals/owner/pending",
		"/api/v1/admin/rentals",
	} {
		t.Run(path, func(t *testing.T) {
			handler := newTestServer(&stubService{rentals: rentals}, allowAllLimiter{})
			rec := doRequest(t, handler, http.MethodGet, path, "someone@example.com", "")
			assert.Equal(t, http.StatusOK, rec.Code)

			var resp map[string][]rentalView
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Len(t, resp["rentals"], 1)
		})
	}

	t.Run("ActivateDue", func(t *testing.T) {
		handler := newTestServer(&stubService{}, allowAllLimiter{})
		rec := doRequest(t, handler, http.MethodPost, "/api/v1/admin/rentals/activate-due", "admin@example.com", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]int
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp["activated"])
	})

	t.Run("Export", func(t *testing.T) {
		handler := newTestServer(&stubService{rentals: rentals}, allowAllLimiter{})
		rec := doRequest(t, handler, http.MethodGet, "/api/v1/admin/rentals/export", "admin@example.com", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
		assert.NotZero(t, rec.Body.Len())
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("RateLimited", func(t *testing.T) {
		handler := newTestServer(&stubService{rental: sampleRental()}, denyAllLimiter{})
		rec := doRequest(t, handler, http.MethodGet, "/api/v1/rentals/100", "client@example.com", "")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("HealthSkipsRateLimit", func(t *testing.T) {
		handler := newTestServer(&stubService{}, denyAllLimiter{})
		rec := doRequest(t, handler, http.MethodGet, "/healthz", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("RequestIDAssigned", func(t *testing.T) {
		handler := newTestServer(&stubService{}, allowAllLimiter{})
		rec := doRequest(t, handler, http.MethodGet, "/healthz", "", "")
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("RequestIDPreserved", func(t *testing.T) {
		handler := newTestServer(&stubService{}, allowAllLimiter{})
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("X-Request-ID", "req-123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	})
}

package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/palletledger/internal/adapter/http/handler"
	apimiddleware "github.com/iho/palletledger/internal/adapter/http/middleware"
	"github.com/iho/palletledger/internal/domain"
	"github.com/iho/palletledger/internal/infrastructure/auth"
	"github.com/iho/palletledger/internal/infrastructure/metrics"
	"github.com/iho/palletledger/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = apimiddleware.NewRateLimiter(1, 1, nil)
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	require.Equal(t, http.StatusOK, rec1.Code)

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	assert.Equal(t, http.StatusTooManyRequests, rec2.Code)
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/partners/", strings.NewReader(`{"name":"Holz Wagner KG"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, store.checkCalled, "expected idempotency store to be used")
	assert.True(t, store.updateCalled, "expected the created partner to be stored")
}

func TestNewRouter_AuthGuardsAPI(t *testing.T) {
	manager := auth.NewJWTManager("router-secret", time.Hour)
	m := metrics.New(prometheus.NewRegistry())
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.TokenVerifier = manager
		cfg.Metrics = m
	}))

	token := func(role domain.Role) string {
		tok, err := manager.Generate(&domain.User{ID: "u-" + string(role), Role: role})
		require.NoError(t, err)
		return "Bearer " + tok
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		auth   string
		want   int
	}{
		{name: "health stays public", method: http.MethodGet, path: "/health", want: http.StatusOK},
		{name: "api needs a token", method: http.MethodGet, path: "/api/v1/partners/", want: http.StatusUnauthorized},
		{name: "viewer may read", method: http.MethodGet, path: "/api/v1/partners/", auth: token(domain.RoleViewer), want: http.StatusOK},
		{name: "viewer may not book", method: http.MethodPost, path: "/api/v1/partners/p1/entries", body: `{}`, auth: token(domain.RoleViewer), want: http.StatusForbidden},
		{name: "operator may create partners", method: http.MethodPost, path: "/api/v1/partners/", body: `{"name":"Lager Nord"}`, auth: token(domain.RoleOperator), want: http.StatusCreated},
		{name: "operator may not delete", method: http.MethodDelete, path: "/api/v1/partners/p1", auth: token(domain.RoleOperator), want: http.StatusForbidden},
		{name: "admin may delete", method: http.MethodDelete, path: "/api/v1/partners/p1", auth: token(domain.RoleAdmin), want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestNewRouter_MetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.Metrics = m
		cfg.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/partners/p1", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `palletledger_http_requests_total{method="GET",path="/api/v1/partners/{id}`)
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.MetricsHandler = http.NotFoundHandler()
	}))

	chiRoutes, ok := router.(chi.Routes)
	require.True(t, ok, "router does not implement chi.Routes")

	seen := map[string]bool{}
	require.NoError(t, chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}))

	expected := []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"POST /api/v1/partners/",
		"GET /api/v1/partners/",
		"GET /api/v1/partners/{id}/",
		"DELETE /api/v1/partners/{id}/",
		"GET /api/v1/partners/{id}/balance",
		"GET /api/v1/partners/{id}/export.xlsx",
		"POST /api/v1/partners/{id}/entries",
		"POST /api/v1/partners/{id}/corrections",
		"GET /api/v1/partners/{id}/closures",
		"POST /api/v1/partners/{id}/closures",
		"GET /api/v1/partners/{id}/closures/status",
		"GET /api/v1/partners/{id}/closures/reconcile",
		"GET /api/v1/entries/{id}",
	}

	for _, route := range expected {
		assert.True(t, seen[route], "expected route %s to be registered", route)
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	clock := fixedClock{now: time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)}
	partners := stubPartnerService{}

	cfg := RouterConfig{
		PartnerHandler: handler.NewPartnerHandler(partners),
		EntryHandler:   handler.NewEntryHandler(stubEntryService{}),
		ClosureHandler: handler.NewClosureHandler(stubClosureService{}, stubClosureService{}, clock),
		BalanceHandler: handler.NewBalanceHandler(stubBalanceService{}, partners, clock),
		HealthHandler:  handler.NewHealthHandler(handler.PingFunc(func(context.Context) error { return nil }), nil),
		Logger:         zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type stubPartnerService struct{}

func (stubPartnerService) CreatePartner(ctx context.Context, name string) (*domain.Partner, error) {
	return &domain.Partner{ID: "p-new", Name: name}, nil
}

func (stubPartnerService) GetPartner(ctx context.Context, id string) (*domain.Partner, error) {
	return &domain.Partner{ID: id, Name: "Holz Wagner KG"}, nil
}

func (stubPartnerService) ListPartners(ctx context.Context, input usecase.ListPartnersInput) ([]*domain.PartnerSummary, error) {
	return []*domain.PartnerSummary{}, nil
}

func (stubPartnerService) DeletePartner(ctx context.Context, id string) error {
	return nil
}

type stubEntryService struct{}

func (stubEntryService) RecordEntry(ctx context.Context, input usecase.RecordEntryInput) (*domain.Entry, error) {
	return &domain.Entry{ID: "e1"}, nil
}

func (stubEntryService) RecordCorrection(ctx context.Context, input usecase.RecordCorrectionInput) (*domain.Entry, error) {
	return &domain.Entry{ID: "e2"}, nil
}

func (stubEntryService) GetEntry(ctx context.Context, id string) (*domain.Entry, error) {
	return &domain.Entry{ID: id}, nil
}

type stubClosureService struct{}

func (stubClosureService) CloseMonth(ctx context.Context, input usecase.CloseMonthInput) (*domain.Closure, error) {
	return &domain.Closure{ID: "c1", PartnerID: input.PartnerID, Year: input.Year, Month: input.Month}, nil
}

func (stubClosureService) ListClosures(ctx context.Context, partnerID string) ([]*domain.Closure, error) {
	return []*domain.Closure{}, nil
}

func (stubClosureService) MonthStatus(ctx context.Context, partnerID string, year, month int) (*domain.MonthStatus, error) {
	return &domain.MonthStatus{Year: year, Month: month}, nil
}

func (stubClosureService) ReconcileClosures(ctx context.Context, partnerID string) (*usecase.ReconciliationReport, error) {
	return &usecase.ReconciliationReport{PartnerID: partnerID}, nil
}

type stubBalanceService struct{}

func (stubBalanceService) ComputeBalance(ctx context.Context, partnerID string, start, end time.Time) (*domain.Balance, error) {
	return domain.ComputeBalance(partnerID, nil, nil, start, end)
}

type stubIdempotencyStore struct {
	checkCalled  bool
	updateCalled bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.updateCalled = true
	return nil
}

func (s *stubIdempotencyStore) Release(ctx context.Context, key string) error {
	return nil
}

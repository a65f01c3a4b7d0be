package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/palletledger/internal/domain"
	"github.com/iho/palletledger/internal/infrastructure/auth"
	"github.com/iho/palletledger/internal/infrastructure/metrics"
)

func TestAuth(t *testing.T) {
	manager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := manager.Generate(&domain.User{ID: "u1", Name: "Lager Nord", Role: domain.RoleOperator})
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantReason string
	}{
		{name: "valid token", header: "Bearer " + token, wantStatus: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + token, wantStatus: http.StatusOK},
		{name: "missing header", wantStatus: http.StatusUnauthorized, wantReason: "missing"},
		{name: "basic auth", header: "Basic dXNlcjpwdw==", wantStatus: http.StatusUnauthorized, wantReason: "malformed"},
		{name: "garbage token", header: "Bearer not-a-jwt", wantStatus: http.StatusUnauthorized, wantReason: "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New(prometheus.NewRegistry())

			var seen *domain.User
			h := Auth(manager, m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = domain.UserFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/partners", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantReason == "" {
				require.NotNil(t, seen)
				assert.Equal(t, "u1", seen.ID)
				assert.Equal(t, "Lager Nord", seen.Actor())
				return
			}
			assert.Nil(t, seen)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthFailures.WithLabelValues(tt.wantReason)))
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		user       *domain.User
		guard      func(http.Handler) http.Handler
		wantStatus int
	}{
		{name: "operator may write", user: &domain.User{ID: "u1", Role: domain.RoleOperator}, guard: RequireWrite, wantStatus: http.StatusOK},
		{name: "viewer may not write", user: &domain.User{ID: "u2", Role: domain.RoleViewer}, guard: RequireWrite, wantStatus: http.StatusForbidden},
		{name: "operator may not delete", user: &domain.User{ID: "u1", Role: domain.RoleOperator}, guard: RequireDelete, wantStatus: http.StatusForbidden},
		{name: "admin may delete", user: &domain.User{ID: "u3", Role: domain.RoleAdmin}, guard: RequireDelete, wantStatus: http.StatusOK},
		{name: "no user", guard: RequireWrite, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := tt.guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/partners/p1/entries", nil)
			if tt.user != nil {
				req = req.WithContext(domain.WithUser(req.Context(), tt.user))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

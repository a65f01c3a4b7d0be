package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthHandler_Liveness(t *testing.T) {
	h := NewHealthHandler(nil, nil)

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	ok := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name      string
		postgres  Pinger
		redis     Pinger
		expected  int
		wantRedis string
	}{
		{name: "all healthy", postgres: ok, redis: ok, expected: http.StatusOK, wantRedis: "ok"},
		{name: "without redis", postgres: ok, expected: http.StatusOK, wantRedis: "disabled"},
		{name: "postgres down", postgres: down, redis: ok, expected: http.StatusServiceUnavailable},
		{name: "redis down", postgres: ok, redis: down, expected: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.postgres, tt.redis)

			rec := httptest.NewRecorder()
			h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if rec.Code != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, rec.Code)
			}
			if tt.wantRedis == "" {
				return
			}

			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["redis"] != tt.wantRedis {
				t.Errorf("expected redis %q, got %q", tt.wantRedis, body["redis"])
			}
		})
	}
}

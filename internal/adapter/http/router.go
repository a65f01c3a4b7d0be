package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/palletledger/internal/adapter/http/handler"
	"github.com/iho/palletledger/internal/adapter/http/middleware"
	"github.com/iho/palletledger/internal/infrastructure/metrics"
	"github.com/iho/palletledger/internal/usecase"
)

// RouterConfig holds dependencies for the router. Optional fields left nil
// switch the corresponding feature off.
type RouterConfig struct {
	PartnerHandler *handler.PartnerHandler
	EntryHandler   *handler.EntryHandler
	ClosureHandler *handler.ClosureHandler
	BalanceHandler *handler.BalanceHandler
	HealthHandler  *handler.HealthHandler

	Logger zerolog.Logger

	// Optional
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Metrics          *metrics.Metrics
	MetricsHandler   http.Handler
	TokenVerifier    middleware.TokenVerifier
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	authEnabled := cfg.TokenVerifier != nil
	write := passThrough
	remove := passThrough
	if authEnabled {
		write = middleware.RequireWrite
		remove = middleware.RequireDelete
	}

	r.Route("/api/v1", func(r chi.Router) {
		if authEnabled {
			var recorder middleware.AuthFailureRecorder
			if cfg.Metrics != nil {
				recorder = cfg.Metrics
			}
			r.Use(middleware.Auth(cfg.TokenVerifier, recorder))
		}
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.Logger, cfg.IdempotencyTTL).Wrap)
		}

		r.Route("/partners", func(r chi.Router) {
			r.With(write).Post("/", cfg.PartnerHandler.Create)
			r.Get("/", cfg.PartnerHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.PartnerHandler.Get)
				r.With(remove).Delete("/", cfg.PartnerHandler.Delete)

				r.Get("/balance", cfg.BalanceHandler.Get)
				r.Get("/export.xlsx", cfg.BalanceHandler.Export)

				r.With(write).Post("/entries", cfg.EntryHandler.Record)
				r.With(write).Post("/corrections", cfg.EntryHandler.Correct)

				r.Get("/closures", cfg.ClosureHandler.List)
				r.With(write).Post("/closures", cfg.ClosureHandler.Create)
				r.Get("/closures/status", cfg.ClosureHandler.Status)
				r.Get("/closures/reconcile", cfg.ClosureHandler.Reconcile)
			})
		})

		r.Get("/entries/{id}", cfg.EntryHandler.Get)
	})

	return r
}

func passThrough(next http.Handler) http.Handler { return next }

package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/palletledger/internal/domain"
)

const serviceName = "palletledger"

// Config holds logger configuration. Level accepts any zerolog level name;
// Format is "json" or "console".
type Config struct {
	Level  string
	Format string
}

// New returns a logger writing to stdout.
func New(cfg Config) zerolog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter returns a logger writing to w. Console output is colored
// only when w is stdout.
func NewWithWriter(cfg Config, w io.Writer) zerolog.Logger {
	if strings.EqualFold(cfg.Format, "console") {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
			NoColor:    w != os.Stdout,
		}
	}

	return zerolog.New(w).
		Level(parseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// WithContext adds the chi request id and the authenticated user id to l.
func WithContext(ctx context.Context, l zerolog.Logger) zerolog.Logger {
	reqID := middleware.GetReqID(ctx)
	user, hasUser := domain.UserFromContext(ctx)
	if reqID == "" && !hasUser {
		return l
	}

	c := l.With()
	if reqID != "" {
		c = c.Str("request_id", reqID)
	}
	if hasUser {
		c = c.Str("user_id", user.ID)
	}
	return c.Logger()
}

// parseLevel falls back to info for empty or unknown names.
func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ClientConfig configures the shared Redis client.
type ClientConfig struct {
	URL string
	// ConnectTimeout bounds the startup ping retries. Zero pings once.
	ConnectTimeout time.Duration
	// PoolSize overrides the go-redis default when positive.
	PoolSize int
	Logger   zerolog.Logger
}

// NewClient connects with a single ping.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	return NewClientWithConfig(ctx, ClientConfig{URL: redisURL, Logger: zerolog.Nop()})
}

// NewClientWithConfig parses the URL, applies the pool settings and waits
// for the server to answer PING.
func NewClientWithConfig(ctx context.Context, cfg ClientConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}

	client := redis.NewClient(opts)
	if err := waitForPing(ctx, client, cfg.ConnectTimeout, func(attempt error, next time.Duration) {
		cfg.Logger.Warn().Err(attempt).Str("addr", opts.Addr).Dur("retry_in", next).Msg("redis not reachable yet")
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}

	return client, nil
}

func waitForPing(ctx context.Context, client *redis.Client, timeout time.Duration, notify backoff.Notify) error {
	var b backoff.BackOff = &backoff.StopBackOff{}
	if timeout > 0 {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = 100 * time.Millisecond
		eb.MaxElapsedTime = timeout
		b = eb
	}

	return backoff.RetryNotify(func() error {
		return client.Ping(ctx).Err()
	}, backoff.WithContext(b, ctx), notify)
}

package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// LockOptions configures the partner writer lock.
type LockOptions struct {
	// Expiry must outlast the longest write transaction.
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

// DefaultLockOptions lets a writer wait about five seconds for the lock.
func DefaultLockOptions() LockOptions {
	return LockOptions{
		Expiry:     15 * time.Second,
		Tries:      50,
		RetryDelay: 100 * time.Millisecond,
	}
}

// PartnerLocker implements usecase.PartnerLocker with a redsync mutex per
// partner.
type PartnerLocker struct {
	rs     *redsync.Redsync
	opts   LockOptions
	logger zerolog.Logger
}

// NewPartnerLocker creates a PartnerLocker on top of client.
func NewPartnerLocker(client *redis.Client, opts LockOptions, logger zerolog.Logger) *PartnerLocker {
	return &PartnerLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		opts:   opts,
		logger: logger,
	}
}

func partnerLockKey(partnerID string) string {
	return keyPrefix + "lock:partner:" + partnerID
}

// WithPartnerLock runs fn while holding the partner's lock.
func (l *PartnerLocker) WithPartnerLock(ctx context.Context, partnerID string, fn func(ctx context.Context) error) error {
	key := partnerLockKey(partnerID)

	mutex := l.rs.NewMutex(
		key,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}

	defer func() {
		if ok, err := mutex.UnlockContext(context.WithoutCancel(ctx)); !ok || err != nil {
			l.logger.Warn().Err(err).Str("lock", key).Msg("failed to release partner lock")
		}
	}()

	return fn(ctx)
}

package usecase

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/iho/palletledger/internal/domain"
)

// MetricsRecorder receives business events for instrumentation.
type MetricsRecorder interface {
	EntryRecorded(direction domain.Direction)
	ClosureCreated()
	DuplicateClosure()
	ClosureLockRejected(path string)
	BalanceComputed(duration time.Duration, cacheHit bool)
	PartnerCreated()
	PartnerDeleted()
}

// Options carries the optional collaborators shared by the use cases.
// Zero values fall back to the system clock in UTC, no cache, no
// cross-process lock, no metrics and a disabled logger.
type Options struct {
	Clock        Clock
	Cache        BalanceCache
	Locker       PartnerLocker
	Metrics      MetricsRecorder
	Logger       *zerolog.Logger
	DefaultActor string
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = SystemClock{Location: time.UTC}
	}
	if o.Metrics == nil {
		o.Metrics = noopMetrics{}
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
	if o.DefaultActor == "" {
		o.DefaultActor = DefaultActor
	}
	return o
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Location *time.Location
}

// Now returns the current time in the clock's location.
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

type noopMetrics struct{}

func (noopMetrics) EntryRecorded(domain.Direction)      {}
func (noopMetrics) ClosureCreated()                     {}
func (noopMetrics) DuplicateClosure()                   {}
func (noopMetrics) ClosureLockRejected(string)          {}
func (noopMetrics) BalanceComputed(time.Duration, bool) {}
func (noopMetrics) PartnerCreated()                     {}
func (noopMetrics) PartnerDeleted()                     {}

// withPartnerLock runs fn under the cross-process partner lock when one is
// configured. The database row lock taken inside fn stays authoritative.
func withPartnerLock(ctx context.Context, locker PartnerLocker, partnerID string, fn func(ctx context.Context) error) error {
	if locker == nil {
		return fn(ctx)
	}
	return locker.WithPartnerLock(ctx, partnerID, fn)
}

// invalidateAttempts bounds the retries of a failed cache invalidation.
const invalidateAttempts = 3

// invalidateBalances drops cached balances after a committed write. The write
// is already durable, so a cache that stays unreachable is only logged;
// readers may then see the old balance until BALANCE_CACHE_TTL expires.
func invalidateBalances(ctx context.Context, opts Options, partnerID string) {
	if opts.Cache == nil {
		return
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond
	policy := backoff.WithContext(backoff.WithMaxRetries(b, invalidateAttempts-1), ctx)

	err := backoff.Retry(func() error {
		return opts.Cache.Invalidate(ctx, partnerID)
	}, policy)
	if err != nil {
		opts.Logger.Error().Err(err).Str("partner_id", partnerID).Msg("failed to invalidate balance cache, cached balances stay stale until they expire")
	}
}

func actorFromContext(ctx context.Context, fallback string) string {
	if u, ok := domain.UserFromContext(ctx); ok {
		if actor := u.Actor(); actor != "" {
			return actor
		}
	}
	return fallback
}

func newOutboxEvent(idGen IDGenerator, aggregateType, aggregateID, eventType string, payload map[string]any, now time.Time) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:            idGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     now.UTC(),
	}
}

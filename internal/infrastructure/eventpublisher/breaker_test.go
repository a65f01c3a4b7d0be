package eventpublisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/palletledger/internal/domain"
)

type countingPublisher struct {
	calls int
	err   error
}

func (p *countingPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	p.calls++
	return p.err
}

func TestBreakerPublisher_OpensAfterConsecutiveFailures(t *testing.T) {
	next := &countingPublisher{err: errors.New("leader not available")}
	var transitions []gobreaker.State
	bp := NewBreakerPublisher(next, BreakerConfig{
		ConsecutiveFailures: 2,
		OpenTimeout:         time.Hour,
		OnStateChange: func(name string, from, to gobreaker.State) {
			transitions = append(transitions, to)
		},
	})

	event := &domain.OutboxEvent{ID: "evt-1"}
	for i := 0; i < 2; i++ {
		err := bp.Publish(context.Background(), event)
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrBrokerUnavailable))
	}

	err := bp.Publish(context.Background(), event)
	assert.ErrorIs(t, err, ErrBrokerUnavailable)
	assert.Equal(t, 2, next.calls, "open breaker must not reach the broker")
	assert.Equal(t, gobreaker.StateOpen, bp.State())
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)
}

func TestBreakerPublisher_CanceledContextDoesNotTrip(t *testing.T) {
	next := &countingPublisher{err: context.Canceled}
	bp := NewBreakerPublisher(next, BreakerConfig{ConsecutiveFailures: 1})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, bp.Publish(context.Background(), &domain.OutboxEvent{ID: "evt-1"}), context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, bp.State())
	assert.Equal(t, 3, next.calls)
}

func TestProcessEventsDefersBatchWhileBrokerUnavailable(t *testing.T) {
	repo := seededRepo(t, "evt-1", "evt-2", "evt-3")
	next := &countingPublisher{err: errors.New("broker down")}
	bp := NewBreakerPublisher(next, BreakerConfig{ConsecutiveFailures: 1, OpenTimeout: time.Hour})
	rec := &stubRecorder{}
	ep := newTestPublisher(repo, bp, rec)

	require.NoError(t, ep.processEvents(context.Background()))

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, 1, rec.failed, "deferred events are not counted as failures")

	pending, err := repo.GetUnpublished(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, pending, 3)
}

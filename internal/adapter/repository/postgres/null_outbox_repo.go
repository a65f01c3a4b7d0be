package postgres

import (
	"context"
	"time"

	"github.com/iho/palletledger/internal/domain"
	"github.com/iho/palletledger/internal/usecase"
)

// NullOutboxRepository drops every event. The server uses it when the outbox
// is switched off, so writes do not pile up rows nobody relays.
type NullOutboxRepository struct{}

func NewNullOutboxRepository() *NullOutboxRepository {
	return &NullOutboxRepository{}
}

func (r *NullOutboxRepository) Create(context.Context, usecase.Transaction, *domain.OutboxEvent) error {
	return nil
}

func (r *NullOutboxRepository) GetUnpublished(context.Context, int) ([]*domain.OutboxEvent, error) {
	return nil, nil
}

func (r *NullOutboxRepository) MarkPublished(context.Context, string, time.Time) error {
	return nil
}

func (r *NullOutboxRepository) DeletePublished(context.Context, time.Time) (int64, error) {
	return 0, nil
}

var (
	_ usecase.OutboxRepository = (*OutboxRepository)(nil)
	_ usecase.OutboxRepository = (*NullOutboxRepository)(nil)
)

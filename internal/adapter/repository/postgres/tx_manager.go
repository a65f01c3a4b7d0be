package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/palletledger/internal/usecase"
)

type txBeginner interface {
	BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error)
}

var (
	// Writers serialize on the partner row lock, so read committed is enough.
	writeTxOptions = pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	}

	// Balance reads see entries and closures from one snapshot.
	snapshotTxOptions = pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	}
)

// TxManager opens the transactions the ledger use cases run in.
type TxManager struct {
	pool txBeginner
}

func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return newTxManagerWithPool(pool)
}

func newTxManagerWithPool(pool txBeginner) *TxManager {
	return &TxManager{pool: pool}
}

// Begin starts a read-write transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	return m.begin(ctx, writeTxOptions)
}

// BeginSnapshot starts a read-only repeatable read transaction.
func (m *TxManager) BeginSnapshot(ctx context.Context) (usecase.Transaction, error) {
	return m.begin(ctx, snapshotTxOptions)
}

func (m *TxManager) begin(ctx context.Context, opts pgx.TxOptions) (usecase.Transaction, error) {
	tx, err := m.pool.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("begin %s transaction: %w", opts.AccessMode, err)
	}
	return &Tx{tx: tx}, nil
}

// Tx is a ledger transaction. Rollback after Commit does nothing, so use
// cases can always defer it.
type Tx struct {
	tx   pgx.Tx
	done bool
}

func (t *Tx) Commit(ctx context.Context) error {
	t.done = true
	return t.tx.Commit(ctx)
}

func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true

	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

func (t *Tx) PgxTx() pgx.Tx {
	return t.tx
}

var _ usecase.TransactionManager = (*TxManager)(nil)

package usecase

import (
	"context"
	"time"

	"github.com/iho/palletledger/internal/domain"
)

// Repository methods taking a Transaction also accept nil, in which case they
// read outside any transaction.

// PartnerRepository defines data access for partners and their accounts.
type PartnerRepository interface {
	Create(ctx context.Context, tx Transaction, partner *domain.Partner) error
	CreateAccount(ctx context.Context, tx Transaction, account *domain.Account) error
	// GetByID returns the partner with its accounts.
	GetByID(ctx context.Context, tx Transaction, id string) (*domain.Partner, error)
	// GetByIDForUpdate locks the partner row for the rest of tx.
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Partner, error)
	List(ctx context.Context, filter domain.PartnerFilter) ([]*domain.Partner, error)
	Delete(ctx context.Context, tx Transaction, id string) error
}

// EntryRepository defines data access for ledger entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.Entry) error
	GetByID(ctx context.Context, id string) (*domain.Entry, error)
	// ListByPartner returns every entry on any account of the partner.
	ListByPartner(ctx context.Context, tx Transaction, partnerID string) ([]*domain.Entry, error)
	// FindOriginal returns the newest inbound or outbound entry of the partner
	// carrying belegnummer, ordered by konto_seq then id.
	FindOriginal(ctx context.Context, tx Transaction, partnerID, belegnummer string) (*domain.Entry, error)
	// MaxKontoSeq returns the highest konto_seq within the belegnummer group
	// and false when the group is empty.
	MaxKontoSeq(ctx context.Context, tx Transaction, partnerID, belegnummer string) (int32, bool, error)
	// NextBelegnummerSequence atomically reserves the next sequence number for
	// a YYYYMMDD prefix. The result is never below 1 + the number of entries
	// whose belegnummer starts with prefix.
	NextBelegnummerSequence(ctx context.Context, tx Transaction, prefix string) (int64, error)
}

// ClosureRepository defines data access for month closures.
type ClosureRepository interface {
	// Create stores a closure and returns domain.ErrDuplicateClosure when the
	// (partner, year, month) slot is taken.
	Create(ctx context.Context, tx Transaction, closure *domain.Closure) error
	GetByPeriod(ctx context.Context, tx Transaction, partnerID string, year, month int) (*domain.Closure, error)
	// GetLastBefore returns the newest closure with period_end < before, or nil.
	GetLastBefore(ctx context.Context, tx Transaction, partnerID string, before time.Time) (*domain.Closure, error)
	// GetLatest returns the closure with the greatest period_end, or nil.
	GetLatest(ctx context.Context, tx Transaction, partnerID string) (*domain.Closure, error)
	ListByPartner(ctx context.Context, tx Transaction, partnerID string) ([]*domain.Closure, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	// DeletePublished removes events published before the cutoff and
	// reports how many were removed.
	DeletePublished(ctx context.Context, before time.Time) (int64, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
	// BeginSnapshot starts a read-only transaction that sees one consistent
	// snapshot for all its reads.
	BeginSnapshot(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Clock returns the current time in the ledger's location.
type Clock interface {
	Now() time.Time
}

// BalanceCache caches computed balances per partner under a generation
// number. Invalidate bumps the generation, which makes every balance cached
// under an older one unreachable. Callers read the generation before taking
// their snapshot so a concurrent write can never be cached as current.
type BalanceCache interface {
	Generation(ctx context.Context, partnerID string) (int64, error)
	Get(ctx context.Context, partnerID string, generation int64, start, end time.Time) (*domain.Balance, bool, error)
	Set(ctx context.Context, partnerID string, generation int64, start, end time.Time, balance *domain.Balance) error
	Invalidate(ctx context.Context, partnerID string) error
}

// PartnerLocker serializes writers of one partner across processes.
type PartnerLocker interface {
	WithPartnerLock(ctx context.Context, partnerID string, fn func(ctx context.Context) error) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claimed key so the request may be retried.
	Release(ctx context.Context, key string) error
}

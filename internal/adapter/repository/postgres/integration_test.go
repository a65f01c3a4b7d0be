package postgres_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/palletledger/internal/adapter/repository/postgres"
	"github.com/iho/palletledger/internal/domain"
	pginfra "github.com/iho/palletledger/internal/infrastructure/postgres"
	"github.com/iho/palletledger/internal/usecase"
)

// testDatabaseURLEnv names a scratch database; its tables are truncated.
const testDatabaseURLEnv = "PALLETLEDGER_TEST_DATABASE_URL"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

type ledger struct {
	pool     *pgxpool.Pool
	partners *usecase.PartnerUseCase
	entries  *usecase.EntryUseCase
	closures *usecase.ClosureUseCase
	balances *usecase.BalanceUseCase
	recon    *usecase.ReconciliationUseCase
	clock    *fakeClock
}

func newLedger(t *testing.T) *ledger {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}
	dbURL := os.Getenv(testDatabaseURLEnv)
	if dbURL == "" {
		t.Skipf("%s not set", testDatabaseURLEnv)
	}

	require.NoError(t, pginfra.NewMigrator(dbURL, "../../../../migrations", zerolog.Nop()).Up())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pginfra.NewPool(ctx, dbURL, 10, 1)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE TABLE outbox_events, closures, entries, accounts, partners, belegnummer_sequences CASCADE`)
	require.NoError(t, err)

	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata not available: %v", err)
	}
	clock := &fakeClock{now: time.Date(2024, 2, 10, 9, 30, 0, 0, berlin)}

	txManager := postgres.NewTxManager(pool)
	partnerRepo := postgres.NewPartnerRepository(pool)
	entryRepo := postgres.NewEntryRepository(pool)
	closureRepo := postgres.NewClosureRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	idGen := postgres.NewULIDGenerator()
	opts := usecase.Options{Clock: clock}

	balances := usecase.NewBalanceUseCase(txManager, partnerRepo, entryRepo, closureRepo, opts)

	return &ledger{
		pool:     pool,
		partners: usecase.NewPartnerUseCase(txManager, partnerRepo, outboxRepo, balances, idGen, opts),
		entries:  usecase.NewEntryUseCase(txManager, partnerRepo, entryRepo, closureRepo, outboxRepo, idGen, opts),
		closures: usecase.NewClosureUseCase(txManager, partnerRepo, entryRepo, closureRepo, outboxRepo, idGen, opts),
		balances: balances,
		recon:    usecase.NewReconciliationUseCase(txManager, partnerRepo, entryRepo, closureRepo, opts),
		clock:    clock,
	}
}

func TestLedgerLifecycle(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	partner, err := l.partners.CreatePartner(ctx, "Holz Wagner KG")
	require.NoError(t, err)
	require.Len(t, partner.Accounts, 1)

	in, err := l.entries.RecordEntry(ctx, usecase.RecordEntryInput{
		PartnerID: partner.ID, Direction: "EIN", Category: "EUP", Quantity: "10", Date: "2024-01-02",
	})
	require.NoError(t, err)
	assert.Equal(t, "2024021001", in.Belegnummer, "numbered by the day of recording")

	out, err := l.entries.RecordEntry(ctx, usecase.RecordEntryInput{
		PartnerID: partner.ID, Direction: "AUS", Category: "EUP", Quantity: "4", Comment: "LS 10023", Date: "2024-01-05",
	})
	require.NoError(t, err)
	assert.Equal(t, "2024021002", out.Belegnummer)

	closure, err := l.closures.CloseMonth(ctx, usecase.CloseMonthInput{PartnerID: partner.ID, Year: 2024, Month: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.Quantities{EUP: 6}, closure.Balance)

	_, err = l.closures.CloseMonth(ctx, usecase.CloseMonthInput{PartnerID: partner.ID, Year: 2024, Month: 1})
	assert.True(t, errors.Is(err, domain.ErrDuplicateClosure), "got %v", err)

	_, err = l.entries.RecordEntry(ctx, usecase.RecordEntryInput{
		PartnerID: partner.ID, Direction: "EIN", Category: "GB", Quantity: "1", Date: "2024-01-20",
	})
	assert.True(t, errors.Is(err, domain.ErrClosureLocked), "got %v", err)

	_, err = l.entries.RecordCorrection(ctx, usecase.RecordCorrectionInput{
		PartnerID: partner.ID, Belegnummer: out.Belegnummer, Category: "EUP", Quantity: "-1", Comment: "Zählfehler",
	})
	assert.True(t, errors.Is(err, domain.ErrClosureLocked), "corrections follow the original's date, got %v", err)

	feb, err := l.entries.RecordEntry(ctx, usecase.RecordEntryInput{
		PartnerID: partner.ID, Direction: "EIN", Category: "TMB1", Quantity: "3", Date: "2024-02-01",
	})
	require.NoError(t, err)

	correction, err := l.entries.RecordCorrection(ctx, usecase.RecordCorrectionInput{
		PartnerID: partner.ID, Belegnummer: feb.Belegnummer, Category: "TMB1", Quantity: "1", Comment: "Zählfehler",
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), correction.KontoSeq)

	berlin := l.clock.Now().Location()
	balance, err := l.balances.ComputeBalance(ctx, partner.ID, domain.MonthStart(2024, 2, berlin), domain.MonthEnd(2024, 2, berlin))
	require.NoError(t, err)
	assert.Equal(t, domain.Quantities{EUP: 6}, balance.SaldoStart)
	assert.Equal(t, domain.Quantities{TMB1: 2}, balance.Movement)
	assert.Equal(t, domain.Quantities{EUP: 6, TMB1: 2}, balance.SaldoEnd)

	current, err := l.balances.CurrentBalance(ctx, partner.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Quantities{EUP: 6, TMB1: 2}, current)

	report, err := l.recon.ReconcileClosures(ctx, partner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ReconciledClosures)
	assert.Empty(t, report.Discrepancies)

	var pending int
	require.NoError(t, l.pool.QueryRow(ctx, `SELECT count(*) FROM outbox_events WHERE published_at IS NULL`).Scan(&pending))
	assert.Equal(t, 6, pending, "partner, three entries, one correction and one closure")

	require.NoError(t, l.partners.DeletePartner(ctx, partner.ID))
	_, err = l.partners.GetPartner(ctx, partner.ID)
	assert.True(t, errors.Is(err, domain.ErrPartnerNotFound))
}

func TestConcurrentEntriesGetDistinctBelegnummern(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	partners := make([]*domain.Partner, 4)
	for i := range partners {
		p, err := l.partners.CreatePartner(ctx, "Partner "+string(rune('A'+i)))
		require.NoError(t, err)
		partners[i] = p
	}

	const perPartner = 25

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[string]bool{}
		errs []error
	)

	for _, p := range partners {
		for range perPartner {
			wg.Add(1)
			go func() {
				defer wg.Done()

				e, err := l.entries.RecordEntry(ctx, usecase.RecordEntryInput{
					PartnerID: p.ID, Direction: "EIN", Category: "EUP", Quantity: "1",
				})

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, err)
					return
				}
				seen[e.Belegnummer] = true
			}()
		}
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Len(t, seen, len(partners)*perPartner, "every entry of the day gets its own number")

	for _, p := range partners {
		balance, err := l.balances.CurrentBalance(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(perPartner), balance.EUP)
	}
}

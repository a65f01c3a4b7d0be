package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/iho/palletledger/internal/domain"
	"github.com/iho/palletledger/internal/usecase"
	"github.com/iho/palletledger/internal/usecase/mocks"
)

const testPartnerID = "partner-1"

type fixture struct {
	partners *mocks.MockPartnerRepository
	entries  *mocks.MockEntryRepository
	closures *mocks.MockClosureRepository
	outbox   *mocks.MockOutboxRepository
	txMgr    *mocks.MockTransactionManager
	idGen    *mocks.MockIDGenerator
	clock    *mocks.MockClock
	cache    *mocks.MockBalanceCache
	locker   *mocks.MockPartnerLocker
	metrics  *mocks.MockMetricsRecorder

	entryUC   *usecase.EntryUseCase
	closureUC *usecase.ClosureUseCase
	balanceUC *usecase.BalanceUseCase
	partnerUC *usecase.PartnerUseCase
	reconUC   *usecase.ReconciliationUseCase
}

// newFixture wires all use cases against in-memory mocks with the clock at
// now and one partner with a default account.
func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	f := &fixture{
		partners: mocks.NewMockPartnerRepository(),
		closures: mocks.NewMockClosureRepository(),
		outbox:   mocks.NewMockOutboxRepository(),
		txMgr:    mocks.NewMockTransactionManager(),
		idGen:    mocks.NewMockIDGenerator(),
		clock:    mocks.NewMockClock(now),
		cache:    mocks.NewMockBalanceCache(),
		locker:   mocks.NewMockPartnerLocker(),
		metrics:  mocks.NewMockMetricsRecorder(),
	}
	f.entries = mocks.NewMockEntryRepository(f.partners)
	f.partners.Add(testPartnerID, "Spedition Müller")

	opts := usecase.Options{
		Clock:   f.clock,
		Cache:   f.cache,
		Locker:  f.locker,
		Metrics: f.metrics,
	}

	f.entryUC = usecase.NewEntryUseCase(f.txMgr, f.partners, f.entries, f.closures, f.outbox, f.idGen, opts)
	f.closureUC = usecase.NewClosureUseCase(f.txMgr, f.partners, f.entries, f.closures, f.outbox, f.idGen, opts)
	f.balanceUC = usecase.NewBalanceUseCase(f.txMgr, f.partners, f.entries, f.closures, opts)
	f.partnerUC = usecase.NewPartnerUseCase(f.txMgr, f.partners, f.outbox, f.balanceUC, f.idGen, opts)
	f.reconUC = usecase.NewReconciliationUseCase(f.txMgr, f.partners, f.entries, f.closures, opts)

	return f
}

// at returns 2024-<month>-<day> at the given hour in UTC.
func at(month time.Month, day, hour int) time.Time {
	return time.Date(2024, month, day, hour, 0, 0, 0, time.UTC)
}

func (f *fixture) record(t *testing.T, direction, category, quantity, comment, date string) *domain.Entry {
	t.Helper()

	entry, err := f.entryUC.RecordEntry(context.Background(), usecase.RecordEntryInput{
		PartnerID: testPartnerID,
		Direction: direction,
		Category:  category,
		Quantity:  quantity,
		Comment:   comment,
		Date:      date,
	})
	if err != nil {
		t.Fatalf("RecordEntry(%s %s %s): %v", direction, quantity, category, err)
	}
	return entry
}

func (f *fixture) current(t *testing.T) domain.Quantities {
	t.Helper()

	q, err := f.balanceUC.CurrentBalance(context.Background(), testPartnerID)
	if err != nil {
		t.Fatalf("CurrentBalance: %v", err)
	}
	return q
}

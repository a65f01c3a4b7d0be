package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iho/palletledger/internal/domain"
	"github.com/iho/palletledger/internal/usecase"
)

// MockPartnerRepository is an in-memory implementation of PartnerRepository.
type MockPartnerRepository struct {
	mu       sync.RWMutex
	partners map[string]*domain.Partner

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, partner *domain.Partner) error
	GetByIDFunc          func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Partner, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Partner, error)
	ListFunc             func(ctx context.Context, filter domain.PartnerFilter) ([]*domain.Partner, error)
	DeleteFunc           func(ctx context.Context, tx usecase.Transaction, id string) error
}

func NewMockPartnerRepository() *MockPartnerRepository {
	return &MockPartnerRepository{
		partners: make(map[string]*domain.Partner),
	}
}

// Add stores a partner with one account whose ID is "<id>-acc".
func (m *MockPartnerRepository) Add(id, name string) *domain.Partner {
	p := &domain.Partner{
		ID:       id,
		Name:     name,
		Accounts: []*domain.Account{{ID: id + "-acc", PartnerID: id}},
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.partners[id] = p
	return p
}

func (m *MockPartnerRepository) Create(ctx context.Context, tx usecase.Transaction, partner *domain.Partner) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, partner)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *partner
	stored.Accounts = nil
	m.partners[partner.ID] = &stored
	return nil
}

func (m *MockPartnerRepository) CreateAccount(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.partners[account.PartnerID]
	if !ok {
		return domain.ErrPartnerNotFound
	}
	p.Accounts = append(p.Accounts, account)
	return nil
}

func (m *MockPartnerRepository) GetByID(ctx context.Context, tx usecase.Transaction, id string) (*domain.Partner, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, tx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.partners[id]; ok {
		return p, nil
	}
	return nil, domain.ErrPartnerNotFound
}

func (m *MockPartnerRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Partner, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, tx, id)
}

func (m *MockPartnerRepository) List(ctx context.Context, filter domain.PartnerFilter) ([]*domain.Partner, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	query := strings.ToLower(filter.Query)
	var partners []*domain.Partner
	for _, p := range m.partners {
		if strings.Contains(strings.ToLower(p.Name), query) {
			partners = append(partners, p)
		}
	}
	sort.Slice(partners, func(i, j int) bool { return partners[i].Name < partners[j].Name })
	if filter.Offset >= len(partners) {
		return []*domain.Partner{}, nil
	}
	partners = partners[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(partners) {
		partners = partners[:filter.Limit]
	}
	return partners, nil
}

func (m *MockPartnerRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.partners[id]; !ok {
		return domain.ErrPartnerNotFound
	}
	delete(m.partners, id)
	return nil
}

// accountIDs returns the partner's account ids as a set.
func (m *MockPartnerRepository) accountIDs(partnerID string) map[string]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make(map[string]bool)
	if p, ok := m.partners[partnerID]; ok {
		for _, a := range p.Accounts {
			ids[a.ID] = true
		}
	}
	return ids
}

// MockEntryRepository is an in-memory implementation of EntryRepository.
// It resolves a partner's accounts through the partner repository.
type MockEntryRepository struct {
	mu        sync.RWMutex
	partners  *MockPartnerRepository
	entries   []*domain.Entry
	sequences map[string]int64

	CreateFunc        func(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error
	ListByPartnerFunc func(ctx context.Context, tx usecase.Transaction, partnerID string) ([]*domain.Entry, error)
}

func NewMockEntryRepository(partners *MockPartnerRepository) *MockEntryRepository {
	return &MockEntryRepository{
		partners:  partners,
		sequences: make(map[string]int64),
	}
}

// Entries returns a copy of all stored entries in insertion order.
func (m *MockEntryRepository) Entries() []*domain.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.Entry(nil), m.entries...)
}

func (m *MockEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *entry
	m.entries = append(m.entries, &stored)
	return nil
}

func (m *MockEntryRepository) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, domain.ErrEntryNotFound
}

func (m *MockEntryRepository) ListByPartner(ctx context.Context, tx usecase.Transaction, partnerID string) ([]*domain.Entry, error) {
	if m.ListByPartnerFunc != nil {
		return m.ListByPartnerFunc(ctx, tx, partnerID)
	}
	return m.byPartner(partnerID), nil
}

func (m *MockEntryRepository) byPartner(partnerID string) []*domain.Entry {
	accounts := m.partners.accountIDs(partnerID)
	m.mu.RLock()
	defer m.mu.RUnlock()
	var entries []*domain.Entry
	for _, e := range m.entries {
		if accounts[e.AccountID] {
			entries = append(entries, e)
		}
	}
	return entries
}

func (m *MockEntryRepository) FindOriginal(ctx context.Context, tx usecase.Transaction, partnerID, belegnummer string) (*domain.Entry, error) {
	var original *domain.Entry
	for _, e := range m.byPartner(partnerID) {
		if e.Belegnummer != belegnummer || !e.IsOriginal() {
			continue
		}
		if original == nil || e.KontoSeq > original.KontoSeq ||
			(e.KontoSeq == original.KontoSeq && e.ID > original.ID) {
			original = e
		}
	}
	if original == nil {
		return nil, domain.ErrOriginalEntryNotFound
	}
	return original, nil
}

func (m *MockEntryRepository) MaxKontoSeq(ctx context.Context, tx usecase.Transaction, partnerID, belegnummer string) (int32, bool, error) {
	var (
		highest int32
		found   bool
	)
	for _, e := range m.byPartner(partnerID) {
		if e.Belegnummer != belegnummer {
			continue
		}
		if !found || e.KontoSeq > highest {
			highest = e.KontoSeq
		}
		found = true
	}
	return highest, found, nil
}

// NextBelegnummerSequence mirrors the database upsert: one more than the
// larger of the last reservation and the stored entries with the prefix.
func (m *MockEntryRepository) NextBelegnummerSequence(ctx context.Context, tx usecase.Transaction, prefix string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stored int64
	for _, e := range m.entries {
		if strings.HasPrefix(e.Belegnummer, prefix) {
			stored++
		}
	}

	seq := max(m.sequences[prefix], stored) + 1
	m.sequences[prefix] = seq
	return seq, nil
}

// MockClosureRepository is an in-memory implementation of ClosureRepository.
type MockClosureRepository struct {
	mu       sync.RWMutex
	closures []*domain.Closure

	CreateFunc    func(ctx context.Context, tx usecase.Transaction, closure *domain.Closure) error
	GetLatestFunc func(ctx context.Context, tx usecase.Transaction, partnerID string) (*domain.Closure, error)
}

func NewMockClosureRepository() *MockClosureRepository {
	return &MockClosureRepository{}
}

func (m *MockClosureRepository) Create(ctx context.Context, tx usecase.Transaction, closure *domain.Closure) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, closure)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.closures {
		if c.PartnerID == closure.PartnerID && c.Year == closure.Year && c.Month == closure.Month {
			return domain.ErrDuplicateClosure
		}
	}
	stored := *closure
	m.closures = append(m.closures, &stored)
	return nil
}

func (m *MockClosureRepository) GetByPeriod(ctx context.Context, tx usecase.Transaction, partnerID string, year, month int) (*domain.Closure, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.closures {
		if c.PartnerID == partnerID && c.Year == year && c.Month == month {
			return c, nil
		}
	}
	return nil, domain.ErrClosureNotFound
}

func (m *MockClosureRepository) GetLastBefore(ctx context.Context, tx usecase.Transaction, partnerID string, before time.Time) (*domain.Closure, error) {
	var last *domain.Closure
	for _, c := range m.sorted(partnerID) {
		if c.PeriodEnd.Before(before) {
			last = c
		}
	}
	return last, nil
}

func (m *MockClosureRepository) GetLatest(ctx context.Context, tx usecase.Transaction, partnerID string) (*domain.Closure, error) {
	if m.GetLatestFunc != nil {
		return m.GetLatestFunc(ctx, tx, partnerID)
	}
	closures := m.sorted(partnerID)
	if len(closures) == 0 {
		return nil, nil
	}
	return closures[len(closures)-1], nil
}

func (m *MockClosureRepository) ListByPartner(ctx context.Context, tx usecase.Transaction, partnerID string) ([]*domain.Closure, error) {
	return m.sorted(partnerID), nil
}

func (m *MockClosureRepository) sorted(partnerID string) []*domain.Closure {
	m.mu.RLock()
	defer m.mu.RUnlock()
	closures := make([]*domain.Closure, 0)
	for _, c := range m.closures {
		if c.PartnerID == partnerID {
			closures = append(closures, c)
		}
	}
	sort.Slice(closures, func(i, j int) bool { return closures[i].PeriodEnd.Before(closures[j].PeriodEnd) })
	return closures
}

// MockOutboxRepository is an in-memory implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

// Events returns the stored events in insertion order.
func (m *MockOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.OutboxEvent(nil), m.events...)
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var events []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published && (limit <= 0 || len(events) < limit) {
			events = append(events, e)
		}
	}
	return events, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			at := publishedAt
			e.PublishedAt = &at
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	kept := m.events[:0]
	for _, e := range m.events {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	m.events = kept
	return deleted, nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	mu        sync.Mutex
	Snapshots int
	Writes    int

	BeginFunc         func(ctx context.Context) (usecase.Transaction, error)
	BeginSnapshotFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.mu.Lock()
	m.Writes++
	m.mu.Unlock()
	return &MockTransaction{}, nil
}

func (m *MockTransactionManager) BeginSnapshot(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginSnapshotFunc != nil {
		return m.BeginSnapshotFunc(ctx)
	}
	m.mu.Lock()
	m.Snapshots++
	m.mu.Unlock()
	return &MockTransaction{}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%03d", m.counter)
}

// MockClock is a settable Clock.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewMockClock(now time.Time) *MockClock {
	return &MockClock{now: now}
}

func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *MockClock) Set(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Advance moves the clock forward by d.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// MockBalanceCache is an in-memory implementation of BalanceCache.
type MockBalanceCache struct {
	mu          sync.Mutex
	generations map[string]int64
	balances    map[string]*domain.Balance
	Hits        int
	Sets        int

	GenerationFunc func(ctx context.Context, partnerID string) (int64, error)
	InvalidateFunc func(ctx context.Context, partnerID string) error
}

func NewMockBalanceCache() *MockBalanceCache {
	return &MockBalanceCache{
		generations: make(map[string]int64),
		balances:    make(map[string]*domain.Balance),
	}
}

func balanceKey(partnerID string, generation int64, start, end time.Time) string {
	return fmt.Sprintf("%s/%d/%d/%d", partnerID, generation, start.UnixNano(), end.UnixNano())
}

func (m *MockBalanceCache) Generation(ctx context.Context, partnerID string) (int64, error) {
	if m.GenerationFunc != nil {
		return m.GenerationFunc(ctx, partnerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generations[partnerID], nil
}

func (m *MockBalanceCache) Get(ctx context.Context, partnerID string, generation int64, start, end time.Time) (*domain.Balance, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[balanceKey(partnerID, generation, start, end)]
	if ok {
		m.Hits++
	}
	return b, ok, nil
}

func (m *MockBalanceCache) Set(ctx context.Context, partnerID string, generation int64, start, end time.Time, balance *domain.Balance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sets++
	m.balances[balanceKey(partnerID, generation, start, end)] = balance
	return nil
}

func (m *MockBalanceCache) Invalidate(ctx context.Context, partnerID string) error {
	if m.InvalidateFunc != nil {
		return m.InvalidateFunc(ctx, partnerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generations[partnerID]++
	return nil
}

// MockPartnerLocker records which partners were locked.
type MockPartnerLocker struct {
	mu     sync.Mutex
	Locked []string

	WithPartnerLockFunc func(ctx context.Context, partnerID string, fn func(ctx context.Context) error) error
}

func NewMockPartnerLocker() *MockPartnerLocker {
	return &MockPartnerLocker{}
}

func (m *MockPartnerLocker) WithPartnerLock(ctx context.Context, partnerID string, fn func(ctx context.Context) error) error {
	if m.WithPartnerLockFunc != nil {
		return m.WithPartnerLockFunc(ctx, partnerID, fn)
	}
	m.mu.Lock()
	m.Locked = append(m.Locked, partnerID)
	m.mu.Unlock()
	return fn(ctx)
}

// MockMetricsRecorder counts recorded business events.
type MockMetricsRecorder struct {
	mu               sync.Mutex
	Entries          map[domain.Direction]int
	Closures         int
	Duplicates       int
	LockRejections   map[string]int
	BalanceCacheHits int
	BalanceComputes  int
	PartnersCreated  int
	PartnersDeleted  int
}

func NewMockMetricsRecorder() *MockMetricsRecorder {
	return &MockMetricsRecorder{
		Entries:        make(map[domain.Direction]int),
		LockRejections: make(map[string]int),
	}
}

func (m *MockMetricsRecorder) EntryRecorded(direction domain.Direction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries[direction]++
}

func (m *MockMetricsRecorder) ClosureCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closures++
}

func (m *MockMetricsRecorder) DuplicateClosure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Duplicates++
}

func (m *MockMetricsRecorder) ClosureLockRejected(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LockRejections[path]++
}

func (m *MockMetricsRecorder) BalanceComputed(duration time.Duration, cacheHit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BalanceComputes++
	if cacheHit {
		m.BalanceCacheHits++
	}
}

func (m *MockMetricsRecorder) PartnerCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PartnersCreated++
}

func (m *MockMetricsRecorder) PartnerDeleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PartnersDeleted++
}

var (
	_ usecase.PartnerRepository  = (*MockPartnerRepository)(nil)
	_ usecase.EntryRepository    = (*MockEntryRepository)(nil)
	_ usecase.ClosureRepository  = (*MockClosureRepository)(nil)
	_ usecase.OutboxRepository   = (*MockOutboxRepository)(nil)
	_ usecase.TransactionManager = (*MockTransactionManager)(nil)
	_ usecase.IDGenerator        = (*MockIDGenerator)(nil)
	_ usecase.Clock              = (*MockClock)(nil)
	_ usecase.BalanceCache       = (*MockBalanceCache)(nil)
	_ usecase.PartnerLocker      = (*MockPartnerLocker)(nil)
	_ usecase.MetricsRecorder    = (*MockMetricsRecorder)(nil)
)

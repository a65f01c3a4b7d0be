package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iho/palletledger/internal/domain"
)

const (
	lockPathEntry      = "entry"
	lockPathCorrection = "correction"
)

// EntryUseCase records entries and corrections on partner accounts.
type EntryUseCase struct {
	txManager   TransactionManager
	partnerRepo PartnerRepository
	entryRepo   EntryRepository
	closureRepo ClosureRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	opts        Options
}

// NewEntryUseCase creates a new EntryUseCase.
func NewEntryUseCase(
	txManager TransactionManager,
	partnerRepo PartnerRepository,
	entryRepo EntryRepository,
	closureRepo ClosureRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	opts Options,
) *EntryUseCase {
	return &EntryUseCase{
		txManager:   txManager,
		partnerRepo: partnerRepo,
		entryRepo:   entryRepo,
		closureRepo: closureRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		opts:        opts.withDefaults(),
	}
}

// RecordEntryInput represents input for a standard entry. Fields carry the
// raw user input and are parsed by RecordEntry.
type RecordEntryInput struct {
	PartnerID string
	Direction string
	Category  string
	Quantity  string
	Comment   string
	// Date is YYYY-MM-DD; empty means today.
	Date string
}

// RecordCorrectionInput represents input for a correction of an earlier entry.
type RecordCorrectionInput struct {
	PartnerID   string
	Belegnummer string
	Category    string
	Quantity    string
	Comment     string
	Date        string
}

// RecordEntry records an inbound or outbound movement.
func (uc *EntryUseCase) RecordEntry(ctx context.Context, input RecordEntryInput) (*domain.Entry, error) {
	// Validate inputs before starting transaction
	direction, err := domain.ParseEntryDirection(input.Direction)
	if err != nil {
		return nil, err
	}

	category, err := domain.ParseCategory(input.Category)
	if err != nil {
		return nil, err
	}

	quantity, err := domain.ParseQuantity(input.Quantity)
	if err != nil {
		return nil, err
	}

	comment := strings.TrimSpace(input.Comment)
	if direction == domain.DirectionOutbound && !domain.HasReferenceNumber(comment) {
		return nil, domain.ErrMissingReferenceNumber
	}

	now := uc.opts.Clock.Now()
	date, err := domain.ParseBookingDate(input.Date, now)
	if err != nil {
		return nil, err
	}

	entry := &domain.Entry{
		Datum:      domain.EffectiveTimestamp(date, now),
		Direction:  direction,
		Quantities: domain.QuantityOf(category, quantity),
		Comment:    comment,
		KontoSeq:   0,
		RecordedBy: actorFromContext(ctx, uc.opts.DefaultActor),
		CreatedAt:  now.UTC(),
	}

	err = withPartnerLock(ctx, uc.opts.Locker, input.PartnerID, func(ctx context.Context) error {
		return uc.recordEntryTx(ctx, input.PartnerID, entry, now)
	})
	if err != nil {
		return nil, err
	}

	invalidateBalances(ctx, uc.opts, input.PartnerID)
	uc.opts.Metrics.EntryRecorded(direction)

	uc.opts.Logger.Info().
		Str("partner_id", input.PartnerID).
		Str("belegnummer", entry.Belegnummer).
		Str("richtung", string(entry.Direction)).
		Msg("entry recorded")

	return entry, nil
}

func (uc *EntryUseCase) recordEntryTx(ctx context.Context, partnerID string, entry *domain.Entry, now time.Time) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	partner, err := uc.partnerRepo.GetByIDForUpdate(txCtx, tx, partnerID)
	if err != nil {
		return err
	}

	account, err := partner.DefaultAccount()
	if err != nil {
		return err
	}

	latest, err := uc.closureRepo.GetLatest(txCtx, tx, partnerID)
	if err != nil {
		return err
	}
	if latest != nil && latest.Locks(entry.Datum) {
		uc.opts.Metrics.ClosureLockRejected(lockPathEntry)
		return fmt.Errorf("%w: %04d-%02d is closed", domain.ErrClosureLocked, latest.Year, latest.Month)
	}

	prefix := domain.BelegnummerPrefix(now)
	seq, err := uc.entryRepo.NextBelegnummerSequence(txCtx, tx, prefix)
	if err != nil {
		return err
	}

	entry.ID = uc.idGen.Generate()
	entry.AccountID = account.ID
	entry.Belegnummer = domain.FormatBelegnummer(now, seq)

	if err := uc.entryRepo.Create(txCtx, tx, entry); err != nil {
		return err
	}

	event := newOutboxEvent(uc.idGen, domain.AggregateTypeEntry, entry.ID,
		domain.EventTypeEntryRecorded, domain.EntryPayload(partnerID, entry), now)
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

// RecordCorrection books a correction against the original entry carrying the
// given belegnummer. The stored quantity reverses the original's direction.
func (uc *EntryUseCase) RecordCorrection(ctx context.Context, input RecordCorrectionInput) (*domain.Entry, error) {
	belegnummer := strings.TrimSpace(input.Belegnummer)
	if belegnummer == "" {
		return nil, domain.ErrMissingBelegnummer
	}

	comment := strings.TrimSpace(input.Comment)
	if comment == "" {
		return nil, domain.ErrMissingComment
	}

	category, err := domain.ParseCategory(input.Category)
	if err != nil {
		return nil, err
	}

	quantity, err := domain.ParseQuantity(input.Quantity)
	if err != nil {
		return nil, err
	}

	now := uc.opts.Clock.Now()
	date, err := domain.ParseBookingDate(input.Date, now)
	if err != nil {
		return nil, err
	}

	entry := &domain.Entry{
		Belegnummer: belegnummer,
		Datum:       domain.EffectiveTimestamp(date, now),
		Direction:   domain.DirectionCorrection,
		Comment:     comment,
		RecordedBy:  actorFromContext(ctx, uc.opts.DefaultActor),
		CreatedAt:   now.UTC(),
	}

	err = withPartnerLock(ctx, uc.opts.Locker, input.PartnerID, func(ctx context.Context) error {
		return uc.recordCorrectionTx(ctx, input.PartnerID, entry, category, quantity, now)
	})
	if err != nil {
		return nil, err
	}

	invalidateBalances(ctx, uc.opts, input.PartnerID)
	uc.opts.Metrics.EntryRecorded(domain.DirectionCorrection)

	uc.opts.Logger.Info().
		Str("partner_id", input.PartnerID).
		Str("belegnummer", entry.Belegnummer).
		Int32("konto_seq", entry.KontoSeq).
		Msg("correction recorded")

	return entry, nil
}

func (uc *EntryUseCase) recordCorrectionTx(
	ctx context.Context,
	partnerID string,
	entry *domain.Entry,
	category domain.Category,
	quantity int64,
	now time.Time,
) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	partner, err := uc.partnerRepo.GetByIDForUpdate(txCtx, tx, partnerID)
	if err != nil {
		return err
	}

	account, err := partner.DefaultAccount()
	if err != nil {
		return err
	}

	original, err := uc.entryRepo.FindOriginal(txCtx, tx, partnerID, entry.Belegnummer)
	if err != nil {
		return err
	}

	// The original's date decides, not the correction's.
	latest, err := uc.closureRepo.GetLatest(txCtx, tx, partnerID)
	if err != nil {
		return err
	}
	if latest != nil && latest.Locks(original.Datum) {
		uc.opts.Metrics.ClosureLockRejected(lockPathCorrection)
		return fmt.Errorf("%w: original entry %s falls into closed month %04d-%02d",
			domain.ErrClosureLocked, original.Belegnummer, latest.Year, latest.Month)
	}

	if original.Direction == domain.DirectionInbound {
		quantity = -quantity
	}

	maxSeq, found, err := uc.entryRepo.MaxKontoSeq(txCtx, tx, partnerID, entry.Belegnummer)
	if err != nil {
		return err
	}
	entry.KontoSeq = 1
	if found {
		entry.KontoSeq = maxSeq + 1
	}

	entry.ID = uc.idGen.Generate()
	entry.AccountID = account.ID
	entry.Quantities = domain.QuantityOf(category, quantity)

	if err := uc.entryRepo.Create(txCtx, tx, entry); err != nil {
		return err
	}

	payload := domain.EntryPayload(partnerID, entry)
	payload["original_entry_id"] = original.ID
	event := newOutboxEvent(uc.idGen, domain.AggregateTypeEntry, entry.ID,
		domain.EventTypeEntryCorrected, payload, now)
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

// GetEntry retrieves an entry by ID.
func (uc *EntryUseCase) GetEntry(ctx context.Context, id string) (*domain.Entry, error) {
	return uc.entryRepo.GetByID(ctx, id)
}

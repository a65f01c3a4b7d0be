package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iho/palletledger/internal/domain"
)

// ClosureUseCase handles month closures.
type ClosureUseCase struct {
	txManager   TransactionManager
	partnerRepo PartnerRepository
	entryRepo   EntryRepository
	closureRepo ClosureRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	opts        Options
}

// NewClosureUseCase creates a new ClosureUseCase.
func NewClosureUseCase(
	txManager TransactionManager,
	partnerRepo PartnerRepository,
	entryRepo EntryRepository,
	closureRepo ClosureRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	opts Options,
) *ClosureUseCase {
	return &ClosureUseCase{
		txManager:   txManager,
		partnerRepo: partnerRepo,
		entryRepo:   entryRepo,
		closureRepo: closureRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		opts:        opts.withDefaults(),
	}
}

// CloseMonthInput represents input for closing a month.
type CloseMonthInput struct {
	PartnerID string
	Year      int
	Month     int
}

// CloseMonth freezes the partner's cumulative balance at the end of the
// given month. A second closure of the same month fails with
// domain.ErrDuplicateClosure and changes nothing.
func (uc *ClosureUseCase) CloseMonth(ctx context.Context, input CloseMonthInput) (*domain.Closure, error) {
	if err := domain.ValidateMonth(input.Year, input.Month); err != nil {
		return nil, err
	}

	now := uc.opts.Clock.Now()
	closure := &domain.Closure{
		PartnerID: input.PartnerID,
		Year:      input.Year,
		Month:     input.Month,
		PeriodEnd: domain.MonthEnd(input.Year, input.Month, now.Location()),
		CreatedAt: now.UTC(),
	}

	err := withPartnerLock(ctx, uc.opts.Locker, input.PartnerID, func(ctx context.Context) error {
		return uc.closeMonthTx(ctx, closure, now)
	})
	if errors.Is(err, domain.ErrDuplicateClosure) {
		uc.opts.Metrics.DuplicateClosure()
	}
	if err != nil {
		return nil, err
	}

	invalidateBalances(ctx, uc.opts, input.PartnerID)
	uc.opts.Metrics.ClosureCreated()

	uc.opts.Logger.Info().
		Str("partner_id", closure.PartnerID).
		Int("year", closure.Year).
		Int("month", closure.Month).
		Msg("month closed")

	return closure, nil
}

func (uc *ClosureUseCase) closeMonthTx(ctx context.Context, closure *domain.Closure, now time.Time) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if _, err := uc.partnerRepo.GetByIDForUpdate(txCtx, tx, closure.PartnerID); err != nil {
		return err
	}

	existing, err := uc.closureRepo.GetByPeriod(txCtx, tx, closure.PartnerID, closure.Year, closure.Month)
	if err != nil && !errors.Is(err, domain.ErrClosureNotFound) {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: %04d-%02d", domain.ErrDuplicateClosure, closure.Year, closure.Month)
	}

	// Cumulative over the whole history, so no closure seeds the fold.
	entries, err := uc.entryRepo.ListByPartner(txCtx, tx, closure.PartnerID)
	if err != nil {
		return err
	}

	balance, err := domain.ComputeBalance(closure.PartnerID, entries, nil, domain.MinTime, closure.PeriodEnd)
	if err != nil {
		return err
	}

	closure.ID = uc.idGen.Generate()
	closure.Balance = balance.SaldoEnd

	if err := uc.closureRepo.Create(txCtx, tx, closure); err != nil {
		return err
	}

	event := newOutboxEvent(uc.idGen, domain.AggregateTypeClosure, closure.ID,
		domain.EventTypeClosureCreated, domain.ClosurePayload(closure), now)
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

// GetLastClosureBefore returns the most recent closure with a period end
// strictly before ts, or nil when there is none.
func (uc *ClosureUseCase) GetLastClosureBefore(ctx context.Context, partnerID string, ts time.Time) (*domain.Closure, error) {
	if _, err := uc.partnerRepo.GetByID(ctx, nil, partnerID); err != nil {
		return nil, err
	}
	return uc.closureRepo.GetLastBefore(ctx, nil, partnerID, ts)
}

// ListClosures returns the partner's closures ordered by period end.
func (uc *ClosureUseCase) ListClosures(ctx context.Context, partnerID string) ([]*domain.Closure, error) {
	if _, err := uc.partnerRepo.GetByID(ctx, nil, partnerID); err != nil {
		return nil, err
	}
	return uc.closureRepo.ListByPartner(ctx, nil, partnerID)
}

// MonthStatus reports whether a month is closed and whether it may be closed.
func (uc *ClosureUseCase) MonthStatus(ctx context.Context, partnerID string, year, month int) (*domain.MonthStatus, error) {
	if err := domain.ValidateMonth(year, month); err != nil {
		return nil, err
	}

	if _, err := uc.partnerRepo.GetByID(ctx, nil, partnerID); err != nil {
		return nil, err
	}

	closure, err := uc.closureRepo.GetByPeriod(ctx, nil, partnerID, year, month)
	if err != nil && !errors.Is(err, domain.ErrClosureNotFound) {
		return nil, err
	}

	now := uc.opts.Clock.Now()
	periodEnd := domain.MonthEnd(year, month, now.Location())
	currentMonth := domain.MonthStart(now.Year(), int(now.Month()), now.Location())

	return &domain.MonthStatus{
		Year:      year,
		Month:     month,
		PeriodEnd: periodEnd,
		Closure:   closure,
		Elapsed:   periodEnd.Before(currentMonth),
	}, nil
}

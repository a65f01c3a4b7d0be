package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/palletledger/internal/domain"
)

// ReconciliationUseCase checks stored closures against the entries they
// were computed from.
type ReconciliationUseCase struct {
	txManager   TransactionManager
	partnerRepo PartnerRepository
	entryRepo   EntryRepository
	closureRepo ClosureRepository
	opts        Options
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	txManager TransactionManager,
	partnerRepo PartnerRepository,
	entryRepo EntryRepository,
	closureRepo ClosureRepository,
	opts Options,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		txManager:   txManager,
		partnerRepo: partnerRepo,
		entryRepo:   entryRepo,
		closureRepo: closureRepo,
		opts:        opts.withDefaults(),
	}
}

// ClosureCheck is the result of recomputing one closure.
type ClosureCheck struct {
	Closure    *domain.Closure
	Calculated domain.Quantities
	// Difference is Calculated minus the stored balance.
	Difference   domain.Quantities
	IsReconciled bool
}

// ReconciliationReport summarizes the closures of one partner.
type ReconciliationReport struct {
	PartnerID          string
	TotalClosures      int
	ReconciledClosures int
	Discrepancies      []*ClosureCheck
	CheckedAt          time.Time
}

// ReconcileClosures recomputes every closure of the partner from the full
// entry history and reports those whose stored balance differs. A mismatch
// means entries were written behind a closure, e.g. by direct database access.
func (uc *ReconciliationUseCase) ReconcileClosures(ctx context.Context, partnerID string) (*ReconciliationReport, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.BeginSnapshot(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if _, err := uc.partnerRepo.GetByID(txCtx, tx, partnerID); err != nil {
		return nil, err
	}

	closures, err := uc.closureRepo.ListByPartner(txCtx, tx, partnerID)
	if err != nil {
		return nil, err
	}

	entries, err := uc.entryRepo.ListByPartner(txCtx, tx, partnerID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		PartnerID:     partnerID,
		TotalClosures: len(closures),
		Discrepancies: make([]*ClosureCheck, 0),
		CheckedAt:     uc.opts.Clock.Now().UTC(),
	}

	for _, c := range closures {
		check, err := reconcileClosure(partnerID, entries, c)
		if err != nil {
			return nil, fmt.Errorf("failed to reconcile closure %04d-%02d: %w", c.Year, c.Month, err)
		}

		if check.IsReconciled {
			report.ReconciledClosures++
			continue
		}

		report.Discrepancies = append(report.Discrepancies, check)
		uc.opts.Logger.Warn().
			Str("partner_id", partnerID).
			Int("year", c.Year).
			Int("month", c.Month).
			Interface("difference", check.Difference).
			Msg("closure does not match entries")
	}

	return report, nil
}

func reconcileClosure(partnerID string, entries []*domain.Entry, c *domain.Closure) (*ClosureCheck, error) {
	balance, err := domain.ComputeBalance(partnerID, entries, nil, domain.MinTime, c.PeriodEnd)
	if err != nil {
		return nil, err
	}

	diff := balance.SaldoEnd.Add(c.Balance.Scale(-1))

	return &ClosureCheck{
		Closure:      c,
		Calculated:   balance.SaldoEnd,
		Difference:   diff,
		IsReconciled: diff.IsZero(),
	}, nil
}

package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/palletledger/internal/domain"
)

// BalanceUseCase computes partner balances.
type BalanceUseCase struct {
	txManager   TransactionManager
	partnerRepo PartnerRepository
	entryRepo   EntryRepository
	closureRepo ClosureRepository
	opts        Options
}

// NewBalanceUseCase creates a new BalanceUseCase.
func NewBalanceUseCase(
	txManager TransactionManager,
	partnerRepo PartnerRepository,
	entryRepo EntryRepository,
	closureRepo ClosureRepository,
	opts Options,
) *BalanceUseCase {
	return &BalanceUseCase{
		txManager:   txManager,
		partnerRepo: partnerRepo,
		entryRepo:   entryRepo,
		closureRepo: closureRepo,
		opts:        opts.withDefaults(),
	}
}

// ComputeBalance returns the balance of a partner for [start, end].
func (uc *BalanceUseCase) ComputeBalance(ctx context.Context, partnerID string, start, end time.Time) (*domain.Balance, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end before start", domain.ErrInvalidPeriod)
	}

	began := time.Now()

	generation, cached := uc.cached(ctx, partnerID, start, end)
	if cached != nil {
		uc.opts.Metrics.BalanceComputed(time.Since(began), true)
		return cached, nil
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.BeginSnapshot(txCtx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(txCtx)

	if _, err := uc.partnerRepo.GetByID(txCtx, tx, partnerID); err != nil {
		return nil, err
	}

	balance, err := computeBalanceTx(txCtx, tx, uc.entryRepo, uc.closureRepo, uc.opts.Logger, partnerID, start, end)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.opts.Cache != nil && generation >= 0 {
		if err := uc.opts.Cache.Set(ctx, partnerID, generation, start, end, balance); err != nil {
			uc.opts.Logger.Warn().Err(err).Str("partner_id", partnerID).Msg("failed to cache balance")
		}
	}

	uc.opts.Metrics.BalanceComputed(time.Since(began), false)

	return balance, nil
}

// CurrentBalance returns the partner's balance over its whole history,
// including entries dated in the future.
func (uc *BalanceUseCase) CurrentBalance(ctx context.Context, partnerID string) (domain.Quantities, error) {
	b, err := uc.ComputeBalance(ctx, partnerID, domain.MinTime, domain.MaxTime)
	if err != nil {
		return domain.Quantities{}, err
	}
	return b.SaldoEnd, nil
}

// cached returns the cache generation to store under and a cached balance if
// one exists. A generation of -1 disables storing.
func (uc *BalanceUseCase) cached(ctx context.Context, partnerID string, start, end time.Time) (int64, *domain.Balance) {
	if uc.opts.Cache == nil {
		return -1, nil
	}

	generation, err := uc.opts.Cache.Generation(ctx, partnerID)
	if err != nil {
		uc.opts.Logger.Warn().Err(err).Str("partner_id", partnerID).Msg("balance cache unavailable")
		return -1, nil
	}

	balance, ok, err := uc.opts.Cache.Get(ctx, partnerID, generation, start, end)
	if err != nil {
		uc.opts.Logger.Warn().Err(err).Str("partner_id", partnerID).Msg("failed to read balance cache")
		return generation, nil
	}
	if !ok {
		return generation, nil
	}
	return generation, balance
}

// computeBalanceTx loads the base closure and the partner's entries inside tx
// and folds them.
func computeBalanceTx(
	ctx context.Context,
	tx Transaction,
	entryRepo EntryRepository,
	closureRepo ClosureRepository,
	logger *zerolog.Logger,
	partnerID string,
	start, end time.Time,
) (*domain.Balance, error) {
	base, err := closureRepo.GetLastBefore(ctx, tx, partnerID, start)
	if err != nil {
		return nil, err
	}

	entries, err := entryRepo.ListByPartner(ctx, tx, partnerID)
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if !e.Direction.IsValid() {
			logger.Warn().
				Str("partner_id", partnerID).
				Str("entry_id", e.ID).
				Str("richtung", string(e.Direction)).
				Msg("entry with unknown direction counted as inbound")
		}
	}

	return domain.ComputeBalance(partnerID, entries, base, start, end)
}

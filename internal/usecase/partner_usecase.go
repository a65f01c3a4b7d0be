package usecase

import (
	"context"
	"fmt"

	"github.com/iho/palletledger/internal/domain"
)

// PartnerUseCase handles partner business logic.
type PartnerUseCase struct {
	txManager   TransactionManager
	partnerRepo PartnerRepository
	outboxRepo  OutboxRepository
	balances    *BalanceUseCase
	idGen       IDGenerator
	opts        Options
}

// NewPartnerUseCase creates a new PartnerUseCase.
func NewPartnerUseCase(
	txManager TransactionManager,
	partnerRepo PartnerRepository,
	outboxRepo OutboxRepository,
	balances *BalanceUseCase,
	idGen IDGenerator,
	opts Options,
) *PartnerUseCase {
	return &PartnerUseCase{
		txManager:   txManager,
		partnerRepo: partnerRepo,
		outboxRepo:  outboxRepo,
		balances:    balances,
		idGen:       idGen,
		opts:        opts.withDefaults(),
	}
}

// ListPartnersInput represents input for the partner overview.
type ListPartnersInput struct {
	Query  string
	Limit  int
	Offset int
}

// CreatePartner creates a partner together with its default account.
func (uc *PartnerUseCase) CreatePartner(ctx context.Context, name string) (*domain.Partner, error) {
	name, err := domain.NormalizePartnerName(name)
	if err != nil {
		return nil, err
	}

	now := uc.opts.Clock.Now().UTC()
	partner := &domain.Partner{
		ID:        uc.idGen.Generate(),
		Name:      name,
		CreatedAt: now,
	}
	account := &domain.Account{
		ID:        uc.idGen.Generate(),
		PartnerID: partner.ID,
		CreatedAt: now,
	}
	partner.Accounts = []*domain.Account{account}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.partnerRepo.Create(txCtx, tx, partner); err != nil {
		return nil, err
	}

	if err := uc.partnerRepo.CreateAccount(txCtx, tx, account); err != nil {
		return nil, err
	}

	event := newOutboxEvent(uc.idGen, domain.AggregateTypePartner, partner.ID,
		domain.EventTypePartnerCreated, domain.PartnerCreatedPayload(partner), now)
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.opts.Metrics.PartnerCreated()

	return partner, nil
}

// GetPartner retrieves a partner with its accounts.
func (uc *PartnerUseCase) GetPartner(ctx context.Context, id string) (*domain.Partner, error) {
	return uc.partnerRepo.GetByID(ctx, nil, id)
}

// ListPartners returns the overview rows ordered by name, each with the
// partner's current balance.
func (uc *PartnerUseCase) ListPartners(ctx context.Context, input ListPartnersInput) ([]*domain.PartnerSummary, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	partners, err := uc.partnerRepo.List(ctx, domain.PartnerFilter{
		Query:  input.Query,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]*domain.PartnerSummary, 0, len(partners))
	for _, p := range partners {
		balance, err := uc.balances.CurrentBalance(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("balance of partner %s: %w", p.ID, err)
		}
		summaries = append(summaries, &domain.PartnerSummary{Partner: p, Balance: balance})
	}

	return summaries, nil
}

// DeletePartner removes a partner with its accounts, entries and closures.
func (uc *PartnerUseCase) DeletePartner(ctx context.Context, id string) error {
	err := withPartnerLock(ctx, uc.opts.Locker, id, func(ctx context.Context) error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		partner, err := uc.partnerRepo.GetByIDForUpdate(txCtx, tx, id)
		if err != nil {
			return err
		}

		if err := uc.partnerRepo.Delete(txCtx, tx, id); err != nil {
			return err
		}

		event := newOutboxEvent(uc.idGen, domain.AggregateTypePartner, partner.ID,
			domain.EventTypePartnerDeleted, domain.PartnerDeletedPayload(partner), uc.opts.Clock.Now())
		if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	})
	if err != nil {
		return err
	}

	invalidateBalances(ctx, uc.opts, id)
	uc.opts.Metrics.PartnerDeleted()

	uc.opts.Logger.Info().Str("partner_id", id).Msg("partner deleted")

	return nil
}

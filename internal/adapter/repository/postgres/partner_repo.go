package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/palletledger/internal/domain"
	"github.com/iho/palletledger/internal/infrastructure/postgres/generated"
	"github.com/iho/palletledger/internal/usecase"
)

// PartnerRepository implements usecase.PartnerRepository.
type PartnerRepository struct {
	db generated.DBTX
}

// NewPartnerRepository creates a new PartnerRepository.
func NewPartnerRepository(pool *pgxpool.Pool) *PartnerRepository {
	return newPartnerRepositoryWithDB(pool)
}

func newPartnerRepositoryWithDB(db generated.DBTX) *PartnerRepository {
	return &PartnerRepository{db: db}
}

// Create inserts the partner row. Accounts are created separately.
func (r *PartnerRepository) Create(ctx context.Context, tx usecase.Transaction, partner *domain.Partner) error {
	_, err := queriesFor(r.db, tx).CreatePartner(ctx, generated.CreatePartnerParams{
		ID:        partner.ID,
		Name:      partner.Name,
		CreatedAt: timeToPgTimestamptz(partner.CreatedAt),
	})

	return err
}

// CreateAccount creates an account for an existing partner.
func (r *PartnerRepository) CreateAccount(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	_, err := queriesFor(r.db, tx).CreateAccount(ctx, generated.CreateAccountParams{
		ID:        account.ID,
		PartnerID: account.PartnerID,
		CreatedAt: timeToPgTimestamptz(account.CreatedAt),
	})

	return err
}

// GetByID retrieves a partner with its accounts.
func (r *PartnerRepository) GetByID(ctx context.Context, tx usecase.Transaction, id string) (*domain.Partner, error) {
	q := queriesFor(r.db, tx)

	row, err := q.GetPartnerByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPartnerNotFound
		}

		return nil, err
	}

	return r.withAccounts(ctx, q, row)
}

// GetByIDForUpdate retrieves a partner and locks its row until tx ends.
func (r *PartnerRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Partner, error) {
	q := queriesFor(r.db, tx)

	row, err := q.GetPartnerByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPartnerNotFound
		}

		return nil, err
	}

	return r.withAccounts(ctx, q, row)
}

// List returns partners ordered by name, each with its accounts.
func (r *PartnerRepository) List(ctx context.Context, filter domain.PartnerFilter) ([]*domain.Partner, error) {
	q := generated.New(r.db)

	rows, err := q.ListPartners(ctx, generated.ListPartnersParams{
		Query:  escapeLike(filter.Query),
		Limit:  int32(filter.Limit),
		Offset: int32(filter.Offset),
	})
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return []*domain.Partner{}, nil
	}

	partners := make([]*domain.Partner, 0, len(rows))
	byID := make(map[string]*domain.Partner, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		p := rowToPartner(row)
		partners = append(partners, p)
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	accounts, err := q.ListAccountsByPartnerIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, a := range accounts {
		if p, ok := byID[a.PartnerID]; ok {
			p.Accounts = append(p.Accounts, rowToAccount(a))
		}
	}

	return partners, nil
}

// Delete removes the partner. Accounts, entries and closures go with it.
func (r *PartnerRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	n, err := queriesFor(r.db, tx).DeletePartner(ctx, id)
	if err != nil {
		return err
	}

	if n == 0 {
		return domain.ErrPartnerNotFound
	}

	return nil
}

func (r *PartnerRepository) withAccounts(ctx context.Context, q *generated.Queries, row generated.Partner) (*domain.Partner, error) {
	accounts, err := q.ListAccountsByPartner(ctx, row.ID)
	if err != nil {
		return nil, err
	}

	p := rowToPartner(row)
	for _, a := range accounts {
		p.Accounts = append(p.Accounts, rowToAccount(a))
	}

	return p, nil
}

func rowToPartner(row generated.Partner) *domain.Partner {
	return &domain.Partner{
		ID:        row.ID,
		Name:      row.Name,
		CreatedAt: row.CreatedAt.Time,
	}
}

func rowToAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		ID:        row.ID,
		PartnerID: row.PartnerID,
		CreatedAt: row.CreatedAt.Time,
	}
}

var _ usecase.PartnerRepository = (*PartnerRepository)(nil)

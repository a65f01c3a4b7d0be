package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/palletledger/internal/domain"
	"github.com/iho/palletledger/internal/infrastructure/postgres/generated"
	"github.com/iho/palletledger/internal/usecase"
)

// ClosureRepository implements usecase.ClosureRepository.
type ClosureRepository struct {
	db generated.DBTX
}

// NewClosureRepository creates a new ClosureRepository.
func NewClosureRepository(pool *pgxpool.Pool) *ClosureRepository {
	return newClosureRepositoryWithDB(pool)
}

func newClosureRepositoryWithDB(db generated.DBTX) *ClosureRepository {
	return &ClosureRepository{db: db}
}

// Create stores a closure. The unique (partner_id, year, month) constraint
// backs up the duplicate check done by the caller.
func (r *ClosureRepository) Create(ctx context.Context, tx usecase.Transaction, closure *domain.Closure) error {
	err := queriesFor(r.db, tx).CreateClosure(ctx, generated.CreateClosureParams{
		ID:        closure.ID,
		PartnerID: closure.PartnerID,
		Year:      int32(closure.Year),
		Month:     int32(closure.Month),
		SaldoEup:  quantityToNumeric(closure.Balance.EUP),
		SaldoGb:   quantityToNumeric(closure.Balance.GB),
		SaldoTmb1: quantityToNumeric(closure.Balance.TMB1),
		SaldoTmb2: quantityToNumeric(closure.Balance.TMB2),
		PeriodEnd: timeToPgTimestamptz(closure.PeriodEnd),
		CreatedAt: timeToPgTimestamptz(closure.CreatedAt),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %04d-%02d", domain.ErrDuplicateClosure, closure.Year, closure.Month)
		}

		return err
	}

	return nil
}

// GetByPeriod returns the closure of one month or domain.ErrClosureNotFound.
func (r *ClosureRepository) GetByPeriod(ctx context.Context, tx usecase.Transaction, partnerID string, year, month int) (*domain.Closure, error) {
	row, err := queriesFor(r.db, tx).GetClosureByPeriod(ctx, generated.GetClosureByPeriodParams{
		PartnerID: partnerID,
		Year:      int32(year),
		Month:     int32(month),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrClosureNotFound
		}

		return nil, err
	}

	return rowToClosure(row)
}

// GetLastBefore returns the newest closure whose cutoff lies strictly before
// the given instant, or nil.
func (r *ClosureRepository) GetLastBefore(ctx context.Context, tx usecase.Transaction, partnerID string, before time.Time) (*domain.Closure, error) {
	row, err := queriesFor(r.db, tx).GetLastClosureBefore(ctx, generated.GetLastClosureBeforeParams{
		PartnerID: partnerID,
		Before:    timeToPgTimestamptz(before),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return rowToClosure(row)
}

// GetLatest returns the closure with the greatest cutoff, or nil.
func (r *ClosureRepository) GetLatest(ctx context.Context, tx usecase.Transaction, partnerID string) (*domain.Closure, error) {
	row, err := queriesFor(r.db, tx).GetLatestClosure(ctx, partnerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return rowToClosure(row)
}

// ListByPartner returns the closures of a partner ordered by cutoff.
func (r *ClosureRepository) ListByPartner(ctx context.Context, tx usecase.Transaction, partnerID string) ([]*domain.Closure, error) {
	rows, err := queriesFor(r.db, tx).ListClosuresByPartner(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	closures := make([]*domain.Closure, 0, len(rows))
	for _, row := range rows {
		c, err := rowToClosure(row)
		if err != nil {
			return nil, err
		}
		closures = append(closures, c)
	}

	return closures, nil
}

func rowToClosure(row generated.Closure) (*domain.Closure, error) {
	var q domain.Quantities

	for _, col := range []struct {
		dst *int64
		src pgtype.Numeric
	}{
		{&q.EUP, row.SaldoEup},
		{&q.GB, row.SaldoGb},
		{&q.TMB1, row.SaldoTmb1},
		{&q.TMB2, row.SaldoTmb2},
	} {
		n, err := numericToQuantity(col.src)
		if err != nil {
			return nil, fmt.Errorf("closure %s: %w", row.ID, err)
		}
		*col.dst = n
	}

	return &domain.Closure{
		ID:        row.ID,
		PartnerID: row.PartnerID,
		Year:      int(row.Year),
		Month:     int(row.Month),
		Balance:   q,
		PeriodEnd: row.PeriodEnd.Time,
		CreatedAt: row.CreatedAt.Time,
	}, nil
}

var _ usecase.ClosureRepository = (*ClosureRepository)(nil)

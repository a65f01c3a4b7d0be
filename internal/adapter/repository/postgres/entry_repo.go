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

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	db generated.DBTX
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return newEntryRepositoryWithDB(pool)
}

func newEntryRepositoryWithDB(db generated.DBTX) *EntryRepository {
	return &EntryRepository{db: db}
}

// Create inserts an entry.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	return queriesFor(r.db, tx).CreateEntry(ctx, generated.CreateEntryParams{
		ID:          entry.ID,
		AccountID:   entry.AccountID,
		Belegnummer: entry.Belegnummer,
		Datum:       optionalTimestamptz(entry.Datum),
		Richtung:    string(entry.Direction),
		Eup:         entry.Quantities.EUP,
		Gb:          entry.Quantities.GB,
		Tmb1:        entry.Quantities.TMB1,
		Tmb2:        entry.Quantities.TMB2,
		Kommentar:   entry.Comment,
		KontoSeq:    entry.KontoSeq,
		ErfasstVon:  entry.RecordedBy,
		CreatedAt:   timeToPgTimestamptz(entry.CreatedAt),
	})
}

// GetByID retrieves an entry by ID.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	row, err := generated.New(r.db).GetEntryByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}

		return nil, err
	}

	return rowToEntry(row), nil
}

// ListByPartner returns the entries of all accounts of a partner.
func (r *EntryRepository) ListByPartner(ctx context.Context, tx usecase.Transaction, partnerID string) ([]*domain.Entry, error) {
	rows, err := queriesFor(r.db, tx).ListEntriesByPartner(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	entries := make([]*domain.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rowToEntry(row))
	}

	return entries, nil
}

// FindOriginal returns the entry a correction of belegnummer refers to.
func (r *EntryRepository) FindOriginal(ctx context.Context, tx usecase.Transaction, partnerID, belegnummer string) (*domain.Entry, error) {
	row, err := queriesFor(r.db, tx).FindOriginalEntry(ctx, generated.FindOriginalEntryParams{
		PartnerID:   partnerID,
		Belegnummer: belegnummer,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOriginalEntryNotFound
		}

		return nil, err
	}

	return rowToEntry(row), nil
}

// MaxKontoSeq returns the highest konto_seq in the belegnummer group.
func (r *EntryRepository) MaxKontoSeq(ctx context.Context, tx usecase.Transaction, partnerID, belegnummer string) (int32, bool, error) {
	row, err := queriesFor(r.db, tx).GetMaxKontoSeq(ctx, generated.GetMaxKontoSeqParams{
		PartnerID:   partnerID,
		Belegnummer: belegnummer,
	})
	if err != nil {
		return 0, false, err
	}

	return row.MaxKontoSeq, row.Entries > 0, nil
}

// NextBelegnummerSequence reserves the next voucher sequence of a day: one
// more than the larger of the last reservation and the number of stored
// entries carrying the prefix, corrections included.
func (r *EntryRepository) NextBelegnummerSequence(ctx context.Context, tx usecase.Transaction, prefix string) (int64, error) {
	return queriesFor(r.db, tx).NextBelegnummerSequence(ctx, prefix)
}

func rowToEntry(row generated.Entry) *domain.Entry {
	return &domain.Entry{
		ID:          row.ID,
		AccountID:   row.AccountID,
		Belegnummer: row.Belegnummer,
		Datum:       pgTimestamptzToTime(row.Datum),
		Direction:   domain.Direction(row.Richtung),
		Quantities: domain.Quantities{
			EUP:  row.Eup,
			GB:   row.Gb,
			TMB1: row.Tmb1,
			TMB2: row.Tmb2,
		},
		Comment:    row.Kommentar,
		KontoSeq:   row.KontoSeq,
		RecordedBy: row.ErfasstVon,
		CreatedAt:  row.CreatedAt.Time,
	}
}

var _ usecase.EntryRepository = (*EntryRepository)(nil)

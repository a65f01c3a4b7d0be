package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/iho/palletledger/internal/domain"
)

var entryColumns = []string{
	"id", "account_id", "belegnummer", "datum", "richtung",
	"eup", "gb", "tmb1", "tmb2", "kommentar", "konto_seq", "erfasst_von", "created_at",
}

func TestEntryRepositoryCreate(t *testing.T) {
	mockPool := newMockPool(t)
	datum := time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC)

	mockPool.ExpectExec("INSERT INTO entries").
		WithArgs("E1", "A1", "2024010501", pgTime(datum), "Ausgang",
			int64(4), int64(0), int64(0), int64(0), "LS 10023", int32(0), "anna", pgTime(datum)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := newEntryRepositoryWithDB(mockPool)
	err := repo.Create(context.Background(), nil, &domain.Entry{
		ID:          "E1",
		AccountID:   "A1",
		Belegnummer: "2024010501",
		Datum:       datum,
		Direction:   domain.DirectionOutbound,
		Quantities:  domain.Quantities{EUP: 4},
		Comment:     "LS 10023",
		RecordedBy:  "anna",
		CreatedAt:   datum,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestEntryRepositoryListByPartnerKeepsMissingDatum(t *testing.T) {
	mockPool := newMockPool(t)
	datum := time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC)

	mockPool.ExpectQuery("JOIN accounts").
		WithArgs("P1").
		WillReturnRows(pgxmock.NewRows(entryColumns).
			AddRow("E0", "A1", "2019010101", pgtype.Timestamptz{}, "Eingang",
				int64(1), int64(0), int64(0), int64(0), "", int32(0), "", pgTime(datum)).
			AddRow("E1", "A1", "2024010501", pgTime(datum), "Korrektur",
				int64(0), int64(-2), int64(0), int64(0), "Zählfehler", int32(1), "anna", pgTime(datum)))

	repo := newEntryRepositoryWithDB(mockPool)
	entries, err := repo.ListByPartner(context.Background(), nil, "P1")
	if err != nil {
		t.Fatalf("ListByPartner: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].HasDatum() {
		t.Errorf("expected the NULL datum to map to the zero time")
	}
	if entries[1].Direction != domain.DirectionCorrection || entries[1].Quantities.GB != -2 || entries[1].KontoSeq != 1 {
		t.Errorf("unexpected correction %+v", entries[1])
	}

	assertExpectations(t, mockPool)
}

func TestEntryRepositoryNotFoundErrors(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectQuery("FROM entries WHERE id").WithArgs("nope").WillReturnError(pgx.ErrNoRows)
	mockPool.ExpectQuery("ORDER BY e.konto_seq DESC").WithArgs("P1", "2024010101").WillReturnError(pgx.ErrNoRows)

	repo := newEntryRepositoryWithDB(mockPool)
	if _, err := repo.GetByID(context.Background(), "nope"); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound, got %v", err)
	}
	if _, err := repo.FindOriginal(context.Background(), nil, "P1", "2024010101"); !errors.Is(err, domain.ErrOriginalEntryNotFound) {
		t.Errorf("expected ErrOriginalEntryNotFound, got %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestEntryRepositoryMaxKontoSeq(t *testing.T) {
	tests := []struct {
		name      string
		count     int64
		max       int32
		wantFound bool
	}{
		{name: "empty group", count: 0, max: 0, wantFound: false},
		{name: "original only", count: 1, max: 0, wantFound: true},
		{name: "with corrections", count: 3, max: 2, wantFound: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPool := newMockPool(t)
			mockPool.ExpectQuery("MAX").
				WithArgs("P1", "2024010101").
				WillReturnRows(pgxmock.NewRows([]string{"entries", "max_konto_seq"}).AddRow(tt.count, tt.max))

			repo := newEntryRepositoryWithDB(mockPool)
			got, found, err := repo.MaxKontoSeq(context.Background(), nil, "P1", "2024010101")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.max || found != tt.wantFound {
				t.Errorf("expected (%d, %v), got (%d, %v)", tt.max, tt.wantFound, got, found)
			}
		})
	}
}

func TestEntryRepositoryNextBelegnummerSequence(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectQuery(`(?s)INSERT INTO belegnummer_sequences.*GREATEST\(\s*belegnummer_sequences\.last_value,\s*\(SELECT COUNT\(\*\) FROM entries`).
		WithArgs("20240105").
		WillReturnRows(pgxmock.NewRows([]string{"last_value"}).AddRow(int64(3)))

	repo := newEntryRepositoryWithDB(mockPool)
	seq, err := repo.NextBelegnummerSequence(context.Background(), nil, "20240105")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seq != 3 {
		t.Errorf("expected 3, got %d", seq)
	}

	assertExpectations(t, mockPool)
}

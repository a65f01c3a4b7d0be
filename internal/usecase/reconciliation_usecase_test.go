package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iho/palletledger/internal/domain"
	"github.com/iho/palletledger/internal/usecase"
)

func TestReconciliationUseCase_ReconcileClosures(t *testing.T) {
	t.Parallel()

	f := newFixture(t, at(time.January, 10, 9))
	f.record(t, "EIN", "EUP", "10", "", "")

	f.clock.Set(at(time.February, 2, 9))
	for _, month := range []int{12, 1} {
		year := 2024
		if month == 12 {
			year = 2023
		}
		if _, err := f.closureUC.CloseMonth(context.Background(), usecase.CloseMonthInput{PartnerID: testPartnerID, Year: year, Month: month}); err != nil {
			t.Fatalf("CloseMonth: %v", err)
		}
	}

	report, err := f.reconUC.ReconcileClosures(context.Background(), testPartnerID)
	if err != nil {
		t.Fatalf("ReconcileClosures: %v", err)
	}
	if report.TotalClosures != 2 || report.ReconciledClosures != 2 || len(report.Discrepancies) != 0 {
		t.Fatalf("expected 2 reconciled closures, got %+v", report)
	}

	// written behind the January closure without going through the recorder
	if err := f.entries.Create(context.Background(), nil, &domain.Entry{
		ID:         "backdoor",
		AccountID:  testPartnerID + "-acc",
		Datum:      at(time.January, 20, 9),
		Direction:  domain.DirectionOutbound,
		Quantities: domain.Quantities{EUP: 3},
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	report, err = f.reconUC.ReconcileClosures(context.Background(), testPartnerID)
	if err != nil {
		t.Fatalf("ReconcileClosures: %v", err)
	}
	if report.ReconciledClosures != 1 || len(report.Discrepancies) != 1 {
		t.Fatalf("expected one discrepancy, got %+v", report)
	}

	d := report.Discrepancies[0]
	if d.Closure.Month != 1 {
		t.Errorf("expected January to mismatch, got month %d", d.Closure.Month)
	}
	if d.Difference != (domain.Quantities{EUP: -3}) {
		t.Errorf("expected difference EUP -3, got %+v", d.Difference)
	}
	if d.Calculated.EUP != 7 {
		t.Errorf("expected recomputed EUP 7, got %d", d.Calculated.EUP)
	}
}

func TestReconciliationUseCase_ReconcileClosures_UnknownPartner(t *testing.T) {
	t.Parallel()

	f := newFixture(t, at(time.January, 10, 9))

	if _, err := f.reconUC.ReconcileClosures(context.Background(), "nobody"); !errors.Is(err, domain.ErrPartnerNotFound) {
		t.Errorf("expected ErrPartnerNotFound, got %v", err)
	}
}

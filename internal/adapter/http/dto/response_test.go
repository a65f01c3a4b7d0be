package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/iho/palletledger/internal/domain"
	"github.com/iho/palletledger/internal/usecase"
)

func TestPartnerSummariesFromDomain(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	summaries := []*domain.PartnerSummary{{
		Partner: &domain.Partner{
			ID:        "p1",
			Name:      "Holz Wagner KG",
			CreatedAt: now,
			Accounts:  []*domain.Account{{ID: "acc-1", PartnerID: "p1", CreatedAt: now}},
		},
		Balance: domain.Quantities{EUP: 4, TMB2: -1},
	}}

	resp := PartnerSummariesFromDomain(summaries)
	if resp.Total != 1 || resp.Partners[0].ID != "p1" || resp.Partners[0].Accounts[0].ID != "acc-1" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	data, err := json.Marshal(resp.Partners[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{`"name":"Holz Wagner KG"`, `"saldo":{"eup":4,"gb":0,"tmb1":0,"tmb2":-1}`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("expected %s in %s", want, data)
		}
	}
}

func TestEntryFromDomain_WithoutDatum(t *testing.T) {
	resp := EntryFromDomain(&domain.Entry{ID: "e1", Direction: domain.DirectionInbound})
	if resp.Datum != nil {
		t.Fatalf("expected nil datum, got %v", resp.Datum)
	}

	data, _ := json.Marshal(resp)
	if !strings.Contains(string(data), `"datum":null`) {
		t.Errorf("expected null datum in %s", data)
	}
}

func TestBalanceFromDomain(t *testing.T) {
	entries := []*domain.Entry{
		{ID: "e1", Direction: domain.DirectionOutbound, Quantities: domain.Quantities{EUP: 4}, Datum: time.Now()},
		{ID: "e2", Direction: domain.DirectionOutbound, Quantities: domain.Quantities{GB: 1}, Datum: time.Now()},
	}
	b := &domain.Balance{
		PartnerID:   "p1",
		SaldoEnd:    domain.Quantities{EUP: 6},
		BaseClosure: &domain.Closure{ID: "c1", Year: 2023, Month: 12},
	}

	resp := BalanceFromDomain(b, entries, domain.DirectionOutbound)
	if resp.Totals != (domain.Quantities{EUP: 4, GB: 1}) {
		t.Errorf("unexpected totals %+v", resp.Totals)
	}
	if resp.Richtung != "Ausgang" || len(resp.Entries) != 2 {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.BaseClosure == nil || resp.BaseClosure.ID != "c1" {
		t.Errorf("expected base closure c1, got %+v", resp.BaseClosure)
	}
}

func TestMonthStatusFromDomain(t *testing.T) {
	open := MonthStatusFromDomain(&domain.MonthStatus{Year: 2024, Month: 1, Elapsed: true})
	if !open.CanClose || open.Closed || open.Closure != nil {
		t.Errorf("expected closable month, got %+v", open)
	}

	closed := MonthStatusFromDomain(&domain.MonthStatus{Year: 2024, Month: 1, Elapsed: true, Closure: &domain.Closure{ID: "c1"}})
	if closed.CanClose || !closed.Closed || closed.Closure.ID != "c1" {
		t.Errorf("expected closed month, got %+v", closed)
	}
}

func TestReconciliationFromUseCase(t *testing.T) {
	report := &usecase.ReconciliationReport{
		PartnerID:          "p1",
		TotalClosures:      2,
		ReconciledClosures: 1,
		Discrepancies: []*usecase.ClosureCheck{{
			Closure:    &domain.Closure{ID: "c1", Month: 1},
			Calculated: domain.Quantities{EUP: 7},
			Difference: domain.Quantities{EUP: -3},
		}},
	}

	resp := ReconciliationFromUseCase(report)
	if resp.TotalClosures != 2 || len(resp.Discrepancies) != 1 || resp.Discrepancies[0].Difference.EUP != -3 {
		t.Errorf("unexpected response %+v", resp)
	}
}

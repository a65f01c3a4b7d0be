package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/iho/palletledger/internal/adapter/export"
	"github.com/iho/palletledger/internal/adapter/http/dto"
	"github.com/iho/palletledger/internal/domain"
)

type balanceServiceStub struct {
	computeFn func(ctx context.Context, partnerID string, start, end time.Time) (*domain.Balance, error)
}

func (s *balanceServiceStub) ComputeBalance(ctx context.Context, partnerID string, start, end time.Time) (*domain.Balance, error) {
	return s.computeFn(ctx, partnerID, start, end)
}

func sampleBalance(partnerID string, start, end time.Time) *domain.Balance {
	return &domain.Balance{
		PartnerID:    partnerID,
		PeriodStart:  start,
		PeriodEnd:    end,
		SaldoStart:   domain.Quantities{EUP: 2},
		Movement:     domain.Quantities{EUP: 6},
		SaldoEnd:     domain.Quantities{EUP: 8},
		SumsInbound:  domain.Quantities{EUP: 10},
		SumsOutbound: domain.Quantities{EUP: 4},
		Entries: []*domain.Entry{
			{ID: "e2", Belegnummer: "2024010502", Datum: start.Add(96 * time.Hour), Direction: domain.DirectionOutbound, Quantities: domain.Quantities{EUP: 4}},
			{ID: "e1", Belegnummer: "2024010201", Datum: start.Add(24 * time.Hour), Direction: domain.DirectionInbound, Quantities: domain.Quantities{EUP: 10}},
		},
	}
}

func newBalanceHandler(compute func(ctx context.Context, partnerID string, start, end time.Time) (*domain.Balance, error)) *BalanceHandler {
	partners := &partnerServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.Partner, error) {
			if id != "p1" {
				return nil, domain.ErrPartnerNotFound
			}
			return &domain.Partner{ID: "p1", Name: "Holz Wagner KG"}, nil
		},
	}
	return NewBalanceHandler(&balanceServiceStub{computeFn: compute}, partners,
		fixedClock{now: time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)})
}

func TestBalanceHandler_Get(t *testing.T) {
	var gotStart, gotEnd time.Time
	h := newBalanceHandler(func(ctx context.Context, partnerID string, start, end time.Time) (*domain.Balance, error) {
		gotStart, gotEnd = start, end
		return sampleBalance(partnerID, start, end), nil
	})

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/partners/p1/balance?year=2024&month=1", nil), map[string]string{"id": "p1"})
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), gotStart)
	assert.Equal(t, time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC), gotEnd)

	var resp dto.BalanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.Quantities{EUP: 8}, resp.SaldoEnd)
	assert.Len(t, resp.Entries, 2)
	assert.Equal(t, domain.Quantities{EUP: 14}, resp.Totals)
	assert.Empty(t, resp.Richtung)
}

func TestBalanceHandler_Get_DirectionFilter(t *testing.T) {
	h := newBalanceHandler(func(ctx context.Context, partnerID string, start, end time.Time) (*domain.Balance, error) {
		return sampleBalance(partnerID, start, end), nil
	})

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/partners/p1/balance?richtung=Ausgang", nil), map[string]string{"id": "p1"})
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.BalanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "e2", resp.Entries[0].ID)
	assert.Equal(t, domain.Quantities{EUP: 4}, resp.Totals)
	assert.Equal(t, "Ausgang", resp.Richtung)
	// the balance itself is never filtered
	assert.Equal(t, domain.Quantities{EUP: 8}, resp.SaldoEnd)
}

func TestBalanceHandler_Get_Errors(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected int
	}{
		{name: "bad filter", query: "?richtung=seitlich", expected: http.StatusBadRequest},
		{name: "bad period", query: "?start_date=2024-01-01", expected: http.StatusBadRequest},
		{name: "end before start", query: "?start_date=2024-02-01&end_date=2024-01-01", expected: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newBalanceHandler(func(ctx context.Context, partnerID string, start, end time.Time) (*domain.Balance, error) {
				return domain.ComputeBalance(partnerID, nil, nil, start, end)
			})

			req := withURLParams(httptest.NewRequest(http.MethodGet, "/partners/p1/balance"+tt.query, nil), map[string]string{"id": "p1"})
			rec := httptest.NewRecorder()
			h.Get(rec, req)

			assert.Equal(t, tt.expected, rec.Code, rec.Body.String())
		})
	}
}

func TestBalanceHandler_Export(t *testing.T) {
	h := newBalanceHandler(func(ctx context.Context, partnerID string, start, end time.Time) (*domain.Balance, error) {
		return sampleBalance(partnerID, start, end), nil
	})

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/partners/p1/export.xlsx?start_date=2024-01-01&end_date=2024-01-31&richtung=EIN", nil), map[string]string{"id": "p1"})
	rec := httptest.NewRecorder()
	h.Export(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Palettenkonto_Holz%20Wagner%20KG_2024-01-01_2024-01-31.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Buchungen")
	require.NoError(t, err)
	require.Len(t, rows, 3, "header, one inbound entry, totals")
	assert.Equal(t, "Eingang", rows[1][3])
}

func TestBalanceHandler_Export_RequiresDates(t *testing.T) {
	h := newBalanceHandler(nil)

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/partners/p1/export.xlsx?year=2024&month=1", nil), map[string]string{"id": "p1"})
	rec := httptest.NewRecorder()
	h.Export(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBalanceHandler_Export_UnknownPartner(t *testing.T) {
	h := newBalanceHandler(nil)

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/partners/p9/export.xlsx?start_date=2024-01-01&end_date=2024-01-31", nil), map[string]string{"id": "p9"})
	rec := httptest.NewRecorder()
	h.Export(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

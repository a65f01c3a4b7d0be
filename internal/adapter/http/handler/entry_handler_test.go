package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/palletledger/internal/adapter/http/dto"
	"github.com/iho/palletledger/internal/domain"
	"github.com/iho/palletledger/internal/usecase"
)

type entryServiceStub struct {
	recordFn  func(ctx context.Context, input usecase.RecordEntryInput) (*domain.Entry, error)
	correctFn func(ctx context.Context, input usecase.RecordCorrectionInput) (*domain.Entry, error)
	getFn     func(ctx context.Context, id string) (*domain.Entry, error)
}

func (s *entryServiceStub) RecordEntry(ctx context.Context, input usecase.RecordEntryInput) (*domain.Entry, error) {
	return s.recordFn(ctx, input)
}

func (s *entryServiceStub) RecordCorrection(ctx context.Context, input usecase.RecordCorrectionInput) (*domain.Entry, error) {
	return s.correctFn(ctx, input)
}

func (s *entryServiceStub) GetEntry(ctx context.Context, id string) (*domain.Entry, error) {
	return s.getFn(ctx, id)
}

func TestEntryHandler_Record(t *testing.T) {
	var captured usecase.RecordEntryInput
	h := NewEntryHandler(&entryServiceStub{
		recordFn: func(ctx context.Context, input usecase.RecordEntryInput) (*domain.Entry, error) {
			captured = input
			return &domain.Entry{
				ID:          "e1",
				Belegnummer: "2024010501",
				Datum:       time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC),
				Direction:   domain.DirectionOutbound,
				Quantities:  domain.Quantities{EUP: 4},
				Comment:     input.Comment,
			}, nil
		},
	})

	body := `{"richtung":"AUS","kategorie":"EUP","menge":4,"kommentar":"LS 10023","datum":"2024-01-05"}`
	req := withURLParams(httptest.NewRequest(http.MethodPost, "/partners/p1/entries", strings.NewReader(body)), map[string]string{"id": "p1"})
	rec := httptest.NewRecorder()
	h.Record(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, usecase.RecordEntryInput{
		PartnerID: "p1", Direction: "AUS", Category: "EUP", Quantity: "4", Comment: "LS 10023", Date: "2024-01-05",
	}, captured)

	var resp dto.EntryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2024010501", resp.Belegnummer)
	assert.Equal(t, "Ausgang", resp.Richtung)
	assert.Equal(t, int64(4), resp.EUP)
}

func TestEntryHandler_Record_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		expected int
	}{
		{name: "missing category", body: `{"richtung":"EIN","menge":1}`, expected: http.StatusUnprocessableEntity},
		{name: "non numeric quantity", body: `{"richtung":"EIN","kategorie":"EUP","menge":"viele"}`, expected: http.StatusUnprocessableEntity},
		{name: "fractional quantity", body: `{"richtung":"EIN","kategorie":"EUP","menge":1.5}`, err: domain.ErrInvalidQuantity, expected: http.StatusBadRequest},
		{name: "outbound without reference", body: `{"richtung":"AUS","kategorie":"EUP","menge":1}`, err: domain.ErrMissingReferenceNumber, expected: http.StatusBadRequest},
		{name: "closed month", body: `{"richtung":"EIN","kategorie":"EUP","menge":1,"datum":"2023-12-01"}`, err: domain.ErrClosureLocked, expected: http.StatusConflict},
		{name: "unknown partner", body: `{"richtung":"EIN","kategorie":"EUP","menge":1}`, err: domain.ErrPartnerNotFound, expected: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewEntryHandler(&entryServiceStub{
				recordFn: func(ctx context.Context, input usecase.RecordEntryInput) (*domain.Entry, error) {
					return nil, tt.err
				},
			})

			req := withURLParams(httptest.NewRequest(http.MethodPost, "/partners/p1/entries", strings.NewReader(tt.body)), map[string]string{"id": "p1"})
			rec := httptest.NewRecorder()
			h.Record(rec, req)

			assert.Equal(t, tt.expected, rec.Code, rec.Body.String())
		})
	}
}

func TestEntryHandler_Correct(t *testing.T) {
	var captured usecase.RecordCorrectionInput
	h := NewEntryHandler(&entryServiceStub{
		correctFn: func(ctx context.Context, input usecase.RecordCorrectionInput) (*domain.Entry, error) {
			captured = input
			return &domain.Entry{ID: "e2", Belegnummer: input.Belegnummer, KontoSeq: 1, Direction: domain.DirectionCorrection}, nil
		},
	})

	body := `{"belegnummer":"2024010501","kategorie":"GB","menge":"-2","kommentar":"Zählfehler"}`
	req := withURLParams(httptest.NewRequest(http.MethodPost, "/partners/p1/corrections", strings.NewReader(body)), map[string]string{"id": "p1"})
	rec := httptest.NewRecorder()
	h.Correct(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "p1", captured.PartnerID)
	assert.Equal(t, "-2", captured.Quantity)

	var resp dto.EntryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int32(1), resp.KontoSeq)
	assert.Nil(t, resp.Datum)
}

func TestEntryHandler_Correct_MissingComment(t *testing.T) {
	h := NewEntryHandler(&entryServiceStub{})

	body := `{"belegnummer":"2024010501","kategorie":"GB","menge":1}`
	req := withURLParams(httptest.NewRequest(http.MethodPost, "/partners/p1/corrections", strings.NewReader(body)), map[string]string{"id": "p1"})
	rec := httptest.NewRecorder()
	h.Correct(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message, "kommentar is required")
}

func TestEntryHandler_Get(t *testing.T) {
	h := NewEntryHandler(&entryServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.Entry, error) {
			if id != "e1" {
				return nil, domain.ErrEntryNotFound
			}
			return &domain.Entry{ID: "e1"}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.Get(rec, withURLParams(httptest.NewRequest(http.MethodGet, "/entries/e1", nil), map[string]string{"id": "e1"}))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.Get(rec, withURLParams(httptest.NewRequest(http.MethodGet, "/entries/nope", nil), map[string]string{"id": "nope"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iho/palletledger/internal/adapter/http/dto"
	"github.com/iho/palletledger/internal/domain"
	"github.com/iho/palletledger/internal/usecase"
)

type partnerServiceStub struct {
	createFn func(ctx context.Context, name string) (*domain.Partner, error)
	getFn    func(ctx context.Context, id string) (*domain.Partner, error)
	listFn   func(ctx context.Context, input usecase.ListPartnersInput) ([]*domain.PartnerSummary, error)
	deleteFn func(ctx context.Context, id string) error
}

func (s *partnerServiceStub) CreatePartner(ctx context.Context, name string) (*domain.Partner, error) {
	return s.createFn(ctx, name)
}

func (s *partnerServiceStub) GetPartner(ctx context.Context, id string) (*domain.Partner, error) {
	return s.getFn(ctx, id)
}

func (s *partnerServiceStub) ListPartners(ctx context.Context, input usecase.ListPartnersInput) ([]*domain.PartnerSummary, error) {
	return s.listFn(ctx, input)
}

func (s *partnerServiceStub) DeletePartner(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

func TestPartnerHandler_Create_Success(t *testing.T) {
	var captured string
	h := NewPartnerHandler(&partnerServiceStub{
		createFn: func(ctx context.Context, name string) (*domain.Partner, error) {
			captured = name
			return &domain.Partner{
				ID:       "p1",
				Name:     name,
				Accounts: []*domain.Account{{ID: "acc-1", PartnerID: "p1"}},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/partners", strings.NewReader(`{"name":"Holz Wagner KG"}`))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured != "Holz Wagner KG" {
		t.Fatalf("expected name to be passed through, got %q", captured)
	}

	var resp dto.PartnerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "p1" || len(resp.Accounts) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestPartnerHandler_Create_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		expected int
	}{
		{name: "malformed json", body: `{`, expected: http.StatusUnprocessableEntity},
		{name: "missing name", body: `{}`, expected: http.StatusUnprocessableEntity},
		{name: "blank name rejected by the domain", body: `{"name":"   "}`, err: domain.ErrInvalidPartnerName, expected: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewPartnerHandler(&partnerServiceStub{
				createFn: func(ctx context.Context, name string) (*domain.Partner, error) {
					return nil, tt.err
				},
			})

			rec := httptest.NewRecorder()
			h.Create(rec, httptest.NewRequest(http.MethodPost, "/partners", strings.NewReader(tt.body)))

			if rec.Code != tt.expected {
				t.Fatalf("expected %d, got %d: %s", tt.expected, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestPartnerHandler_Get_NotFound(t *testing.T) {
	h := NewPartnerHandler(&partnerServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.Partner, error) {
			return nil, domain.ErrPartnerNotFound
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/partners/missing", nil), map[string]string{"id": "missing"})
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPartnerHandler_List(t *testing.T) {
	var captured usecase.ListPartnersInput
	h := NewPartnerHandler(&partnerServiceStub{
		listFn: func(ctx context.Context, input usecase.ListPartnersInput) ([]*domain.PartnerSummary, error) {
			captured = input
			return []*domain.PartnerSummary{
				{Partner: &domain.Partner{ID: "p1", Name: "Baustoffe Schmidt"}, Balance: domain.Quantities{EUP: 3}},
			}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/partners?q=schmidt&limit=5&offset=10", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := usecase.ListPartnersInput{Query: "schmidt", Limit: 5, Offset: 10}
	if captured != want {
		t.Fatalf("expected input %+v, got %+v", want, captured)
	}

	var resp dto.ListPartnersResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 1 || resp.Partners[0].Saldo.EUP != 3 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestPartnerHandler_Delete(t *testing.T) {
	deleted := ""
	h := NewPartnerHandler(&partnerServiceStub{
		deleteFn: func(ctx context.Context, id string) error {
			if id != "p1" {
				return domain.ErrPartnerNotFound
			}
			deleted = id
			return nil
		},
	})

	rec := httptest.NewRecorder()
	h.Delete(rec, withURLParams(httptest.NewRequest(http.MethodDelete, "/partners/p1", nil), map[string]string{"id": "p1"}))
	if rec.Code != http.StatusNoContent || deleted != "p1" {
		t.Fatalf("expected 204 and deletion, got %d (%q)", rec.Code, deleted)
	}

	rec = httptest.NewRecorder()
	h.Delete(rec, withURLParams(httptest.NewRequest(http.MethodDelete, "/partners/p2", nil), map[string]string{"id": "p2"}))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/palletledger/internal/adapter/http/dto"
	"github.com/iho/palletledger/internal/domain"
	"github.com/iho/palletledger/internal/usecase"
)

// PartnerService defines the behavior needed by PartnerHandler.
type PartnerService interface {
	CreatePartner(ctx context.Context, name string) (*domain.Partner, error)
	GetPartner(ctx context.Context, id string) (*domain.Partner, error)
	ListPartners(ctx context.Context, input usecase.ListPartnersInput) ([]*domain.PartnerSummary, error)
	DeletePartner(ctx context.Context, id string) error
}

// PartnerHandler handles partner-related HTTP requests.
type PartnerHandler struct {
	partnerUC PartnerService
}

// NewPartnerHandler creates a new PartnerHandler.
func NewPartnerHandler(partnerUC PartnerService) *PartnerHandler {
	return &PartnerHandler{partnerUC: partnerUC}
}

// Create creates a partner with its default account.
func (h *PartnerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePartnerRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeDomainError(w, "invalid request", err)
		return
	}

	partner, err := h.partnerUC.CreatePartner(r.Context(), req.Name)
	if err != nil {
		writeDomainError(w, "failed to create partner", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PartnerFromDomain(partner))
}

// Get retrieves a partner by ID.
func (h *PartnerHandler) Get(w http.ResponseWriter, r *http.Request) {
	partner, err := h.partnerUC.GetPartner(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get partner", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PartnerFromDomain(partner))
}

// List returns the partner overview with current balances.
func (h *PartnerHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.partnerUC.ListPartners(r.Context(), usecase.ListPartnersInput{
		Query:  r.URL.Query().Get("q"),
		Limit:  parseIntQuery(r, "limit", domain.DefaultPageSize),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, "failed to list partners", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PartnerSummariesFromDomain(summaries))
}

// Delete removes a partner with all its accounts, entries and closures.
func (h *PartnerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.partnerUC.DeletePartner(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "failed to delete partner", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

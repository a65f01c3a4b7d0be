package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/palletledger/internal/adapter/export"
	"github.com/iho/palletledger/internal/adapter/http/dto"
	"github.com/iho/palletledger/internal/domain"
	"github.com/iho/palletledger/internal/usecase"
)

// BalanceService defines the behavior needed by BalanceHandler.
type BalanceService interface {
	ComputeBalance(ctx context.Context, partnerID string, start, end time.Time) (*domain.Balance, error)
}

// BalanceHandler serves account statements.
type BalanceHandler struct {
	balanceUC BalanceService
	partnerUC PartnerService
	clock     usecase.Clock
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(balanceUC BalanceService, partnerUC PartnerService, clock usecase.Clock) *BalanceHandler {
	return &BalanceHandler{balanceUC: balanceUC, partnerUC: partnerUC, clock: clock}
}

// Get returns the balance of a partner for the requested period together
// with the entries booked in it, optionally filtered by richtung.
func (h *BalanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	start, end, err := parsePeriod(r, h.clock.Now())
	if err != nil {
		writeDomainError(w, "invalid period", err)
		return
	}

	direction, filtered, err := domain.ParseDirectionFilter(r.URL.Query().Get("richtung"))
	if err != nil {
		writeDomainError(w, "invalid filter", err)
		return
	}

	balance, err := h.balanceUC.ComputeBalance(r.Context(), chi.URLParam(r, "id"), start, end)
	if err != nil {
		writeDomainError(w, "failed to compute balance", err)
		return
	}

	entries := balance.Entries
	if filtered {
		entries = domain.FilterEntries(entries, direction)
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(balance, entries, direction))
}

// Export returns the statement for start_date..end_date as an xlsx download.
func (h *BalanceHandler) Export(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseDateRange(r, h.clock.Now().Location())
	if err != nil {
		writeDomainError(w, "invalid period", err)
		return
	}

	direction, _, err := domain.ParseDirectionFilter(r.URL.Query().Get("richtung"))
	if err != nil {
		writeDomainError(w, "invalid filter", err)
		return
	}

	partnerID := chi.URLParam(r, "id")
	partner, err := h.partnerUC.GetPartner(r.Context(), partnerID)
	if err != nil {
		writeDomainError(w, "failed to get partner", err)
		return
	}

	balance, err := h.balanceUC.ComputeBalance(r.Context(), partnerID, start, end)
	if err != nil {
		writeDomainError(w, "failed to compute balance", err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteStatement(&buf, partner, balance, export.Filter{Direction: direction}); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to write statement", err.Error())
		return
	}

	filename := export.Filename(partner, start, end)
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(filename)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

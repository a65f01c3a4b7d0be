package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iho/palletledger/internal/adapter/http/dto"
	"github.com/iho/palletledger/internal/domain"
	"github.com/iho/palletledger/internal/usecase"
)

// ClosureService defines the behavior needed by ClosureHandler.
type ClosureService interface {
	CloseMonth(ctx context.Context, input usecase.CloseMonthInput) (*domain.Closure, error)
	ListClosures(ctx context.Context, partnerID string) ([]*domain.Closure, error)
	MonthStatus(ctx context.Context, partnerID string, year, month int) (*domain.MonthStatus, error)
}

// ReconciliationService defines the behavior needed to check closures.
type ReconciliationService interface {
	ReconcileClosures(ctx context.Context, partnerID string) (*usecase.ReconciliationReport, error)
}

// ClosureHandler handles month closures.
type ClosureHandler struct {
	closureUC ClosureService
	reconUC   ReconciliationService
	clock     usecase.Clock
}

// NewClosureHandler creates a new ClosureHandler.
func NewClosureHandler(closureUC ClosureService, reconUC ReconciliationService, clock usecase.Clock) *ClosureHandler {
	return &ClosureHandler{closureUC: closureUC, reconUC: reconUC, clock: clock}
}

// List returns the closures of a partner ordered by period end.
func (h *ClosureHandler) List(w http.ResponseWriter, r *http.Request) {
	closures, err := h.closureUC.ListClosures(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to list closures", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ClosuresFromDomain(closures))
}

// Create closes a month.
func (h *ClosureHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CloseMonthRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeDomainError(w, "invalid request", err)
		return
	}

	closure, err := h.closureUC.CloseMonth(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "failed to close month", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ClosureFromDomain(closure))
}

// Status reports whether a month is elapsed and closed. Without year and
// month the previous calendar month is reported.
func (h *ClosureHandler) Status(w http.ResponseWriter, r *http.Request) {
	year, month := domain.PreviousMonth(h.clock.Now())

	q := r.URL.Query()
	if s := q.Get("year"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			writeDomainError(w, "invalid request", fmt.Errorf("%w: year %q", domain.ErrInvalidPeriod, s))
			return
		}
		year = v
	}
	if s := q.Get("month"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			writeDomainError(w, "invalid request", fmt.Errorf("%w: month %q", domain.ErrInvalidPeriod, s))
			return
		}
		month = v
	}

	status, err := h.closureUC.MonthStatus(r.Context(), chi.URLParam(r, "id"), year, month)
	if err != nil {
		writeDomainError(w, "failed to get month status", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MonthStatusFromDomain(status))
}

// Reconcile recomputes every closure of the partner and reports mismatches.
func (h *ClosureHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconUC.ReconcileClosures(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to reconcile closures", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromUseCase(report))
}

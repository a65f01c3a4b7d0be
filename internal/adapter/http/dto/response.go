package dto

import (
	"time"

	"github.com/iho/palletledger/internal/domain"
	"github.com/iho/palletledger/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// PartnerResponse represents a partner in API responses.
type PartnerResponse struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	CreatedAt time.Time          `json:"created_at"`
	Accounts  []*AccountResponse `json:"accounts"`
}

// PartnerFromDomain converts domain partner to response.
func PartnerFromDomain(p *domain.Partner) *PartnerResponse {
	accounts := make([]*AccountResponse, len(p.Accounts))
	for i, a := range p.Accounts {
		accounts[i] = &AccountResponse{ID: a.ID, CreatedAt: a.CreatedAt}
	}

	return &PartnerResponse{
		ID:        p.ID,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
		Accounts:  accounts,
	}
}

// PartnerSummaryResponse is one row of the partner overview.
type PartnerSummaryResponse struct {
	*PartnerResponse
	Saldo domain.Quantities `json:"saldo"`
}

// ListPartnersResponse represents a page of the partner overview.
type ListPartnersResponse struct {
	Partners []*PartnerSummaryResponse `json:"partners"`
	Total    int64                     `json:"total"`
}

// PartnerSummariesFromDomain converts summaries to responses.
func PartnerSummariesFromDomain(summaries []*domain.PartnerSummary) *ListPartnersResponse {
	partners := make([]*PartnerSummaryResponse, len(summaries))
	for i, s := range summaries {
		partners[i] = &PartnerSummaryResponse{
			PartnerResponse: PartnerFromDomain(s.Partner),
			Saldo:           s.Balance,
		}
	}
	return &ListPartnersResponse{Partners: partners, Total: int64(len(partners))}
}

// EntryResponse represents an entry in API responses.
type EntryResponse struct {
	ID          string     `json:"id"`
	AccountID   string     `json:"account_id"`
	Belegnummer string     `json:"belegnummer"`
	Datum       *time.Time `json:"datum"`
	Richtung    string     `json:"richtung"`
	EUP         int64      `json:"eup"`
	GB          int64      `json:"gb"`
	TMB1        int64      `json:"tmb1"`
	TMB2        int64      `json:"tmb2"`
	Kommentar   string     `json:"kommentar"`
	KontoSeq    int32      `json:"konto_seq"`
	ErfasstVon  string     `json:"erfasst_von"`
	CreatedAt   time.Time  `json:"created_at"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	resp := &EntryResponse{
		ID:          e.ID,
		AccountID:   e.AccountID,
		Belegnummer: e.Belegnummer,
		Richtung:    string(e.Direction),
		EUP:         e.Quantities.EUP,
		GB:          e.Quantities.GB,
		TMB1:        e.Quantities.TMB1,
		TMB2:        e.Quantities.TMB2,
		Kommentar:   e.Comment,
		KontoSeq:    e.KontoSeq,
		ErfasstVon:  e.RecordedBy,
		CreatedAt:   e.CreatedAt,
	}
	if e.HasDatum() {
		datum := e.Datum
		resp.Datum = &datum
	}
	return resp
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// ClosureResponse represents a month closure in API responses.
type ClosureResponse struct {
	ID        string            `json:"id"`
	PartnerID string            `json:"partner_id"`
	Year      int               `json:"year"`
	Month     int               `json:"month"`
	Saldo     domain.Quantities `json:"saldo"`
	PeriodEnd time.Time         `json:"period_end"`
	CreatedAt time.Time         `json:"created_at"`
}

// ClosureFromDomain converts domain closure to response. A nil closure
// yields nil.
func ClosureFromDomain(c *domain.Closure) *ClosureResponse {
	if c == nil {
		return nil
	}
	return &ClosureResponse{
		ID:        c.ID,
		PartnerID: c.PartnerID,
		Year:      c.Year,
		Month:     c.Month,
		Saldo:     c.Balance,
		PeriodEnd: c.PeriodEnd,
		CreatedAt: c.CreatedAt,
	}
}

// ClosuresFromDomain converts domain closures to responses.
func ClosuresFromDomain(closures []*domain.Closure) []*ClosureResponse {
	result := make([]*ClosureResponse, len(closures))
	for i, c := range closures {
		result[i] = ClosureFromDomain(c)
	}
	return result
}

// MonthStatusResponse tells whether a month can be closed.
type MonthStatusResponse struct {
	Year      int              `json:"year"`
	Month     int              `json:"month"`
	PeriodEnd time.Time        `json:"period_end"`
	Elapsed   bool             `json:"elapsed"`
	Closed    bool             `json:"closed"`
	CanClose  bool             `json:"can_close"`
	Closure   *ClosureResponse `json:"closure,omitempty"`
}

// MonthStatusFromDomain converts a month status to response.
func MonthStatusFromDomain(s *domain.MonthStatus) *MonthStatusResponse {
	return &MonthStatusResponse{
		Year:      s.Year,
		Month:     s.Month,
		PeriodEnd: s.PeriodEnd,
		Elapsed:   s.Elapsed,
		Closed:    s.Closed(),
		CanClose:  s.CanClose(),
		Closure:   ClosureFromDomain(s.Closure),
	}
}

// BalanceResponse is the account statement of a partner for a period.
type BalanceResponse struct {
	PartnerID    string            `json:"partner_id"`
	PeriodStart  time.Time         `json:"period_start"`
	PeriodEnd    time.Time         `json:"period_end"`
	SaldoStart   domain.Quantities `json:"saldo_start"`
	Movement     domain.Quantities `json:"movement"`
	SaldoEnd     domain.Quantities `json:"saldo_end"`
	SumsInbound  domain.Quantities `json:"sums_eingang"`
	SumsOutbound domain.Quantities `json:"sums_ausgang"`
	BaseClosure  *ClosureResponse  `json:"base_closure,omitempty"`
	// Richtung is the filter applied to Entries, empty for all.
	Richtung string            `json:"richtung,omitempty"`
	Entries  []*EntryResponse  `json:"entries"`
	Totals   domain.Quantities `json:"totals"`
}

// BalanceFromDomain converts a balance to response. entries are the listed
// entries after filtering; Totals sums their raw quantities.
func BalanceFromDomain(b *domain.Balance, entries []*domain.Entry, richtung domain.Direction) *BalanceResponse {
	return &BalanceResponse{
		PartnerID:    b.PartnerID,
		PeriodStart:  b.PeriodStart,
		PeriodEnd:    b.PeriodEnd,
		SaldoStart:   b.SaldoStart,
		Movement:     b.Movement,
		SaldoEnd:     b.SaldoEnd,
		SumsInbound:  b.SumsInbound,
		SumsOutbound: b.SumsOutbound,
		BaseClosure:  ClosureFromDomain(b.BaseClosure),
		Richtung:     string(richtung),
		Entries:      EntriesFromDomain(entries),
		Totals:       domain.SumEntries(entries),
	}
}

// ClosureCheckResponse reports one closure that no longer matches its entries.
type ClosureCheckResponse struct {
	Closure    *ClosureResponse  `json:"closure"`
	Calculated domain.Quantities `json:"calculated"`
	Difference domain.Quantities `json:"difference"`
}

// ReconciliationResponse summarizes a closure reconciliation.
type ReconciliationResponse struct {
	PartnerID          string                  `json:"partner_id"`
	TotalClosures      int                     `json:"total_closures"`
	ReconciledClosures int                     `json:"reconciled_closures"`
	Discrepancies      []*ClosureCheckResponse `json:"discrepancies"`
	CheckedAt          time.Time               `json:"checked_at"`
}

// ReconciliationFromUseCase converts a reconciliation report to response.
func ReconciliationFromUseCase(r *usecase.ReconciliationReport) *ReconciliationResponse {
	discrepancies := make([]*ClosureCheckResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = &ClosureCheckResponse{
			Closure:    ClosureFromDomain(d.Closure),
			Calculated: d.Calculated,
			Difference: d.Difference,
		}
	}
	return &ReconciliationResponse{
		PartnerID:          r.PartnerID,
		TotalClosures:      r.TotalClosures,
		ReconciledClosures: r.ReconciledClosures,
		Discrepancies:      discrepancies,
		CheckedAt:          r.CheckedAt,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

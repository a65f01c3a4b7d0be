package dto

import (
	"encoding/json"

	"github.com/iho/palletledger/internal/usecase"
)

// CreatePartnerRequest represents a request to create a partner.
type CreatePartnerRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// RecordEntryRequest represents a request to book an inbound or outbound
// movement.
type RecordEntryRequest struct {
	// Richtung is EIN or AUS.
	Richtung  string      `json:"richtung" validate:"required"`
	Kategorie string      `json:"kategorie" validate:"required"`
	Menge     json.Number `json:"menge" validate:"required"`
	Kommentar string      `json:"kommentar,omitempty" validate:"max=1000"`
	// Datum is YYYY-MM-DD; empty books on today.
	Datum string `json:"datum,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// ToUseCaseInput converts to use case input.
func (r *RecordEntryRequest) ToUseCaseInput(partnerID string) usecase.RecordEntryInput {
	return usecase.RecordEntryInput{
		PartnerID: partnerID,
		Direction: r.Richtung,
		Category:  r.Kategorie,
		Quantity:  r.Menge.String(),
		Comment:   r.Kommentar,
		Date:      r.Datum,
	}
}

// RecordCorrectionRequest represents a correction of an earlier entry.
type RecordCorrectionRequest struct {
	Belegnummer string      `json:"belegnummer" validate:"required"`
	Kategorie   string      `json:"kategorie" validate:"required"`
	Menge       json.Number `json:"menge" validate:"required"`
	Kommentar   string      `json:"kommentar" validate:"required,max=1000"`
	Datum       string      `json:"datum,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// ToUseCaseInput converts to use case input.
func (r *RecordCorrectionRequest) ToUseCaseInput(partnerID string) usecase.RecordCorrectionInput {
	return usecase.RecordCorrectionInput{
		PartnerID:   partnerID,
		Belegnummer: r.Belegnummer,
		Category:    r.Kategorie,
		Quantity:    r.Menge.String(),
		Comment:     r.Kommentar,
		Date:        r.Datum,
	}
}

// CloseMonthRequest represents a request to close a calendar month.
type CloseMonthRequest struct {
	Year  int `json:"year" validate:"required,min=1,max=9999"`
	Month int `json:"month" validate:"required,min=1,max=12"`
}

// ToUseCaseInput converts to use case input.
func (r *CloseMonthRequest) ToUseCaseInput(partnerID string) usecase.CloseMonthInput {
	return usecase.CloseMonthInput{
		PartnerID: partnerID,
		Year:      r.Year,
		Month:     r.Month,
	}
}

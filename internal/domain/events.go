package domain

import "time"

// Event types
const (
	EventTypePartnerCreated = "partner.created"
	EventTypePartnerDeleted = "partner.deleted"
	EventTypeEntryRecorded  = "entry.recorded"
	EventTypeEntryCorrected = "entry.corrected"
	EventTypeClosureCreated = "closure.created"
)

// Aggregate types
const (
	AggregateTypePartner = "partner"
	AggregateTypeEntry   = "entry"
	AggregateTypeClosure = "closure"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// PartnerCreatedPayload builds the payload of a partner.created event.
func PartnerCreatedPayload(p *Partner) map[string]any {
	payload := map[string]any{
		"partner_id": p.ID,
		"name":       p.Name,
	}
	if acc, err := p.DefaultAccount(); err == nil {
		payload["account_id"] = acc.ID
	}
	return payload
}

// PartnerDeletedPayload builds the payload of a partner.deleted event.
func PartnerDeletedPayload(p *Partner) map[string]any {
	return map[string]any{
		"partner_id": p.ID,
		"name":       p.Name,
	}
}

// EntryPayload builds the payload shared by entry.recorded and entry.corrected.
func EntryPayload(partnerID string, e *Entry) map[string]any {
	return map[string]any{
		"partner_id":  partnerID,
		"entry_id":    e.ID,
		"account_id":  e.AccountID,
		"belegnummer": e.Belegnummer,
		"datum":       e.Datum.Format(time.RFC3339),
		"richtung":    string(e.Direction),
		"konto_seq":   e.KontoSeq,
		"eup":         e.Quantities.EUP,
		"gb":          e.Quantities.GB,
		"tmb1":        e.Quantities.TMB1,
		"tmb2":        e.Quantities.TMB2,
		"erfasst_von": e.RecordedBy,
	}
}

// ClosurePayload builds the payload of a closure.created event.
func ClosurePayload(c *Closure) map[string]any {
	return map[string]any{
		"closure_id": c.ID,
		"partner_id": c.PartnerID,
		"year":       c.Year,
		"month":      c.Month,
		"period_end": c.PeriodEnd.Format(time.RFC3339),
		"eup":        c.Balance.EUP,
		"gb":         c.Balance.GB,
		"tmb1":       c.Balance.TMB1,
		"tmb2":       c.Balance.TMB2,
	}
}

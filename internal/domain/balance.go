package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// MinTime stands for "before any booking". A period starting at MinTime
// covers the whole history.
var MinTime = time.Time{}

// MaxTime stands for "after any booking". A period ending at MaxTime includes
// entries dated in the future.
var MaxTime = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

// Balance is the result of folding a partner's entries over a period.
type Balance struct {
	PartnerID   string
	PeriodStart time.Time
	PeriodEnd   time.Time

	SaldoStart   Quantities
	Movement     Quantities
	SaldoEnd     Quantities
	SumsInbound  Quantities
	SumsOutbound Quantities

	// Entries booked inside [PeriodStart, PeriodEnd], newest first.
	Entries []*Entry
	// BaseClosure seeded SaldoStart, nil when no closure precedes the period.
	BaseClosure *Closure
}

// ComputeBalance folds entries into a Balance for [start, end].
//
// base must be the most recent closure with PeriodEnd before start, or nil.
// Its balance seeds SaldoStart and everything booked at or before its cutoff
// is skipped. Entries between the cutoff and start are caught up into
// SaldoStart. Entries inside the period add to Movement; inbound and outbound
// ones also add their raw quantities to the directional sums. Corrections
// only count towards Movement.
func ComputeBalance(partnerID string, entries []*Entry, base *Closure, start, end time.Time) (*Balance, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s before start %s", ErrInvalidPeriod,
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	b := &Balance{
		PartnerID:   partnerID,
		PeriodStart: start,
		PeriodEnd:   end,
		BaseClosure: base,
		Entries:     []*Entry{},
	}

	baseDate := MinTime
	if base != nil {
		if !base.PeriodEnd.Before(start) {
			return nil, fmt.Errorf("%w: base closure %04d-%02d ends at or after period start",
				ErrInvalidPeriod, base.Year, base.Month)
		}
		b.SaldoStart = base.Balance
		baseDate = base.PeriodEnd
	}

	for _, e := range entries {
		if !e.HasDatum() || !e.Datum.After(baseDate) {
			continue
		}

		signed := e.Signed()

		switch {
		case e.Datum.Before(start):
			b.SaldoStart = b.SaldoStart.Add(signed)
		case !e.Datum.After(end):
			b.Movement = b.Movement.Add(signed)
			b.Entries = append(b.Entries, e)

			switch e.Direction {
			case DirectionInbound:
				b.SumsInbound = b.SumsInbound.Add(e.Quantities)
			case DirectionOutbound:
				b.SumsOutbound = b.SumsOutbound.Add(e.Quantities)
			}
		}
	}

	b.SaldoEnd = b.SaldoStart.Add(b.Movement)
	SortEntriesNewestFirst(b.Entries)

	return b, nil
}

// SortEntriesNewestFirst orders entries by Datum descending. Entries without a
// timestamp sort last; ties fall back to belegnummer and konto_seq descending.
func SortEntriesNewestFirst(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.HasDatum() != b.HasDatum() {
			return a.HasDatum()
		}
		if !a.Datum.Equal(b.Datum) {
			return a.Datum.After(b.Datum)
		}
		if a.Belegnummer != b.Belegnummer {
			return a.Belegnummer > b.Belegnummer
		}
		return a.KontoSeq > b.KontoSeq
	})
}

// ParseDirectionFilter resolves a listing filter. Empty and "ALLE" mean no
// filter and return ok=false.
func ParseDirectionFilter(s string) (d Direction, ok bool, err error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ALLE", "ALL":
		return "", false, nil
	case "EINGANG", "EIN", "INBOUND":
		return DirectionInbound, true, nil
	case "AUSGANG", "AUS", "OUTBOUND":
		return DirectionOutbound, true, nil
	case "KORREKTUR", "KORR", "CORRECTION":
		return DirectionCorrection, true, nil
	default:
		return "", false, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// FilterEntries returns the entries with direction d, preserving order.
func FilterEntries(entries []*Entry, d Direction) []*Entry {
	out := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if e.Direction == d {
			out = append(out, e)
		}
	}
	return out
}

// SumEntries adds up the raw quantities of entries, ignoring direction.
func SumEntries(entries []*Entry) Quantities {
	var total Quantities
	for _, e := range entries {
		total = total.Add(e.Quantities)
	}
	return total
}

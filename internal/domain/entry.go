package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Direction is the kind of pallet movement an entry records.
type Direction string

const (
	DirectionInbound    Direction = "Eingang"
	DirectionOutbound   Direction = "Ausgang"
	DirectionCorrection Direction = "Korrektur"
)

// IsValid reports whether d is one of the stored directions.
func (d Direction) IsValid() bool {
	switch d {
	case DirectionInbound, DirectionOutbound, DirectionCorrection:
		return true
	}
	return false
}

// Multiplier returns the sign applied to an entry's quantities when folding
// it into a balance. Corrections carry their sign in the stored quantity.
// Unknown directions keep the legacy +1.
func (d Direction) Multiplier() int64 {
	if d == DirectionOutbound {
		return -1
	}
	return 1
}

// ParseEntryDirection maps user input to Inbound or Outbound.
// Correction is never accepted here; corrections have their own path.
func ParseEntryDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "EIN", "EINGANG", "IN", "INBOUND":
		return DirectionInbound, nil
	case "AUS", "AUSGANG", "OUT", "OUTBOUND":
		return DirectionOutbound, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// Entry is one immutable line on a partner's pallet account.
type Entry struct {
	ID          string
	AccountID   string
	Belegnummer string
	// Datum is the booking timestamp. The zero value means the entry has no
	// timestamp and cannot be placed in time.
	Datum      time.Time
	Direction  Direction
	Quantities Quantities
	Comment    string
	KontoSeq   int32
	RecordedBy string
	CreatedAt  time.Time
}

// HasDatum reports whether the entry carries a booking timestamp.
func (e *Entry) HasDatum() bool {
	return !e.Datum.IsZero()
}

// IsOriginal reports whether the entry can be the target of a correction.
func (e *Entry) IsOriginal() bool {
	return e.Direction == DirectionInbound || e.Direction == DirectionOutbound
}

// Signed returns the entry's contribution to a running balance.
func (e *Entry) Signed() Quantities {
	return e.Quantities.Scale(e.Direction.Multiplier())
}

var referenceNumberRe = regexp.MustCompile(`\d{4,}`)

// HasReferenceNumber reports whether comment contains a run of at least four
// digits, which outbound entries need to point at a delivery document.
func HasReferenceNumber(comment string) bool {
	return referenceNumberRe.MatchString(comment)
}

// ParseQuantity parses a base-10 integer quantity. Negative values are allowed.
func ParseQuantity(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuantity, s)
	}
	return n, nil
}

const bookingDateLayout = "2006-01-02"

// ParseBookingDate parses a YYYY-MM-DD calendar date in now's location.
// An empty string means today.
func ParseBookingDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), nil
	}

	date, err := time.ParseInLocation(bookingDateLayout, s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return date, nil
}

// EffectiveTimestamp combines a calendar date with now's time of day so that
// entries booked on the same date stay ordered by recording time. Precision is
// cut to microseconds to match what the store keeps.
func EffectiveTimestamp(date, now time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d,
		now.Hour(), now.Minute(), now.Second(), now.Nanosecond()/1000*1000,
		now.Location())
}

// BelegnummerPrefix is the YYYYMMDD prefix shared by all vouchers issued on day.
func BelegnummerPrefix(day time.Time) string {
	return day.Format("20060102")
}

// FormatBelegnummer builds a voucher number from the day prefix and a
// per-day sequence, zero-padded to two digits.
func FormatBelegnummer(day time.Time, seq int64) string {
	return fmt.Sprintf("%s%02d", BelegnummerPrefix(day), seq)
}

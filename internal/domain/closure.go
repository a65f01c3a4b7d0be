package domain

import (
	"fmt"
	"time"
)

// Closure freezes a partner's balance at the end of a calendar month.
// Closures are append-only.
type Closure struct {
	ID        string
	PartnerID string
	Year      int
	Month     int
	Balance   Quantities
	PeriodEnd time.Time
	CreatedAt time.Time
}

// Locks reports whether a booking at ts falls on or before the closure cutoff.
func (c *Closure) Locks(ts time.Time) bool {
	return !ts.After(c.PeriodEnd)
}

// ValidateMonth checks a (year, month) pair.
func ValidateMonth(year, month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month %d out of range", ErrInvalidPeriod, month)
	}
	if year < 1 || year > 9999 {
		return fmt.Errorf("%w: year %d out of range", ErrInvalidPeriod, year)
	}
	return nil
}

// MonthStart returns the first instant of the month in loc.
func MonthStart(year, month int, loc *time.Location) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
}

// MonthEnd returns the last second of the month in loc: the first instant of
// the next month minus one second.
func MonthEnd(year, month int, loc *time.Location) time.Time {
	return MonthStart(year, month, loc).AddDate(0, 1, 0).Add(-time.Second)
}

// MonthStatus describes whether a month can still be closed.
type MonthStatus struct {
	Year      int
	Month     int
	PeriodEnd time.Time
	Closure   *Closure
	// Elapsed is true when the month ended before the first day of the
	// current month.
	Elapsed bool
}

// Closed reports whether a closure exists for the month.
func (s *MonthStatus) Closed() bool {
	return s.Closure != nil
}

// CanClose reports whether the month is fully elapsed and not yet closed.
func (s *MonthStatus) CanClose() bool {
	return s.Elapsed && !s.Closed()
}

// PreviousMonth returns the calendar month before the one containing t.
func PreviousMonth(t time.Time) (int, int) {
	prev := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, -1, 0)
	return prev.Year(), int(prev.Month())
}

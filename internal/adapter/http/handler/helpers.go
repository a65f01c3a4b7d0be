package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iho/palletledger/internal/adapter/http/dto"
	"github.com/iho/palletledger/internal/domain"
)

const dateLayout = "2006-01-02"

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError writes err with the status mapDomainError picks for it.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, mapDomainError(err), message, err.Error())
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, dto.ErrValidationFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrPartnerNotFound),
		errors.Is(err, domain.ErrEntryNotFound),
		errors.Is(err, domain.ErrClosureNotFound),
		errors.Is(err, domain.ErrOriginalEntryNotFound),
		errors.Is(err, domain.ErrNoAccount):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrClosureLocked),
		errors.Is(err, domain.ErrDuplicateClosure):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrExpiredToken):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInsufficientRole):
		return http.StatusForbidden
	case domain.IsValidationError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeAndValidate decodes a JSON body into req and checks its validate tags.
func decodeAndValidate(r *http.Request, req any) error {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", dto.ErrValidationFailed, err)
	}
	return dto.Validate(req)
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parsePeriod resolves the statement period of a request: start_date and
// end_date (both inclusive days), else year and month, else the month
// containing now. Dates are interpreted in now's location.
func parsePeriod(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	q := r.URL.Query()

	if q.Get("start_date") != "" || q.Get("end_date") != "" {
		return parseDateRange(r, now.Location())
	}

	yearStr, monthStr := strings.TrimSpace(q.Get("year")), strings.TrimSpace(q.Get("month"))
	if yearStr == "" && monthStr == "" {
		return domain.MonthStart(now.Year(), int(now.Month()), now.Location()),
			domain.MonthEnd(now.Year(), int(now.Month()), now.Location()), nil
	}

	year, month := now.Year(), 1
	var err error
	if yearStr != "" {
		if year, err = strconv.Atoi(yearStr); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: year %q", domain.ErrInvalidPeriod, yearStr)
		}
	}
	if monthStr != "" {
		if month, err = strconv.Atoi(monthStr); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: month %q", domain.ErrInvalidPeriod, monthStr)
		}
	}
	if err := domain.ValidateMonth(year, month); err != nil {
		return time.Time{}, time.Time{}, err
	}

	return domain.MonthStart(year, month, now.Location()), domain.MonthEnd(year, month, now.Location()), nil
}

// parseDateRange reads the required start_date and end_date parameters. The
// end day is included up to its last second.
func parseDateRange(r *http.Request, loc *time.Location) (time.Time, time.Time, error) {
	q := r.URL.Query()
	startStr, endStr := q.Get("start_date"), q.Get("end_date")
	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start_date and end_date are both required", domain.ErrInvalidPeriod)
	}

	start, err := time.ParseInLocation(dateLayout, startStr, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start_date %q", domain.ErrInvalidDate, startStr)
	}
	endDay, err := time.ParseInLocation(dateLayout, endStr, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date %q", domain.ErrInvalidDate, endStr)
	}

	return start, endDay.AddDate(0, 0, 1).Add(-time.Second), nil
}

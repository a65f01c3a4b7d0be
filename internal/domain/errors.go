package domain

import "errors"

var (
	// Lookup errors
	ErrPartnerNotFound       = errors.New("partner not found")
	ErrEntryNotFound         = errors.New("entry not found")
	ErrClosureNotFound       = errors.New("closure not found")
	ErrOriginalEntryNotFound = errors.New("original entry not found")
	ErrNoAccount             = errors.New("partner has no account")

	// Closure errors
	ErrClosureLocked    = errors.New("period is locked by a month closure")
	ErrDuplicateClosure = errors.New("month already closed")

	// Input errors
	ErrInvalidQuantity        = errors.New("quantity must be an integer")
	ErrInvalidDirection       = errors.New("invalid direction")
	ErrInvalidCategory        = errors.New("invalid pallet category")
	ErrInvalidPeriod          = errors.New("invalid period")
	ErrInvalidDate            = errors.New("invalid date")
	ErrMissingReferenceNumber = errors.New("outbound entries need a reference number of at least 4 digits in the comment")
	ErrMissingBelegnummer     = errors.New("belegnummer is required")
	ErrMissingComment         = errors.New("comment is required")
)

// IsValidationError reports whether err is caused by caller input.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidQuantity,
		ErrInvalidDirection,
		ErrInvalidCategory,
		ErrInvalidPeriod,
		ErrInvalidDate,
		ErrMissingReferenceNumber,
		ErrMissingBelegnummer,
		ErrMissingComment,
		ErrInvalidPartnerName,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

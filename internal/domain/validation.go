package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Validation errors
var (
	ErrInvalidPartnerName = errors.New("invalid partner name")
)

// Validation constants
const (
	MaxPartnerNameLength = 255
	DefaultPageSize      = 20
	MaxPageSize          = 100
)

// NormalizePartnerName trims and validates a partner display name.
func NormalizePartnerName(name string) (string, error) {
	name = strings.TrimSpace(name)

	if name == "" {
		return "", fmt.Errorf("%w: name cannot be empty", ErrInvalidPartnerName)
	}

	if utf8.RuneCountInString(name) > MaxPartnerNameLength {
		return "", fmt.Errorf("%w: name exceeds %d characters", ErrInvalidPartnerName, MaxPartnerNameLength)
	}

	return name, nil
}

// ValidatePagination clamps pagination parameters.
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

package domain

import (
	"fmt"
	"strings"
)

// Category is one of the four pallet kinds tracked per account.
type Category string

const (
	CategoryEUP  Category = "EUP"
	CategoryGB   Category = "GB"
	CategoryTMB1 Category = "TMB1"
	CategoryTMB2 Category = "TMB2"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryEUP, CategoryGB, CategoryTMB1, CategoryTMB2}

// ParseCategory resolves a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToUpper(strings.TrimSpace(s))) {
	case CategoryEUP:
		return CategoryEUP, nil
	case CategoryGB:
		return CategoryGB, nil
	case CategoryTMB1:
		return CategoryTMB1, nil
	case CategoryTMB2:
		return CategoryTMB2, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
}

// Quantities holds one signed count per pallet category.
type Quantities struct {
	EUP  int64 `json:"eup"`
	GB   int64 `json:"gb"`
	TMB1 int64 `json:"tmb1"`
	TMB2 int64 `json:"tmb2"`
}

// QuantityOf returns Quantities with n in category c and zero elsewhere.
func QuantityOf(c Category, n int64) Quantities {
	return Quantities{}.With(c, n)
}

// Add returns the per-category sum.
func (q Quantities) Add(o Quantities) Quantities {
	return Quantities{
		EUP:  q.EUP + o.EUP,
		GB:   q.GB + o.GB,
		TMB1: q.TMB1 + o.TMB1,
		TMB2: q.TMB2 + o.TMB2,
	}
}

// Scale multiplies every category by k.
func (q Quantities) Scale(k int64) Quantities {
	return Quantities{
		EUP:  q.EUP * k,
		GB:   q.GB * k,
		TMB1: q.TMB1 * k,
		TMB2: q.TMB2 * k,
	}
}

// Get returns the count for category c.
func (q Quantities) Get(c Category) int64 {
	switch c {
	case CategoryEUP:
		return q.EUP
	case CategoryGB:
		return q.GB
	case CategoryTMB1:
		return q.TMB1
	case CategoryTMB2:
		return q.TMB2
	}
	return 0
}

// With returns a copy with category c set to n.
func (q Quantities) With(c Category, n int64) Quantities {
	switch c {
	case CategoryEUP:
		q.EUP = n
	case CategoryGB:
		q.GB = n
	case CategoryTMB1:
		q.TMB1 = n
	case CategoryTMB2:
		q.TMB2 = n
	}
	return q
}

// Total sums all categories. Only meaningful for display.
func (q Quantities) Total() int64 {
	return q.EUP + q.GB + q.TMB1 + q.TMB2
}

// IsZero reports whether every category is zero.
func (q Quantities) IsZero() bool {
	return q == Quantities{}
}

package domain

import (
	"errors"
	"testing"
)

func TestParseCategory(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"eup", "EUP", " Gb ", "tmb1", "TMB2"} {
		if _, err := ParseCategory(in); err != nil {
			t.Fatalf("ParseCategory(%q) failed: %v", in, err)
		}
	}

	if _, err := ParseCategory("CHEP"); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestQuantitiesArithmetic(t *testing.T) {
	t.Parallel()

	a := Quantities{EUP: 10, GB: -2, TMB1: 1}
	b := Quantities{EUP: -4, GB: 2, TMB2: 3}

	sum := a.Add(b)
	if sum != (Quantities{EUP: 6, GB: 0, TMB1: 1, TMB2: 3}) {
		t.Fatalf("unexpected sum %+v", sum)
	}

	if neg := a.Scale(-1); neg != (Quantities{EUP: -10, GB: 2, TMB1: -1}) {
		t.Fatalf("unexpected scaled value %+v", neg)
	}

	if sum.Total() != 10 {
		t.Fatalf("expected total 10, got %d", sum.Total())
	}
}

func TestQuantitiesWithAndGet(t *testing.T) {
	t.Parallel()

	for _, c := range Categories {
		q := QuantityOf(c, 7)
		if q.Get(c) != 7 {
			t.Fatalf("expected 7 in %s, got %+v", c, q)
		}
		if q.Total() != 7 {
			t.Fatalf("expected other categories to stay zero, got %+v", q)
		}
	}

	if !(Quantities{}).IsZero() {
		t.Fatal("zero value should report IsZero")
	}
}

package postgres

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestULIDGeneratorIsMonotonicWithinMillisecond(t *testing.T) {
	fixed := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	g := newULIDGeneratorWithClock(func() time.Time { return fixed })

	prev := g.Generate()
	for i := 0; i < 100; i++ {
		next := g.Generate()
		if next <= prev {
			t.Fatalf("expected %s > %s", next, prev)
		}
		prev = next
	}

	id, err := ulid.Parse(prev)
	if err != nil {
		t.Fatalf("invalid ulid: %v", err)
	}
	if ulid.Time(id.Time()).UnixMilli() != fixed.UnixMilli() {
		t.Errorf("expected timestamp %s, got %s", fixed, ulid.Time(id.Time()))
	}
}

func TestULIDGeneratorLength(t *testing.T) {
	if got := NewULIDGenerator().Generate(); len(got) != 26 {
		t.Errorf("expected 26 characters, got %d", len(got))
	}
}

package clock

import (
	"testing"
	"time"
)

func TestRealNowIsUTC(t *testing.T) {
	r := Real{}
	if r.Now().Location() != time.UTC {
		t.Fatal("expected Real clock to report UTC")
	}
}

func TestManualSetAndAdvance(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewManual(start)

	if !m.Now().Equal(start) {
		t.Fatalf("expected %v, got %v", start, m.Now())
	}

	m.Advance(time.Hour)
	want := start.Add(time.Hour)
	if !m.Now().Equal(want) {
		t.Fatalf("expected %v, got %v", want, m.Now())
	}

	later := start.Add(24 * time.Hour)
	m.Set(later)
	if !m.Now().Equal(later) {
		t.Fatalf("expected %v, got %v", later, m.Now())
	}
}

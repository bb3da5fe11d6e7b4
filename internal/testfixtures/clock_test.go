package testfixtures

import (
	"testing"
	"time"
)

func TestClock(t *testing.T) {
	t.Parallel()

	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected reference time, got %v", clock.Now())
	}
	if got := clock.Today(); got != "2024-01-01" {
		t.Fatalf("expected reference date, got %s", got)
	}

	advanced := clock.Advance(36 * time.Hour)
	if got := clock.NowFunc()(); !got.Equal(advanced) {
		t.Fatalf("expected NowFunc to follow Advance, got %v", got)
	}
	if got := clock.Today(); got != "2024-01-02" {
		t.Fatalf("expected advanced date, got %s", got)
	}

	clock.Set(time.Date(2030, 5, 6, 0, 0, 0, 0, time.UTC))
	if got := clock.Today(); got != "2030-05-06" {
		t.Fatalf("expected set date, got %s", got)
	}
}

package timegrid

import (
	"math"
	"testing"

	"github.com/example/timeblocks/internal/block"
)

func TestQuantizer_PixelsToTime(t *testing.T) {
	t.Parallel()

	q := New(60)

	tests := []struct {
		name       string
		y, top     float64
		wantHour   int
		wantMinute int
	}{
		{name: "exact hour", y: 600, top: 0, wantHour: 10, wantMinute: 0},
		{name: "offset container", y: 700, top: 100, wantHour: 10, wantMinute: 0},
		{name: "rounds down", y: 607, top: 0, wantHour: 10, wantMinute: 0},
		{name: "rounds up", y: 608, top: 0, wantHour: 10, wantMinute: 15},
		{name: "carries into next hour", y: 658, top: 0, wantHour: 11, wantMinute: 0},
		{name: "above container clamps to midnight", y: -40, top: 0, wantHour: 0, wantMinute: 0},
		{name: "below container clamps to last hour", y: 5000, top: 0, wantHour: 23, wantMinute: 0},
		{name: "late quarter", y: 23*60 + 44, top: 0, wantHour: 23, wantMinute: 45},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			h, m := q.PixelsToTime(tc.y, tc.top)
			if h != tc.wantHour || m != tc.wantMinute {
				t.Fatalf("PixelsToTime(%v, %v) = %02d:%02d, want %02d:%02d", tc.y, tc.top, h, m, tc.wantHour, tc.wantMinute)
			}
		})
	}
}

func TestQuantizer_RoundTripOnGrid(t *testing.T) {
	t.Parallel()

	for _, pph := range []float64{48, 60, 64, 97.5} {
		q := New(pph)
		for hour := 0; hour < 24; hour++ {
			for minute := 0; minute < 60; minute += Step {
				y := q.TimeToPixels(hour, minute)
				h, m := q.PixelsToTime(y, 0)
				if h != hour || m != minute {
					t.Fatalf("pph=%v: round trip of %02d:%02d produced %02d:%02d", pph, hour, minute, h, m)
				}
			}
		}
	}
}

func TestQuantizer_TimeToPixelsIsExact(t *testing.T) {
	t.Parallel()

	q := New(60)
	if got := q.TimeToPixels(9, 7); math.Abs(got-547) > 1e-9 {
		t.Fatalf("expected unsnapped 547px, got %v", got)
	}
	if got := q.ClockToPixels(block.MustClock("01:30")); math.Abs(got-90) > 1e-9 {
		t.Fatalf("expected 90px, got %v", got)
	}
}

func TestQuantizer_SnapDelta(t *testing.T) {
	t.Parallel()

	q := New(60)
	tests := map[float64]int{
		0:    0,
		7:    0,
		8:    15,
		-8:   -15,
		44:   45,
		-100: -105,
		120:  120,
	}
	for dy, want := range tests {
		if got := q.SnapDelta(dy); got != want {
			t.Fatalf("SnapDelta(%v) = %d, want %d", dy, got, want)
		}
	}
}

func TestNew_DefaultsScale(t *testing.T) {
	t.Parallel()

	if got := New(0).PixelsPerHour; got != DefaultPixelsPerHour {
		t.Fatalf("expected default scale, got %v", got)
	}
	if got := (Quantizer{}).TimeToPixels(1, 0); got != DefaultPixelsPerHour {
		t.Fatalf("expected zero value to use default scale, got %v", got)
	}
}

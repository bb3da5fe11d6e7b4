// Package timegrid converts between vertical pixel offsets and wall-clock
// times on a 15-minute grid.
package timegrid

import (
	"math"

	"github.com/example/timeblocks/internal/block"
)

const (
	// Step is the snapping granularity in minutes.
	Step = 15
	// MinDuration is the shortest block a move or resize may produce.
	MinDuration = 15
	// DefaultCreateSpan is applied when a create drag collapses to nothing.
	DefaultCreateSpan = 60
	// LastStart is the latest start a moved block may take (23:45).
	LastStart block.Clock = block.MinutesPerDay - Step
	// LastEnd is the latest end any block may take (23:59).
	LastEnd = block.EndOfDay
	// DefaultPixelsPerHour matches the default day-view row height.
	DefaultPixelsPerHour = 60.0
)

// Quantizer maps pixels to snapped times for one rendering scale.
type Quantizer struct {
	PixelsPerHour float64
}

// New returns a Quantizer, falling back to DefaultPixelsPerHour when the
// scale is not positive.
func New(pixelsPerHour float64) Quantizer {
	if pixelsPerHour <= 0 || math.IsNaN(pixelsPerHour) || math.IsInf(pixelsPerHour, 0) {
		pixelsPerHour = DefaultPixelsPerHour
	}
	return Quantizer{PixelsPerHour: pixelsPerHour}
}

func (q Quantizer) scale() float64 {
	if q.PixelsPerHour <= 0 {
		return DefaultPixelsPerHour
	}
	return q.PixelsPerHour
}

// PixelsToTime converts the pointer position y inside a container whose top
// edge sits at containerTop into a time snapped to the nearest 15 minutes.
// Results never leave [00:00, 23:45]; a 23:5x position rounds to the next
// hour, which is then clamped back to 23.
func (q Quantizer) PixelsToTime(y, containerTop float64) (hour, minute int) {
	minutes := (y - containerTop) / q.scale() * 60
	minutes = math.Max(0, math.Min(float64(block.EndOfDay), minutes))

	hour = int(math.Floor(minutes / 60))
	rem := minutes - float64(hour*60)
	minute = int(math.Round(rem/Step)) * Step
	if minute >= 60 {
		minute = 0
		hour++
	}
	if hour > 23 {
		hour = 23
	}
	if hour < 0 {
		hour = 0
	}
	return hour, minute
}

// PixelsToClock is PixelsToTime folded into a Clock.
func (q Quantizer) PixelsToClock(y, containerTop float64) block.Clock {
	h, m := q.PixelsToTime(y, containerTop)
	return block.NewClock(h, m)
}

// TimeToPixels is the exact inverse used to draw stored times.
func (q Quantizer) TimeToPixels(hour, minute int) float64 {
	return (float64(hour) + float64(minute)/60) * q.scale()
}

// ClockToPixels is TimeToPixels for a Clock.
func (q Quantizer) ClockToPixels(c block.Clock) float64 {
	return q.TimeToPixels(c.Hour(), c.Minute())
}

// SnapDelta turns a vertical drag distance into a minute offset rounded to
// the grid step.
func (q Quantizer) SnapDelta(dy float64) int {
	return SnapMinutes(dy / q.scale() * 60)
}

// SnapMinutes rounds a raw minute offset to the nearest grid step.
func SnapMinutes(minutes float64) int {
	return int(math.Round(minutes/Step)) * Step
}

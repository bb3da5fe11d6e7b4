package gesture

import (
	"errors"
	"time"

	"github.com/example/timeblocks/internal/block"
	"github.com/example/timeblocks/internal/timegrid"
)

// ErrNotMovable is returned for recurring blocks and read-only overlays.
var ErrNotMovable = errors.New("gesture: target cannot be moved, resized or duplicated")

const (
	duplicateGap      = 30
	duplicateFallback = 60
)

// NormalizeCreate orders the two ends of a create drag. A drag that
// collapsed to a single point becomes a DefaultCreateSpan block, cut at the
// end of the day.
func NormalizeCreate(anchor, current block.Clock) (start, end block.Clock) {
	start, end = anchor, current
	if end < start {
		start, end = end, start
	}
	start = start.Clamp(0, timegrid.LastStart)
	if end <= start {
		end = start + timegrid.DefaultCreateSpan
	}
	if end > timegrid.LastEnd {
		end = timegrid.LastEnd
	}
	return start, end
}

// ApplyMove shifts an interval by delta minutes. The start is clamped into
// [00:00, 23:45] and the end re-derived from it so the duration survives,
// then bounded to [00:15, 23:59]. A zero delta leaves the interval as stored.
func ApplyMove(start, end block.Clock, delta int) (block.Clock, block.Clock) {
	if delta == 0 {
		return start, end
	}
	duration := end - start
	if duration < timegrid.MinDuration {
		duration = timegrid.MinDuration
	}
	newStart := (start + block.Clock(delta)).Clamp(0, timegrid.LastStart)
	newEnd := (newStart + duration).Clamp(timegrid.MinDuration, timegrid.LastEnd)
	return newStart, newEnd
}

// ApplyResize moves the end of an interval by delta minutes, keeping at
// least MinDuration and never passing 23:59. A zero delta returns end as is.
func ApplyResize(start, end block.Clock, delta int) block.Clock {
	if delta == 0 {
		return end
	}
	newEnd := end + block.Clock(delta)
	if floor := start + timegrid.MinDuration; newEnd < floor {
		newEnd = floor
	}
	if newEnd > timegrid.LastEnd {
		newEnd = timegrid.LastEnd
	}
	return newEnd
}

// Duplicate clones b under newID as a one-off block on date, or on b's own
// date when date is empty. The copy starts 30 minutes after the original
// ends; if that would run past the end of the day it starts 60 minutes
// before the original instead. Completion state is reset.
func Duplicate(b block.Block, newID string, date block.Date) (block.Block, error) {
	if !TargetOf(b).Movable() {
		return block.Block{}, ErrNotMovable
	}

	out := b.Clone()
	out.ID = newID
	if date != "" {
		out.Date = date
	}
	out.Kind = block.KindSingle
	out.Recurrence = block.Recurrence{}
	out.Completed = false
	for i := range out.Checklist {
		out.Checklist[i].Completed = false
	}
	out.CreatedAt, out.UpdatedAt = time.Time{}, time.Time{}

	duration := b.End - b.Start
	start := b.End + duplicateGap
	if start > timegrid.LastStart || start+duration > timegrid.LastEnd {
		start = b.Start - duplicateFallback
		if start < 0 {
			start = 0
		}
	}
	out.Start = start
	out.End = (start + duration).Clamp(timegrid.MinDuration, timegrid.LastEnd)
	return out, nil
}

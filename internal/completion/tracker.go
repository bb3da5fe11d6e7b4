// Package completion resolves and toggles completion state for blocks and
// their occurrences.
package completion

import "github.com/example/timeblocks/internal/block"

// IsDone reports whether the occurrence of b on date is complete. Single
// blocks use their own flag; recurring blocks look the date up in their
// completion log.
func IsDone(b block.Block, date block.Date) bool {
	if b.IsRecurring() {
		return b.Recurrence.Completions.Done(date)
	}
	return b.Completed
}

// Toggle flips the completion of the occurrence on date and returns the
// updated copy. b is left untouched. Un-completing a recurring occurrence
// removes the date from the log.
func Toggle(b block.Block, date block.Date) block.Block {
	out := b.Clone()
	if !out.IsRecurring() {
		out.Completed = !out.Completed
		return out
	}

	if out.Recurrence.Completions.Done(date) {
		delete(out.Recurrence.Completions, date)
		return out
	}
	if out.Recurrence.Completions == nil {
		out.Recurrence.Completions = block.CompletionLog{}
	}
	out.Recurrence.Completions[date] = true
	return out
}

// ToggleChecklistItem flips one checklist item. The boolean is false when
// no item has that ID, in which case the returned block equals b.
func ToggleChecklistItem(b block.Block, itemID string) (block.Block, bool) {
	out := b.Clone()
	for i := range out.Checklist {
		if out.Checklist[i].ID == itemID {
			out.Checklist[i].Completed = !out.Checklist[i].Completed
			return out, true
		}
	}
	return out, false
}

// Progress is a completed/total tally.
type Progress struct {
	Completed int
	Total     int
}

// Ratio returns Completed/Total, or 0 for an empty tally.
func (p Progress) Ratio() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Completed) / float64(p.Total)
}

// Add merges two tallies.
func (p Progress) Add(other Progress) Progress {
	return Progress{Completed: p.Completed + other.Completed, Total: p.Total + other.Total}
}

// OccurrenceProgress counts one unit for the occurrence itself and one per
// checklist item.
func OccurrenceProgress(b block.Block, date block.Date) Progress {
	p := Progress{Total: 1 + len(b.Checklist)}
	if IsDone(b, date) {
		p.Completed++
	}
	for _, item := range b.Checklist {
		if item.Completed {
			p.Completed++
		}
	}
	return p
}

// DailyProgress sums OccurrenceProgress over the occurrences of one day.
func DailyProgress(occurrences []block.Occurrence) Progress {
	var total Progress
	for _, occ := range occurrences {
		total = total.Add(OccurrenceProgress(occ.Block, occ.Date))
	}
	return total
}

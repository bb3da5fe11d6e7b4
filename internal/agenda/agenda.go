// Package agenda runs the render pass: it projects blocks and overlays onto
// a set of dates, annotates completion and assigns layout columns.
package agenda

import (
	"sort"

	"github.com/example/timeblocks/internal/block"
	"github.com/example/timeblocks/internal/completion"
	"github.com/example/timeblocks/internal/layout"
	"github.com/example/timeblocks/internal/recurrence"
)

// Entry is one positioned item of a day: a block occurrence or an overlay.
type Entry struct {
	// ID is unique within a day: "<blockID>@<date>" for occurrences, the
	// overlay ID otherwise.
	ID           string
	BlockID      string
	Source       block.SourceKind
	Title        string
	Date         block.Date
	Start        block.Clock
	End          block.Clock
	Recurring    bool
	Movable      bool
	Done         bool
	Color        string
	Category     string
	Checklist    []block.ChecklistItem
	Column       int
	TotalColumns int
}

// Day is the laid out content of one date.
type Day struct {
	Date     block.Date
	Entries  []Entry
	Progress completion.Progress
}

// OccurrenceID builds the entry ID of a block occurrence.
func OccurrenceID(blockID string, date block.Date) string {
	return blockID + "@" + string(date)
}

// Occurrences projects blocks onto one date with completion resolved.
func Occurrences(blocks []block.Block, date block.Date) []block.Occurrence {
	var out []block.Occurrence
	for _, b := range blocks {
		if !recurrence.OccursOn(b, date) {
			continue
		}
		out = append(out, block.Occurrence{
			Block: b,
			Date:  date,
			Start: b.Start,
			End:   b.End,
			Done:  completion.IsDone(b, date),
		})
	}
	return out
}

// Build lays out every date in dates. Overlays are matched to dates by
// their own Date field and are excluded from progress.
func Build(blocks []block.Block, overlays []block.Overlay, dates []block.Date) []Day {
	byDate := make(map[block.Date][]block.Overlay)
	for _, o := range overlays {
		byDate[o.Date] = append(byDate[o.Date], o)
	}

	days := make([]Day, 0, len(dates))
	for _, date := range dates {
		days = append(days, buildDay(blocks, byDate[date], date))
	}
	return days
}

func buildDay(blocks []block.Block, overlays []block.Overlay, date block.Date) Day {
	occurrences := Occurrences(blocks, date)
	entries := make([]Entry, 0, len(occurrences)+len(overlays))

	for _, occ := range occurrences {
		b := occ.Block
		entries = append(entries, Entry{
			ID:        OccurrenceID(b.ID, date),
			BlockID:   b.ID,
			Source:    block.SourceBlock,
			Title:     b.Title,
			Date:      date,
			Start:     occ.Start,
			End:       occ.End,
			Recurring: b.IsRecurring(),
			Movable:   !b.IsRecurring(),
			Done:      occ.Done,
			Color:     b.Color,
			Category:  b.Category,
			Checklist: append([]block.ChecklistItem(nil), b.Checklist...),
		})
	}
	for _, o := range overlays {
		entries = append(entries, Entry{
			ID:     o.ID,
			Source: o.Kind,
			Title:  o.Title,
			Date:   date,
			Start:  o.Start,
			End:    o.End,
		})
	}

	intervals := make([]layout.Interval, len(entries))
	for i, e := range entries {
		intervals[i] = layout.Interval{ID: e.ID, Start: e.Start, End: e.End}
	}
	placements := layout.Layout(intervals)
	for i := range entries {
		p := placements[entries[i].ID]
		entries[i].Column = p.Column
		entries[i].TotalColumns = p.TotalColumns
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Start != entries[j].Start {
			return entries[i].Start < entries[j].Start
		}
		return entries[i].Column < entries[j].Column
	})

	return Day{Date: date, Entries: entries, Progress: completion.DailyProgress(occurrences)}
}

// Conflicts lists the entries of day that overlap the interval of id.
func Conflicts(day Day, id string) []layout.Conflict {
	intervals := make([]layout.Interval, 0, len(day.Entries))
	var candidate layout.Interval
	found := false
	for _, e := range day.Entries {
		iv := layout.Interval{ID: e.ID, Start: e.Start, End: e.End}
		if e.ID == id {
			candidate, found = iv, true
		}
		intervals = append(intervals, iv)
	}
	if !found {
		return nil
	}
	return layout.Conflicts(candidate, intervals)
}

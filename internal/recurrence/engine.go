package recurrence

import (
	"errors"
	"sort"

	"github.com/example/timeblocks/internal/block"
)

// DefaultMaxWindowDays bounds a single generation request. A month grid
// needs 42 days; a year plus slack covers exports.
const DefaultMaxWindowDays = 370

// ErrInvalidWindow indicates the generation window is inverted, unbounded or too wide.
var ErrInvalidWindow = errors.New("recurrence: generation window must be bounded and ordered")

// OccursOn reports whether b projects an occurrence onto date.
//
// Single blocks occur only on their anchor date. Recurring blocks occur when
// all of the following hold:
//   - the weekday of date is selected (an empty selection never matches);
//   - date is on or after the recurrence start, or the block date if unset;
//   - date is on or before the recurrence end, when one is set;
//   - date is not excluded.
func OccursOn(b block.Block, date block.Date) bool {
	switch b.Kind {
	case block.KindRecurring:
		return occursRecurring(b, date)
	default:
		return b.Date == date
	}
}

func occursRecurring(b block.Block, date block.Date) bool {
	rule := b.Recurrence
	if rule.Days.Empty() {
		return false
	}
	if !rule.Days.Has(date.Weekday()) {
		return false
	}
	start := rule.StartDate
	if start == "" {
		start = b.Date
	}
	if date < start {
		return false
	}
	if rule.EndDate != "" && date > rule.EndDate {
		return false
	}
	return !rule.Excluded.Has(date)
}

// Expand lists the dates in [from, to] on which b occurs. An inverted range
// or a malformed bound yields nothing.
func Expand(b block.Block, from, to block.Date) []block.Date {
	if !from.Valid() || !to.Valid() || to < from {
		return nil
	}
	var dates []block.Date
	for i, n := 0, from.DaysUntil(to); i <= n; i++ {
		if d := from.AddDays(i); OccursOn(b, d) {
			dates = append(dates, d)
		}
	}
	return dates
}

// GenerateOptions bounds occurrence generation.
type GenerateOptions struct {
	RangeStart block.Date
	RangeEnd   block.Date
}

// Engine projects block definitions onto bounded date windows.
type Engine struct {
	maxWindowDays int
}

// NewEngine constructs an Engine. A non-positive maxWindowDays selects
// DefaultMaxWindowDays.
func NewEngine(maxWindowDays int) *Engine {
	if maxWindowDays <= 0 {
		maxWindowDays = DefaultMaxWindowDays
	}
	return &Engine{maxWindowDays: maxWindowDays}
}

// CheckWindow reports ErrInvalidWindow for windows GenerateOccurrences
// would refuse.
func (e *Engine) CheckWindow(opts GenerateOptions) error {
	if opts.RangeStart == "" || opts.RangeEnd == "" {
		return ErrInvalidWindow
	}
	if !opts.RangeStart.Valid() || !opts.RangeEnd.Valid() {
		return ErrInvalidWindow
	}
	if opts.RangeEnd < opts.RangeStart {
		return ErrInvalidWindow
	}
	limit := DefaultMaxWindowDays
	if e != nil && e.maxWindowDays > 0 {
		limit = e.maxWindowDays
	}
	if opts.RangeStart.DaysUntil(opts.RangeEnd)+1 > limit {
		return ErrInvalidWindow
	}
	return nil
}

// GenerateOccurrences produces the occurrences of b within the window, in
// date order. Completion is left unset; callers annotate it.
func (e *Engine) GenerateOccurrences(b block.Block, opts GenerateOptions) ([]block.Occurrence, error) {
	if err := e.CheckWindow(opts); err != nil {
		return nil, err
	}

	dates := Expand(b, opts.RangeStart, opts.RangeEnd)
	occurrences := make([]block.Occurrence, 0, len(dates))
	for _, d := range dates {
		occurrences = append(occurrences, block.Occurrence{
			Block: b,
			Date:  d,
			Start: b.Start,
			End:   b.End,
		})
	}
	return occurrences, nil
}

// ExpandAll projects every block onto the window. Results are ordered by
// date, then start time, then block ID so callers see a stable sequence.
func (e *Engine) ExpandAll(blocks []block.Block, opts GenerateOptions) ([]block.Occurrence, error) {
	if err := e.CheckWindow(opts); err != nil {
		return nil, err
	}

	all := make([]block.Occurrence, 0, len(blocks))
	for _, b := range blocks {
		occ, err := e.GenerateOccurrences(b, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, occ...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Date != all[j].Date {
			return all[i].Date < all[j].Date
		}
		if all[i].Start != all[j].Start {
			return all[i].Start < all[j].Start
		}
		return all[i].Block.ID < all[j].Block.ID
	})
	return all, nil
}

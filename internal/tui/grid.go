package tui

import (
	"github.com/example/timeblocks/internal/agenda"
	"github.com/example/timeblocks/internal/block"
	"github.com/example/timeblocks/internal/gesture"
	"github.com/example/timeblocks/internal/timegrid"
)

const (
	// headerRows sit above the first grid row: the title and a spacer.
	headerRows = 2
	// gutterWidth is "HH:MM │".
	gutterWidth    = 7
	minColumnWidth = 12
)

// grid maps terminal rows and columns onto the day. Each row covers
// 60/rowsPerHour minutes; the pointer unit handed to the gesture controller
// is one terminal row.
type grid struct {
	rowsPerHour int
	scroll      int
	visible     int
	width       int
}

func validRowsPerHour(n int) int {
	switch n {
	case 1, 2, 4:
		return n
	default:
		return 4
	}
}

func (g grid) minutesPerRow() int { return 60 / g.rowsPerHour }

func (g grid) totalRows() int { return 24 * g.rowsPerHour }

func (g grid) quantizer() timegrid.Quantizer {
	return timegrid.New(float64(g.rowsPerHour))
}

// containerTop is the screen row at which 00:00 would sit.
func (g grid) containerTop() float64 {
	return float64(headerRows - g.scroll)
}

func (g grid) clockAt(row int) block.Clock {
	return block.Clock(row * g.minutesPerRow())
}

// span returns the first and last grid rows an interval touches.
func (g grid) span(start, end block.Clock) (first, last int) {
	mpr := g.minutesPerRow()
	first = int(start) / mpr
	last = (int(end)+mpr-1)/mpr - 1
	if last < first {
		last = first
	}
	if last >= g.totalRows() {
		last = g.totalRows() - 1
	}
	return first, last
}

// rowAt resolves a screen row to a visible grid row.
func (g grid) rowAt(y int) (int, bool) {
	row := y - headerRows + g.scroll
	if y < headerRows || row >= g.scroll+g.visible || row >= g.totalRows() {
		return 0, false
	}
	return row, true
}

// slot returns the horizontal cell range [x0, x1) of a layout column
// inside the day column.
func (g grid) slot(column, total int) (x0, x1 int) {
	if total < 1 {
		total = 1
	}
	x0 = column * g.width / total
	x1 = (column + 1) * g.width / total
	return x0, x1
}

func (g grid) clampScroll(scroll int) int {
	maxScroll := g.totalRows() - g.visible
	if scroll > maxScroll {
		scroll = maxScroll
	}
	if scroll < 0 {
		scroll = 0
	}
	return scroll
}

// entryAt finds the topmost entry drawn at grid row and column offset x.
func (g grid) entryAt(day agenda.Day, row, x int) (agenda.Entry, bool) {
	for i := len(day.Entries) - 1; i >= 0; i-- {
		e := day.Entries[i]
		first, last := g.span(e.Start, e.End)
		if row < first || row > last {
			continue
		}
		x0, x1 := g.slot(e.Column, e.TotalColumns)
		if x >= x0 && x < x1 {
			return e, true
		}
	}
	return agenda.Entry{}, false
}

// targetOf describes an entry for the gesture controller.
func targetOf(e agenda.Entry) gesture.Target {
	if e.Source == block.SourceBlock {
		return gesture.Target{ID: e.BlockID, Source: e.Source, Recurring: e.Recurring, Start: e.Start, End: e.End}
	}
	return gesture.Target{ID: e.ID, Source: e.Source, Start: e.Start, End: e.End}
}

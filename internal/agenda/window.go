package agenda

import (
	"time"

	"github.com/example/timeblocks/internal/block"
)

// MonthGridDays is the size of a six-week month grid.
const MonthGridDays = 42

// Days lists every date in [from, to]. An inverted range or a malformed
// bound yields nothing.
func Days(from, to block.Date) []block.Date {
	if !from.Valid() || !to.Valid() || to < from {
		return nil
	}
	n := from.DaysUntil(to)
	out := make([]block.Date, 0, n+1)
	for i := 0; i <= n; i++ {
		out = append(out, from.AddDays(i))
	}
	return out
}

// StartOfWeek returns the latest date on or before d that falls on weekStart.
func StartOfWeek(d block.Date, weekStart time.Weekday) block.Date {
	offset := (int(d.Weekday()) - int(weekStart) + 7) % 7
	return d.AddDays(-offset)
}

// Week returns the seven dates of the week containing d.
func Week(d block.Date, weekStart time.Weekday) []block.Date {
	start := StartOfWeek(d, weekStart)
	return Days(start, start.AddDays(6))
}

// MonthGrid returns the 42 dates shown for the month containing d, starting
// on the week that holds the first of the month.
func MonthGrid(d block.Date, weekStart time.Weekday) []block.Date {
	t := d.Time()
	first := block.DateOf(time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC))
	start := StartOfWeek(first, weekStart)
	return Days(start, start.AddDays(MonthGridDays-1))
}

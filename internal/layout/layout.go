// Package layout assigns overlapping intervals of one day to side-by-side
// columns and reports overlaps between them.
package layout

import (
	"sort"

	"github.com/example/timeblocks/internal/block"
)

// Interval is one entry of a day to lay out. End must be after Start.
type Interval struct {
	ID    string
	Start block.Clock
	End   block.Clock
}

// Placement is the column assigned to an interval. Column is zero based and
// TotalColumns is shared by every member of an overlapping cluster.
type Placement struct {
	Column       int
	TotalColumns int
}

// Overlaps reports whether a and b share time. Touching intervals do not.
func Overlaps(a, b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

// Layout places intervals with greedy first-fit partitioning.
//
// Intervals are visited by start time, ties keeping input order. Each one
// goes into the leftmost column whose last end is at or before its start,
// or a new column. Afterwards every connected cluster of overlapping
// intervals is given TotalColumns = max column in the cluster + 1.
func Layout(intervals []Interval) map[string]Placement {
	placements := make(map[string]Placement, len(intervals))
	if len(intervals) == 0 {
		return placements
	}

	order := make([]int, len(intervals))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return intervals[order[a]].Start < intervals[order[b]].Start
	})

	columnEnds := make([]block.Clock, 0, 4)
	columns := make([]int, len(intervals))
	for _, idx := range order {
		iv := intervals[idx]
		placed := -1
		for c, end := range columnEnds {
			if end <= iv.Start {
				placed = c
				break
			}
		}
		if placed < 0 {
			columnEnds = append(columnEnds, iv.End)
			placed = len(columnEnds) - 1
		} else {
			columnEnds[placed] = iv.End
		}
		columns[idx] = placed
	}

	// Sweep in start order: a cluster closes once the next start reaches the
	// furthest end seen so far.
	clusterStart := 0
	var clusterEnd block.Clock
	flush := func(upto int) {
		maxColumn := 0
		for _, idx := range order[clusterStart:upto] {
			if columns[idx] > maxColumn {
				maxColumn = columns[idx]
			}
		}
		for _, idx := range order[clusterStart:upto] {
			placements[intervals[idx].ID] = Placement{Column: columns[idx], TotalColumns: maxColumn + 1}
		}
		clusterStart = upto
	}
	for pos, idx := range order {
		iv := intervals[idx]
		if pos > clusterStart && iv.Start >= clusterEnd {
			flush(pos)
		}
		if pos == clusterStart || iv.End > clusterEnd {
			clusterEnd = iv.End
		}
	}
	flush(len(order))

	return placements
}

// Conflict names another interval that overlaps a candidate.
type Conflict struct {
	WithID string
	Start  block.Clock
	End    block.Clock
}

// Conflicts lists the intervals in others that overlap candidate, skipping
// candidate itself. Results follow the order of others.
func Conflicts(candidate Interval, others []Interval) []Conflict {
	var conflicts []Conflict
	for _, other := range others {
		if other.ID == candidate.ID {
			continue
		}
		if Overlaps(candidate, other) {
			conflicts = append(conflicts, Conflict{WithID: other.ID, Start: other.Start, End: other.End})
		}
	}
	return conflicts
}

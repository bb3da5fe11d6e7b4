package block

import (
	"time"
)

// Kind tags a block as a one-off or a recurring definition.
type Kind int

const (
	// KindSingle blocks occur exactly on their anchor date.
	KindSingle Kind = iota
	// KindRecurring blocks project onto every matching date of their window.
	KindRecurring
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k == KindRecurring {
		return "recurring"
	}
	return "single"
}

// WeekdaySet is a bitmask of weekdays, bit 0 = Sunday.
type WeekdaySet uint8

// NewWeekdaySet builds a set, silently ignoring values outside Sunday..Saturday.
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var set WeekdaySet
	for _, day := range days {
		if day < time.Sunday || day > time.Saturday {
			continue
		}
		set |= 1 << uint(day)
	}
	return set
}

// Has reports whether day is selected.
func (s WeekdaySet) Has(day time.Weekday) bool {
	if day < time.Sunday || day > time.Saturday {
		return false
	}
	return s&(1<<uint(day)) != 0
}

// Empty reports whether no weekday is selected.
func (s WeekdaySet) Empty() bool { return s == 0 }

// Days lists the selected weekdays in ascending order. Never nil.
func (s WeekdaySet) Days() []time.Weekday {
	out := make([]time.Weekday, 0, 7)
	for day := time.Sunday; day <= time.Saturday; day++ {
		if s.Has(day) {
			out = append(out, day)
		}
	}
	return out
}

// Recurrence holds the recurring half of a block. It travels with every
// block so that switching a block between kinds loses nothing, but it is
// only consulted when the block's Kind is KindRecurring.
type Recurrence struct {
	Days WeekdaySet
	// StartDate is the first eligible date; empty means the block's Date.
	StartDate Date
	// EndDate is the last eligible date; empty means open-ended.
	EndDate     Date
	Excluded    DateSet
	Completions CompletionLog
}

// Clone deep copies the recurrence sets.
func (r Recurrence) Clone() Recurrence {
	out := r
	out.Excluded = r.Excluded.Clone()
	out.Completions = r.Completions.Clone()
	return out
}

// ChecklistItem is a sub-task shared by every occurrence of its block.
type ChecklistItem struct {
	ID        string
	Text      string
	Completed bool
}

// Block is a schedulable interval owned by a single user.
type Block struct {
	ID     string
	UserID string
	Title  string
	// Date is the occurrence date of a single block and the fallback
	// recurrence start of a recurring one.
	Date       Date
	Start      Clock
	End        Clock
	Kind       Kind
	Recurrence Recurrence
	// Completed applies to single blocks only; recurring blocks track
	// completion per date in Recurrence.Completions.
	Completed bool
	Checklist []ChecklistItem

	Category            string
	Type                string
	Color               string
	MeetingLink         string
	NotificationMinutes *int
	Description         string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsRecurring reports whether b is a recurring definition.
func (b Block) IsRecurring() bool { return b.Kind == KindRecurring }

// Duration returns the length of the block in minutes.
func (b Block) Duration() int { return int(b.End - b.Start) }

// Clone returns a deep copy sharing no sets, slices or pointers with b.
func (b Block) Clone() Block {
	out := b
	out.Recurrence = b.Recurrence.Clone()
	if b.Checklist != nil {
		out.Checklist = make([]ChecklistItem, len(b.Checklist))
		copy(out.Checklist, b.Checklist)
	}
	if b.NotificationMinutes != nil {
		minutes := *b.NotificationMinutes
		out.NotificationMinutes = &minutes
	}
	return out
}

// Occurrence is one concrete, date-anchored instance of a block. It is
// derived on demand and never stored.
type Occurrence struct {
	Block Block
	Date  Date
	Start Clock
	End   Clock
	Done  bool
}

package application

import (
	"time"

	"github.com/example/timeblocks/internal/block"
)

// ChecklistItemInput is a caller supplied checklist item. An empty ID gets
// a generated one.
type ChecklistItemInput struct {
	ID        string
	Text      string
	Completed bool
}

// BlockInput captures caller provided block fields. Times are "HH:MM" and
// dates "YYYY-MM-DD"; both are validated before use.
type BlockInput struct {
	Title              string
	Date               string
	StartTime          string
	EndTime            string
	Recurring          bool
	RecurringDays      []int
	RecurringStartDate string
	RecurringEndDate   string
	Checklist          []ChecklistItemInput

	Category            string
	Type                string
	Color               string
	MeetingLink         string
	NotificationMinutes *int
	Description         string
}

// ConflictWarning describes an overlap that should be surfaced to callers.
// Overlaps are allowed; the layout places them side by side.
type ConflictWarning struct {
	BlockID string
	WithID  string
	Date    block.Date
	Start   block.Clock
	End     block.Clock
}

// ViewKind selects a visible date window.
type ViewKind string

const (
	ViewDay   ViewKind = "day"
	ViewWeek  ViewKind = "week"
	ViewMonth ViewKind = "month"
)

// CalendarSettings tunes CalendarService.
type CalendarSettings struct {
	// UserID owns every block the service creates and loads.
	UserID string
	// WeekStart is the first column of week and month views.
	WeekStart time.Weekday
	// Location places reminder times; nil means time.Local.
	Location *time.Location
	// MaxWindowDays caps agenda and reminder windows.
	MaxWindowDays int
	// ViewCacheTTL bounds how long a computed agenda stays cached.
	ViewCacheTTL time.Duration
	// ExportName is the calendar name in iCalendar exports.
	ExportName string
}

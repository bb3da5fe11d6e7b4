package persistence

import (
	"fmt"
	"sort"
	"time"

	"github.com/example/timeblocks/internal/block"
)

// ChecklistItemRecord is the stored form of a checklist item.
type ChecklistItemRecord struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// BlockRecord is the stored form of a block. Every block field maps to
// exactly one record field.
type BlockRecord struct {
	ID                 string                `json:"id"`
	UserID             string                `json:"user_id"`
	Title              string                `json:"title"`
	Date               string                `json:"date"`
	StartTime          string                `json:"start_time"`
	EndTime            string                `json:"end_time"`
	IsRecurring        bool                  `json:"is_recurring"`
	RecurringDays      []int                 `json:"recurring_days"`
	RecurringStartDate *string               `json:"recurring_start_date"`
	RecurringEndDate   *string               `json:"recurring_end_date"`
	ExcludedDates      []string              `json:"excluded_dates"`
	Completed          bool                  `json:"completed"`
	CompletedDates     []string              `json:"completed_dates"`
	Checklist          []ChecklistItemRecord `json:"checklist"`
	Category           string                `json:"category"`
	Type               string                `json:"type"`
	Color              string                `json:"color"`
	MeetingLink        string                `json:"meeting_link"`
	NotificationTime   *int                  `json:"notification_time"`
	Description        string                `json:"description"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// ToRecord converts a block to its stored form. Sets are emitted sorted and
// slices are never nil, so equal blocks produce equal records.
func ToRecord(b block.Block) BlockRecord {
	days := b.Recurrence.Days.Days()
	recordDays := make([]int, len(days))
	for i, d := range days {
		recordDays[i] = int(d)
	}

	checklist := make([]ChecklistItemRecord, len(b.Checklist))
	for i, item := range b.Checklist {
		checklist[i] = ChecklistItemRecord{ID: item.ID, Text: item.Text, Completed: item.Completed}
	}

	var notification *int
	if b.NotificationMinutes != nil {
		minutes := *b.NotificationMinutes
		notification = &minutes
	}

	return BlockRecord{
		ID:                 b.ID,
		UserID:             b.UserID,
		Title:              b.Title,
		Date:               string(b.Date),
		StartTime:          b.Start.String(),
		EndTime:            b.End.String(),
		IsRecurring:        b.IsRecurring(),
		RecurringDays:      recordDays,
		RecurringStartDate: optionalDate(b.Recurrence.StartDate),
		RecurringEndDate:   optionalDate(b.Recurrence.EndDate),
		ExcludedDates:      dateStrings(b.Recurrence.Excluded.Sorted()),
		Completed:          b.Completed,
		CompletedDates:     dateStrings(b.Recurrence.Completions.Dates()),
		Checklist:          checklist,
		Category:           b.Category,
		Type:               b.Type,
		Color:              b.Color,
		MeetingLink:        b.MeetingLink,
		NotificationTime:   notification,
		Description:        b.Description,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

// FromRecord converts a stored record back to a block. Malformed dates,
// times or weekdays are reported as ErrConstraintViolation.
func FromRecord(r BlockRecord) (block.Block, error) {
	date, err := block.ParseDate(r.Date)
	if err != nil {
		return block.Block{}, recordError(r.ID, "date", r.Date)
	}
	start, err := block.ParseClock(r.StartTime)
	if err != nil {
		return block.Block{}, recordError(r.ID, "start_time", r.StartTime)
	}
	end, err := block.ParseClock(r.EndTime)
	if err != nil {
		return block.Block{}, recordError(r.ID, "end_time", r.EndTime)
	}

	var days block.WeekdaySet
	for _, d := range r.RecurringDays {
		if d < int(time.Sunday) || d > int(time.Saturday) {
			return block.Block{}, recordError(r.ID, "recurring_days", fmt.Sprint(d))
		}
		days |= block.NewWeekdaySet(time.Weekday(d))
	}

	rec := block.Recurrence{Days: days}
	if rec.StartDate, err = parseOptionalDate(r.RecurringStartDate); err != nil {
		return block.Block{}, recordError(r.ID, "recurring_start_date", *r.RecurringStartDate)
	}
	if rec.EndDate, err = parseOptionalDate(r.RecurringEndDate); err != nil {
		return block.Block{}, recordError(r.ID, "recurring_end_date", *r.RecurringEndDate)
	}

	rec.Excluded = make(block.DateSet, len(r.ExcludedDates))
	for _, s := range r.ExcludedDates {
		d, err := block.ParseDate(s)
		if err != nil {
			return block.Block{}, recordError(r.ID, "excluded_dates", s)
		}
		rec.Excluded[d] = struct{}{}
	}
	rec.Completions = make(block.CompletionLog, len(r.CompletedDates))
	for _, s := range r.CompletedDates {
		d, err := block.ParseDate(s)
		if err != nil {
			return block.Block{}, recordError(r.ID, "completed_dates", s)
		}
		rec.Completions[d] = true
	}

	kind := block.KindSingle
	if r.IsRecurring {
		kind = block.KindRecurring
	}

	checklist := make([]block.ChecklistItem, len(r.Checklist))
	for i, item := range r.Checklist {
		checklist[i] = block.ChecklistItem{ID: item.ID, Text: item.Text, Completed: item.Completed}
	}

	var notification *int
	if r.NotificationTime != nil {
		minutes := *r.NotificationTime
		notification = &minutes
	}

	return block.Block{
		ID:                  r.ID,
		UserID:              r.UserID,
		Title:               r.Title,
		Date:                date,
		Start:               start,
		End:                 end,
		Kind:                kind,
		Recurrence:          rec,
		Completed:           r.Completed,
		Checklist:           checklist,
		Category:            r.Category,
		Type:                r.Type,
		Color:               r.Color,
		MeetingLink:         r.MeetingLink,
		NotificationMinutes: notification,
		Description:         r.Description,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}, nil
}

// FromRecords converts a batch, stopping at the first malformed record.
func FromRecords(records []BlockRecord) ([]block.Block, error) {
	blocks := make([]block.Block, 0, len(records))
	for _, r := range records {
		b, err := FromRecord(r)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

// ToRecords converts a batch ordered by ID.
func ToRecords(blocks []block.Block) []BlockRecord {
	records := make([]BlockRecord, 0, len(blocks))
	for _, b := range blocks {
		records = append(records, ToRecord(b))
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records
}

func recordError(id, field, value string) error {
	return fmt.Errorf("%w: block %s has invalid %s %q", ErrConstraintViolation, id, field, value)
}

func optionalDate(d block.Date) *string {
	if d == "" {
		return nil
	}
	s := string(d)
	return &s
}

func parseOptionalDate(s *string) (block.Date, error) {
	if s == nil {
		return "", nil
	}
	return block.ParseDate(*s)
}

func dateStrings(dates []block.Date) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = string(d)
	}
	return out
}

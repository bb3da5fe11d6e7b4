// Package export renders blocks as an iCalendar feed. Times are floating
// (no TZID) because blocks carry naive wall-clock times.
package export

import (
	"fmt"
	"io"
	"sort"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/example/timeblocks/internal/block"
)

const (
	// DefaultProductID identifies the producer in PRODID.
	DefaultProductID = "-//timeblocks//blockcal//EN"
	// DefaultName is the X-WR-CALNAME of the feed.
	DefaultName = "Time blocks"

	floatingLayout = "20060102T150405"
)

var weekdays = map[time.Weekday]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// Options customises the feed.
type Options struct {
	Name      string
	ProductID string
	// Now stamps DTSTAMP; zero means time.Now.
	Now time.Time
}

// Calendar builds a VCALENDAR with one VEVENT per block, ordered by ID.
// Recurring blocks whose weekday selection is empty, or whose window holds
// no selected weekday, are left out because they never occur.
func Calendar(blocks []block.Block, opts Options) (*ical.Calendar, error) {
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.ProductID == "" {
		opts.ProductID = DefaultProductID
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetProductId(opts.ProductID)
	cal.SetMethod(ical.MethodPublish)
	cal.SetXWRCalName(opts.Name)

	sorted := make([]block.Block, len(blocks))
	copy(sorted, blocks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, b := range sorted {
		if err := addEvent(cal, b, opts.Now); err != nil {
			return nil, err
		}
	}
	return cal, nil
}

// Write serialises the feed for blocks to w.
func Write(w io.Writer, blocks []block.Block, opts Options) error {
	cal, err := Calendar(blocks, opts)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, cal.Serialize())
	return err
}

func addEvent(cal *ical.Calendar, b block.Block, now time.Time) error {
	first := b.Date
	var rule string
	if b.IsRecurring() {
		var ok bool
		first, ok = FirstOccurrence(b)
		if !ok {
			return nil
		}
		var err error
		if rule, err = RRule(b); err != nil {
			return fmt.Errorf("block %s: %w", b.ID, err)
		}
	}

	event := cal.AddEvent(b.ID)
	event.SetDtStampTime(now.UTC())
	if !b.CreatedAt.IsZero() {
		event.SetCreatedTime(b.CreatedAt.UTC())
	}
	if !b.UpdatedAt.IsZero() {
		event.SetModifiedAt(b.UpdatedAt.UTC())
	}
	event.SetSummary(b.Title)
	if b.Description != "" {
		event.SetDescription(b.Description)
	}
	if b.MeetingLink != "" {
		event.SetURL(b.MeetingLink)
	}
	if b.Category != "" {
		event.SetProperty(ical.ComponentPropertyCategories, b.Category)
	}
	if b.Color != "" {
		event.SetProperty(ical.ComponentProperty("COLOR"), b.Color)
	}

	event.SetProperty(ical.ComponentPropertyDtStart, floating(first, b.Start))
	event.SetProperty(ical.ComponentPropertyDtEnd, floating(first, b.End))

	if rule != "" {
		event.AddProperty(ical.ComponentPropertyRrule, rule)
		for _, d := range b.Recurrence.Excluded.Sorted() {
			event.AddProperty(ical.ComponentPropertyExdate, floating(d, b.Start))
		}
	}

	if b.NotificationMinutes != nil && *b.NotificationMinutes >= 0 {
		alarm := event.AddAlarm()
		alarm.SetProperty(ical.ComponentPropertyAction, "DISPLAY")
		alarm.SetProperty(ical.ComponentPropertyTrigger, fmt.Sprintf("-PT%dM", *b.NotificationMinutes))
		alarm.SetProperty(ical.ComponentPropertyDescription, b.Title)
	}
	return nil
}

// RRule renders the weekly rule of a recurring block, with UNTIL set to the
// last second of its end date when it has one. UNTIL is floating to match
// the floating DTSTART; rrule-go only writes UTC, so it is appended here.
func RRule(b block.Block) (string, error) {
	days := b.Recurrence.Days.Days()
	if len(days) == 0 {
		return "", fmt.Errorf("recurring block has no weekdays")
	}

	opt := rrule.ROption{Freq: rrule.WEEKLY, Wkst: rrule.MO}
	for _, d := range days {
		opt.Byweekday = append(opt.Byweekday, weekdays[d])
	}

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return "", err
	}
	rule := r.String()
	if end := b.Recurrence.EndDate; end != "" {
		t := end.Time()
		until := time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
		rule += ";UNTIL=" + until.Format(floatingLayout)
	}
	return rule, nil
}

// FirstOccurrence finds the first selected weekday on or after the
// recurrence start, ignoring exclusions. ok is false when the window ends
// before any selected weekday.
func FirstOccurrence(b block.Block) (block.Date, bool) {
	rec := b.Recurrence
	if rec.Days.Empty() {
		return "", false
	}
	start := rec.StartDate
	if start == "" {
		start = b.Date
	}
	for i := 0; i < 7; i++ {
		d := start.AddDays(i)
		if rec.EndDate != "" && d > rec.EndDate {
			return "", false
		}
		if rec.Days.Has(d.Weekday()) {
			return d, true
		}
	}
	return "", false
}

func floating(d block.Date, c block.Clock) string {
	t := d.Time()
	return time.Date(t.Year(), t.Month(), t.Day(), c.Hour(), c.Minute(), 0, 0, time.UTC).Format(floatingLayout)
}

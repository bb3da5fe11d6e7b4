package application

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/timeblocks/internal/block"
)

const maxTitleLength = 200

// parsedInput is a BlockInput that passed validation.
type parsedInput struct {
	title      string
	date       block.Date
	start      block.Clock
	end        block.Clock
	kind       block.Kind
	days       block.WeekdaySet
	recurStart block.Date
	recurEnd   block.Date
}

func validateBlockInput(in BlockInput, vErr *ValidationError) parsedInput {
	var out parsedInput

	out.title = strings.TrimSpace(in.Title)
	switch {
	case out.title == "":
		vErr.add("title", "title is required")
	case utf8.RuneCountInString(out.title) > maxTitleLength:
		vErr.add("title", fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}

	date, err := block.ParseDate(strings.TrimSpace(in.Date))
	if err != nil {
		vErr.add("date", "date must be YYYY-MM-DD")
	}
	out.date = date

	start, startErr := block.ParseClock(strings.TrimSpace(in.StartTime))
	if startErr != nil {
		vErr.add("start_time", "start_time must be HH:MM")
	}
	end, endErr := block.ParseClock(strings.TrimSpace(in.EndTime))
	if endErr != nil {
		vErr.add("end_time", "end_time must be HH:MM")
	}
	if startErr == nil && endErr == nil && end <= start {
		vErr.add("end_time", "end_time must be after start_time")
	}
	out.start, out.end = start, end

	out.kind = block.KindSingle
	if in.Recurring {
		out.kind = block.KindRecurring
	}
	for _, d := range in.RecurringDays {
		if d < int(time.Sunday) || d > int(time.Saturday) {
			vErr.add("recurring_days", "recurring_days must be weekdays 0-6")
			continue
		}
		out.days |= block.NewWeekdaySet(time.Weekday(d))
	}

	if s := strings.TrimSpace(in.RecurringStartDate); s != "" {
		if out.recurStart, err = block.ParseDate(s); err != nil {
			vErr.add("recurring_start_date", "recurring_start_date must be YYYY-MM-DD")
		}
	}
	if s := strings.TrimSpace(in.RecurringEndDate); s != "" {
		if out.recurEnd, err = block.ParseDate(s); err != nil {
			vErr.add("recurring_end_date", "recurring_end_date must be YYYY-MM-DD")
		}
	}
	if out.recurEnd != "" {
		first := out.recurStart
		if first == "" {
			first = out.date
		}
		if first != "" && out.recurEnd < first {
			vErr.add("recurring_end_date", "recurring_end_date must not be before the recurrence start")
		}
	}

	if in.NotificationMinutes != nil && *in.NotificationMinutes < 0 {
		vErr.add("notification_minutes", "notification_minutes must not be negative")
	}

	if link := strings.TrimSpace(in.MeetingLink); link != "" {
		if u, err := url.Parse(link); err != nil || u.Scheme == "" || u.Host == "" {
			vErr.add("meeting_link", "meeting_link must be an absolute URL")
		}
	}

	for i, item := range in.Checklist {
		if strings.TrimSpace(item.Text) == "" {
			vErr.add(fmt.Sprintf("checklist[%d].text", i), "checklist item text is required")
		}
	}

	return out
}

func validateOverlays(overlays []block.Overlay) *ValidationError {
	vErr := &ValidationError{}
	seen := make(map[string]bool, len(overlays))
	for i, o := range overlays {
		field := fmt.Sprintf("overlays[%d]", i)
		switch {
		case o.ID == "":
			vErr.add(field+".id", "id is required")
		case seen[o.ID]:
			vErr.add(field+".id", "id must be unique")
		}
		seen[o.ID] = true
		if !o.Kind.IsOverlay() {
			vErr.add(field+".kind", "kind must be goal, meeting, task, timeline or post")
		}
		if !o.Date.Valid() {
			vErr.add(field+".date", "date must be YYYY-MM-DD")
		}
		if !o.Start.Valid() || !o.End.Valid() || o.End <= o.Start {
			vErr.add(field+".end_time", "end_time must be after start_time")
		}
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

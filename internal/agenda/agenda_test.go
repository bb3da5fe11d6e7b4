package agenda

import (
	"reflect"
	"testing"
	"time"

	"github.com/example/timeblocks/internal/block"
	"github.com/example/timeblocks/internal/completion"
)

func sampleBlocks() []block.Block {
	standup := block.Block{
		ID:    "standup",
		Title: "Standup",
		Date:  "2024-01-01",
		Start: block.MustClock("09:00"),
		End:   block.MustClock("09:30"),
		Kind:  block.KindRecurring,
		Recurrence: block.Recurrence{
			Days:        block.NewWeekdaySet(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday),
			StartDate:   "2024-01-01",
			Excluded:    block.NewDateSet("2024-01-03"),
			Completions: block.CompletionLog{"2024-01-02": true},
		},
		Checklist: []block.ChecklistItem{{ID: "c1", Text: "notes", Completed: true}},
	}
	focus := block.Block{
		ID:    "focus",
		Title: "Focus",
		Date:  "2024-01-02",
		Start: block.MustClock("09:15"),
		End:   block.MustClock("11:00"),
	}
	return []block.Block{standup, focus}
}

func TestBuild(t *testing.T) {
	t.Parallel()

	overlays := []block.Overlay{
		{ID: "meeting-1", Date: "2024-01-02", Start: block.MustClock("10:30"), End: block.MustClock("11:30"), Title: "1:1", Kind: block.SourceMeeting},
		{ID: "goal-1", Date: "2024-01-05", Start: block.MustClock("08:00"), End: block.MustClock("08:30"), Title: "Ship", Kind: block.SourceGoal},
	}

	days := Build(sampleBlocks(), overlays, Days("2024-01-02", "2024-01-03"))
	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(days))
	}

	tuesday := days[0]
	var ids []string
	for _, e := range tuesday.Entries {
		ids = append(ids, e.ID)
	}
	wantIDs := []string{"standup@2024-01-02", "focus@2024-01-02", "meeting-1"}
	if !reflect.DeepEqual(ids, wantIDs) {
		t.Fatalf("expected entries %v, got %v", wantIDs, ids)
	}

	standup, focus, meeting := tuesday.Entries[0], tuesday.Entries[1], tuesday.Entries[2]
	if !standup.Done || standup.Movable || !standup.Recurring {
		t.Fatalf("unexpected standup entry %+v", standup)
	}
	if standup.Column != 0 || focus.Column != 1 || meeting.Column != 0 {
		t.Fatalf("unexpected columns %d/%d/%d", standup.Column, focus.Column, meeting.Column)
	}
	for _, e := range tuesday.Entries {
		if e.TotalColumns != 2 {
			t.Fatalf("expected shared width 2 for %s, got %d", e.ID, e.TotalColumns)
		}
	}
	if meeting.Source != block.SourceMeeting || meeting.Movable {
		t.Fatalf("overlay must be read-only: %+v", meeting)
	}

	// standup done + its checklist item done; focus open with no checklist.
	if want := (completion.Progress{Completed: 2, Total: 3}); tuesday.Progress != want {
		t.Fatalf("expected progress %+v, got %+v", want, tuesday.Progress)
	}

	wednesday := days[1]
	if len(wednesday.Entries) != 0 || wednesday.Progress.Total != 0 {
		t.Fatalf("expected excluded date to be empty, got %+v", wednesday)
	}
}

func TestConflicts(t *testing.T) {
	t.Parallel()

	day := Build(sampleBlocks(), nil, []block.Date{"2024-01-02"})[0]
	got := Conflicts(day, "focus@2024-01-02")
	if len(got) != 1 || got[0].WithID != "standup@2024-01-02" {
		t.Fatalf("unexpected conflicts %+v", got)
	}
	if got := Conflicts(day, "missing"); got != nil {
		t.Fatalf("expected nil for unknown id, got %+v", got)
	}
}

func TestWindows(t *testing.T) {
	t.Parallel()

	week := Week("2024-01-04", time.Monday)
	if len(week) != 7 || week[0] != "2024-01-01" || week[6] != "2024-01-07" {
		t.Fatalf("unexpected monday week %v", week)
	}
	sundayWeek := Week("2024-01-04", time.Sunday)
	if sundayWeek[0] != "2023-12-31" {
		t.Fatalf("unexpected sunday week start %s", sundayWeek[0])
	}

	grid := MonthGrid("2024-02-15", time.Monday)
	if len(grid) != MonthGridDays {
		t.Fatalf("expected %d days, got %d", MonthGridDays, len(grid))
	}
	if grid[0] != "2024-01-29" || grid[41] != "2024-03-10" {
		t.Fatalf("unexpected grid bounds %s..%s", grid[0], grid[41])
	}

	if got := Days("2024-01-02", "2024-01-01"); got != nil {
		t.Fatalf("expected nil for inverted range, got %v", got)
	}
	if got := Days("2024-01-01", "zzzz"); got != nil {
		t.Fatalf("expected nil for malformed end, got %v", got)
	}
	if got := Days("9999-12-30", "9999-12-31"); len(got) != 2 || got[1] != "9999-12-31" {
		t.Fatalf("expected the last two representable days, got %v", got)
	}
}

func TestReminders(t *testing.T) {
	t.Parallel()

	lead := 10
	blocks := sampleBlocks()
	blocks[0].NotificationMinutes = &lead

	got := Reminders(blocks, "2024-01-01", "2024-01-03", time.UTC)
	// 01-02 is already done and 01-03 is excluded.
	if len(got) != 1 {
		t.Fatalf("expected 1 reminder, got %+v", got)
	}
	r := got[0]
	wantStart := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	if r.BlockID != "standup" || r.Date != "2024-01-01" || !r.StartsAt.Equal(wantStart) {
		t.Fatalf("unexpected reminder %+v", r)
	}
	if r.LeadTime != 10*time.Minute || !r.NotifyAt.Equal(wantStart.Add(-10*time.Minute)) {
		t.Fatalf("unexpected lead %v / notify %v", r.LeadTime, r.NotifyAt)
	}
}

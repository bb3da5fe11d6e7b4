package completion

import (
	"testing"
	"time"

	"github.com/example/timeblocks/internal/block"
)

func recurringBlock() block.Block {
	return block.Block{
		ID:    "run",
		Date:  "2024-03-04",
		Start: block.MustClock("07:00"),
		End:   block.MustClock("07:30"),
		Kind:  block.KindRecurring,
		Recurrence: block.Recurrence{
			Days: block.NewWeekdaySet(time.Monday),
		},
	}
}

func TestToggle_RecurringIsPerDate(t *testing.T) {
	t.Parallel()

	original := recurringBlock()
	toggled := Toggle(original, "2024-03-04")

	if !IsDone(toggled, "2024-03-04") {
		t.Fatalf("expected 2024-03-04 to be done")
	}
	if IsDone(toggled, "2024-03-11") {
		t.Fatalf("toggling one date must not complete another")
	}
	if IsDone(original, "2024-03-04") {
		t.Fatalf("toggle must not mutate its input")
	}
	if toggled.Completed {
		t.Fatalf("recurring toggle must not touch the single-block flag")
	}

	untoggled := Toggle(toggled, "2024-03-04")
	if IsDone(untoggled, "2024-03-04") {
		t.Fatalf("expected second toggle to clear completion")
	}
	if _, ok := untoggled.Recurrence.Completions["2024-03-04"]; ok {
		t.Fatalf("expected cleared date to be removed from the log")
	}
}

func TestToggle_Single(t *testing.T) {
	t.Parallel()

	b := block.Block{ID: "single", Date: "2024-03-04"}
	b.Recurrence.Completions = block.CompletionLog{"2024-03-04": true}

	if IsDone(b, "2024-03-04") {
		t.Fatalf("single blocks must ignore the completion log")
	}
	toggled := Toggle(b, "2024-03-04")
	if !toggled.Completed || !IsDone(toggled, "2024-03-04") {
		t.Fatalf("expected single block to be completed")
	}
	if !IsDone(toggled, "2030-01-01") {
		t.Fatalf("single completion is not date specific")
	}
}

func TestToggleChecklistItem(t *testing.T) {
	t.Parallel()

	b := recurringBlock()
	b.Checklist = []block.ChecklistItem{{ID: "a", Text: "stretch"}, {ID: "b", Text: "water"}}

	got, ok := ToggleChecklistItem(b, "b")
	if !ok {
		t.Fatalf("expected item to be found")
	}
	if !got.Checklist[1].Completed || got.Checklist[0].Completed {
		t.Fatalf("unexpected checklist state: %+v", got.Checklist)
	}
	if b.Checklist[1].Completed {
		t.Fatalf("toggle must not mutate its input")
	}

	if _, ok := ToggleChecklistItem(b, "missing"); ok {
		t.Fatalf("expected missing item to report false")
	}
}

func TestDailyProgress(t *testing.T) {
	t.Parallel()

	done := Toggle(recurringBlock(), "2024-03-04")
	done.Checklist = []block.ChecklistItem{{ID: "a", Completed: true}, {ID: "b"}}

	open := block.Block{ID: "single", Date: "2024-03-04"}

	occurrences := []block.Occurrence{
		{Block: done, Date: "2024-03-04"},
		{Block: open, Date: "2024-03-04"},
	}
	got := DailyProgress(occurrences)
	want := Progress{Completed: 2, Total: 4}
	if got != want {
		t.Fatalf("DailyProgress() = %+v, want %+v", got, want)
	}
	if r := got.Ratio(); r != 0.5 {
		t.Fatalf("expected ratio 0.5, got %v", r)
	}
	if r := (Progress{}).Ratio(); r != 0 {
		t.Fatalf("expected empty ratio 0, got %v", r)
	}
}

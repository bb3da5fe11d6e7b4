package block

import (
	"reflect"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "canonical", input: "2024-03-04"},
		{name: "leap day", input: "2024-02-29"},
		{name: "missing padding", input: "2024-3-4", wantErr: true},
		{name: "impossible day", input: "2023-02-29", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseDate(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %q", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) returned error: %v", tc.input, err)
			}
			if string(got) != tc.input {
				t.Fatalf("expected %q, got %q", tc.input, got)
			}
		})
	}
}

func TestDateArithmetic(t *testing.T) {
	t.Parallel()

	d := MustDate("2024-02-28")
	if got := d.AddDays(1); got != "2024-02-29" {
		t.Fatalf("expected leap day, got %s", got)
	}
	if got := d.AddDays(2); got != "2024-03-01" {
		t.Fatalf("expected month rollover, got %s", got)
	}
	if got := MustDate("2024-01-01").Weekday(); got != time.Monday {
		t.Fatalf("expected 2024-01-01 to be a Monday, got %s", got)
	}
	if got := MustDate("2024-01-01").DaysUntil("2024-01-31"); got != 30 {
		t.Fatalf("expected 30 days, got %d", got)
	}
	// Spans longer than a time.Duration can hold.
	if got := MustDate("1700-01-01").DaysUntil("2024-01-01"); got != 118338 {
		t.Fatalf("expected 118338 days, got %d", got)
	}
	if !MustDate("2024-01-09").Before("2024-01-10") {
		t.Fatalf("expected lexicographic order to match calendar order")
	}
}

func TestParseClock(t *testing.T) {
	t.Parallel()

	c, err := ParseClock("09:45")
	if err != nil {
		t.Fatalf("ParseClock returned error: %v", err)
	}
	if c.Hour() != 9 || c.Minute() != 45 {
		t.Fatalf("unexpected components %d:%d", c.Hour(), c.Minute())
	}
	if c.String() != "09:45" {
		t.Fatalf("expected round trip to 09:45, got %s", c)
	}

	for _, bad := range []string{"24:00", "12:60", "1200", "ab:cd", "7:5"} {
		if _, err := ParseClock(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestWeekdaySet(t *testing.T) {
	t.Parallel()

	set := NewWeekdaySet(time.Friday, time.Monday, time.Monday, time.Weekday(9))
	if !set.Has(time.Monday) || !set.Has(time.Friday) {
		t.Fatalf("expected Monday and Friday to be selected")
	}
	if set.Has(time.Sunday) {
		t.Fatalf("did not expect Sunday")
	}
	want := []time.Weekday{time.Monday, time.Friday}
	if got := set.Days(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if !NewWeekdaySet().Empty() {
		t.Fatalf("expected empty set")
	}
}

func TestBlockClone(t *testing.T) {
	t.Parallel()

	lead := 10
	original := Block{
		ID:   "b1",
		Kind: KindRecurring,
		Recurrence: Recurrence{
			Days:        NewWeekdaySet(time.Monday),
			Excluded:    NewDateSet("2024-01-08"),
			Completions: CompletionLog{"2024-01-01": true},
		},
		Checklist:           []ChecklistItem{{ID: "c1", Text: "prep"}},
		NotificationMinutes: &lead,
	}

	clone := original.Clone()
	clone.Recurrence.Excluded["2024-01-15"] = struct{}{}
	clone.Recurrence.Completions["2024-01-22"] = true
	clone.Checklist[0].Completed = true
	*clone.NotificationMinutes = 30

	if original.Recurrence.Excluded.Has("2024-01-15") {
		t.Fatalf("clone shares excluded dates with original")
	}
	if original.Recurrence.Completions.Done("2024-01-22") {
		t.Fatalf("clone shares completion log with original")
	}
	if original.Checklist[0].Completed {
		t.Fatalf("clone shares checklist with original")
	}
	if *original.NotificationMinutes != 10 {
		t.Fatalf("clone shares notification lead time with original")
	}
}

func TestCompletionLogDates(t *testing.T) {
	t.Parallel()

	log := CompletionLog{"2024-03-11": true, "2024-03-04": true, "2024-03-18": false}
	want := []Date{"2024-03-04", "2024-03-11"}
	if got := log.Dates(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

package persistence

import (
	"encoding/json"
	"errors"
	"math/rand"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/example/timeblocks/internal/block"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func validRecords() map[string]BlockRecord {
	created := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	return map[string]BlockRecord{
		"single": {
			ID:             "b-1",
			UserID:         "u-1",
			Title:          "Write report",
			Date:           "2024-03-04",
			StartTime:      "09:00",
			EndTime:        "10:30",
			RecurringDays:  []int{},
			ExcludedDates:  []string{},
			Completed:      true,
			CompletedDates: []string{},
			Checklist:      []ChecklistItemRecord{{ID: "c-1", Text: "draft", Completed: true}},
			Category:       "work",
			Type:           "focus",
			Color:          "#336699",
			MeetingLink:    "https://meet.example.com/abc",
			Description:    "quarterly",
			CreatedAt:      created,
			UpdatedAt:      created.Add(time.Hour),
		},
		"recurring": {
			ID:                 "b-2",
			UserID:             "u-1",
			Title:              "Gym",
			Date:               "2023-12-30",
			StartTime:          "18:00",
			EndTime:            "19:00",
			IsRecurring:        true,
			RecurringDays:      []int{1, 3, 5},
			RecurringStartDate: strPtr("2024-01-01"),
			RecurringEndDate:   strPtr("2024-06-30"),
			ExcludedDates:      []string{"2024-01-15", "2024-02-02"},
			CompletedDates:     []string{"2024-01-01", "2024-01-03"},
			Checklist:          []ChecklistItemRecord{},
			NotificationTime:   intPtr(15),
			CreatedAt:          created,
			UpdatedAt:          created,
		},
		"recurring fields kept on a single block": {
			ID:             "b-3",
			Date:           "2024-05-05",
			StartTime:      "00:00",
			EndTime:        "23:59",
			RecurringDays:  []int{0, 6},
			ExcludedDates:  []string{"2024-05-11"},
			CompletedDates: []string{"2024-05-12"},
			Checklist:      []ChecklistItemRecord{},
		},
	}
}

func TestRecordRoundTrip(t *testing.T) {
	t.Parallel()

	for name, record := range validRecords() {
		record := record
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			b, err := FromRecord(record)
			if err != nil {
				t.Fatalf("FromRecord: %v", err)
			}
			if got := ToRecord(b); !reflect.DeepEqual(got, record) {
				t.Fatalf("round trip mismatch\n got: %#v\nwant: %#v", got, record)
			}
		})
	}
}

func randomRecord(r *rand.Rand, i int) BlockRecord {
	base := block.MustDate("2024-01-01")
	dateSet := func() []string {
		seen := map[string]bool{}
		for n := r.Intn(5); n > 0; n-- {
			seen[string(base.AddDays(r.Intn(365)))] = true
		}
		out := make([]string, 0, len(seen))
		for d := range seen {
			out = append(out, d)
		}
		sort.Strings(out)
		return out
	}

	var days []int
	for d := 0; d < 7; d++ {
		if r.Intn(2) == 0 {
			days = append(days, d)
		}
	}
	if days == nil {
		days = []int{}
	}

	start := block.Clock(r.Intn(int(block.EndOfDay)))
	end := start + block.Clock(1+r.Intn(int(block.EndOfDay-start)))

	rec := BlockRecord{
		ID:             "rand-" + string(rune('a'+i%26)),
		Date:           string(base.AddDays(r.Intn(365))),
		StartTime:      start.String(),
		EndTime:        end.String(),
		IsRecurring:    r.Intn(2) == 0,
		RecurringDays:  days,
		ExcludedDates:  dateSet(),
		Completed:      r.Intn(2) == 0,
		CompletedDates: dateSet(),
		Checklist:      []ChecklistItemRecord{},
	}
	if r.Intn(2) == 0 {
		rec.RecurringStartDate = strPtr(string(base.AddDays(r.Intn(30))))
	}
	if r.Intn(2) == 0 {
		rec.RecurringEndDate = strPtr(string(base.AddDays(30 + r.Intn(300))))
	}
	if r.Intn(2) == 0 {
		rec.NotificationTime = intPtr(r.Intn(120))
	}
	return rec
}

func TestRecordRoundTrip_Random(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewSource(11))
	for i := 0; i < 300; i++ {
		record := randomRecord(r, i)
		b, err := FromRecord(record)
		if err != nil {
			t.Fatalf("FromRecord(%#v): %v", record, err)
		}
		if got := ToRecord(b); !reflect.DeepEqual(got, record) {
			t.Fatalf("round trip mismatch\n got: %#v\nwant: %#v", got, record)
		}
	}
}

func TestFromRecord_RejectsMalformedFields(t *testing.T) {
	t.Parallel()

	base := validRecords()["recurring"]
	tests := map[string]func(r *BlockRecord){
		"date":           func(r *BlockRecord) { r.Date = "2024-02-30" },
		"start_time":     func(r *BlockRecord) { r.StartTime = "25:00" },
		"end_time":       func(r *BlockRecord) { r.EndTime = "9am" },
		"recurring_days": func(r *BlockRecord) { r.RecurringDays = []int{7} },
		"start date":     func(r *BlockRecord) { r.RecurringStartDate = strPtr("soon") },
		"excluded":       func(r *BlockRecord) { r.ExcludedDates = []string{"2024/01/01"} },
		"completed":      func(r *BlockRecord) { r.CompletedDates = []string{""} },
	}
	for name, mutate := range tests {
		record := base
		mutate(&record)
		if _, err := FromRecord(record); !errors.Is(err, ErrConstraintViolation) {
			t.Fatalf("%s: expected ErrConstraintViolation, got %v", name, err)
		}
	}
}

func TestBlockRecord_JSONKeys(t *testing.T) {
	t.Parallel()

	payload, err := json.Marshal(validRecords()["recurring"])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, key := range []string{
		"start_time", "end_time", "is_recurring", "recurring_days",
		"recurring_start_date", "recurring_end_date", "excluded_dates",
		"completed_dates", "meeting_link", "notification_time",
	} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("expected key %q in %s", key, payload)
		}
	}
}

func TestToRecord_NormalizesBlockSets(t *testing.T) {
	t.Parallel()

	b := block.Block{
		ID:    "b",
		Date:  "2024-01-01",
		Start: block.MustClock("08:00"),
		End:   block.MustClock("09:00"),
		Kind:  block.KindRecurring,
		Recurrence: block.Recurrence{
			Days:        block.NewWeekdaySet(time.Friday, time.Monday),
			Excluded:    block.NewDateSet("2024-02-01", "2024-01-05"),
			Completions: block.CompletionLog{"2024-01-08": true, "2024-01-01": true, "2024-01-03": false},
		},
	}
	rec := ToRecord(b)
	if !reflect.DeepEqual(rec.RecurringDays, []int{1, 5}) {
		t.Fatalf("unexpected days %v", rec.RecurringDays)
	}
	if !reflect.DeepEqual(rec.ExcludedDates, []string{"2024-01-05", "2024-02-01"}) {
		t.Fatalf("unexpected excluded %v", rec.ExcludedDates)
	}
	if !reflect.DeepEqual(rec.CompletedDates, []string{"2024-01-01", "2024-01-08"}) {
		t.Fatalf("unexpected completions %v", rec.CompletedDates)
	}
	if rec.Checklist == nil || rec.RecurringStartDate != nil {
		t.Fatalf("expected empty checklist and no start date, got %#v", rec)
	}
}

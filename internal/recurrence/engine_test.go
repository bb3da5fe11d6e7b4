package recurrence

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/example/timeblocks/internal/block"
)

func weekly(days ...time.Weekday) block.Block {
	return block.Block{
		ID:    "block-1",
		Date:  "2023-12-20",
		Start: block.MustClock("09:00"),
		End:   block.MustClock("10:00"),
		Kind:  block.KindRecurring,
		Recurrence: block.Recurrence{
			Days:      block.NewWeekdaySet(days...),
			StartDate: "2024-01-01",
		},
	}
}

func TestOccursOn(t *testing.T) {
	t.Parallel()

	t.Run("single block occurs only on its date", func(t *testing.T) {
		t.Parallel()

		b := block.Block{ID: "single", Date: "2024-03-04", Kind: block.KindSingle}
		if !OccursOn(b, "2024-03-04") {
			t.Fatalf("expected occurrence on anchor date")
		}
		if OccursOn(b, "2024-03-11") {
			t.Fatalf("did not expect occurrence a week later")
		}
	})

	t.Run("single block ignores recurrence fields", func(t *testing.T) {
		t.Parallel()

		b := weekly(time.Monday)
		b.Kind = block.KindSingle
		if OccursOn(b, "2024-01-08") {
			t.Fatalf("single block must not recur")
		}
		if !OccursOn(b, "2023-12-20") {
			t.Fatalf("single block must occur on its date")
		}
	})

	t.Run("selected weekdays on or after start", func(t *testing.T) {
		t.Parallel()

		b := weekly(time.Monday, time.Wednesday, time.Friday)
		start := block.MustDate("2024-01-01")
		for d := start.AddDays(-14); d <= start.AddDays(90); d = d.AddDays(1) {
			wd := d.Weekday()
			selected := wd == time.Monday || wd == time.Wednesday || wd == time.Friday
			want := selected && d >= start
			if got := OccursOn(b, d); got != want {
				t.Fatalf("OccursOn(%s %s) = %v, want %v", d, wd, got, want)
			}
		}
	})

	t.Run("exclusion overrides a single matching date", func(t *testing.T) {
		t.Parallel()

		b := weekly(time.Monday)
		b.Recurrence.Excluded = block.NewDateSet("2024-01-15")
		if OccursOn(b, "2024-01-15") {
			t.Fatalf("excluded date must not occur")
		}
		for _, d := range []block.Date{"2024-01-08", "2024-01-22", "2024-01-29"} {
			if !OccursOn(b, d) {
				t.Fatalf("expected %s to remain an occurrence", d)
			}
		}
	})

	t.Run("end date is inclusive", func(t *testing.T) {
		t.Parallel()

		b := weekly(time.Monday, time.Tuesday)
		b.Recurrence.EndDate = "2024-01-22"
		if !OccursOn(b, "2024-01-22") {
			t.Fatalf("expected occurrence on end date")
		}
		if OccursOn(b, "2024-01-23") {
			t.Fatalf("did not expect occurrence the day after end date")
		}
	})

	t.Run("start falls back to block date", func(t *testing.T) {
		t.Parallel()

		b := weekly(time.Wednesday)
		b.Recurrence.StartDate = ""
		if !OccursOn(b, "2023-12-20") {
			t.Fatalf("expected occurrence on block date")
		}
		if OccursOn(b, "2023-12-13") {
			t.Fatalf("did not expect occurrence before block date")
		}
	})

	t.Run("empty weekday selection never occurs", func(t *testing.T) {
		t.Parallel()

		b := weekly()
		if dates := Expand(b, "2024-01-01", "2024-03-31"); len(dates) != 0 {
			t.Fatalf("expected no occurrences, got %v", dates)
		}
	})
}

func TestExpand_FourMondays(t *testing.T) {
	t.Parallel()

	b := weekly(time.Monday)
	b.Recurrence.EndDate = "2024-01-22"

	got := Expand(b, "2024-01-01", "2024-01-31")
	want := []block.Date{"2024-01-01", "2024-01-08", "2024-01-15", "2024-01-22"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExpand_InvertedRange(t *testing.T) {
	t.Parallel()

	if got := Expand(weekly(time.Monday), "2024-02-01", "2024-01-01"); got != nil {
		t.Fatalf("expected nil for inverted range, got %v", got)
	}
}

func TestExpand_MalformedBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		from, to block.Date
	}{
		{name: "garbage end", from: "2024-01-01", to: "zzzz"},
		{name: "garbage start", from: "", to: "2024-01-31"},
		{name: "non-canonical end", from: "2024-01-01", to: "2024-1-31"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Expand(weekly(time.Monday), tc.from, tc.to); got != nil {
				t.Fatalf("expected nil for %s..%s, got %v", tc.from, tc.to, got)
			}
		})
	}
}

func TestExpand_LastRepresentableDay(t *testing.T) {
	t.Parallel()

	b := weekly(time.Friday)
	b.Recurrence.StartDate = "9999-12-01"
	got := Expand(b, "9999-12-25", "9999-12-31")
	want := []block.Date{"9999-12-31"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestEngine_GenerateOccurrences(t *testing.T) {
	t.Parallel()

	engine := NewEngine(0)

	t.Run("carries block identity and times", func(t *testing.T) {
		t.Parallel()

		b := weekly(time.Monday)
		occ, err := engine.GenerateOccurrences(b, GenerateOptions{RangeStart: "2024-01-01", RangeEnd: "2024-01-14"})
		if err != nil {
			t.Fatalf("GenerateOccurrences returned error: %v", err)
		}
		if len(occ) != 2 {
			t.Fatalf("expected 2 occurrences, got %d", len(occ))
		}
		for _, o := range occ {
			if o.Block.ID != "block-1" || o.Start != b.Start || o.End != b.End {
				t.Fatalf("occurrence lost block data: %+v", o)
			}
		}
	})

	t.Run("rejects unbounded and inverted windows", func(t *testing.T) {
		t.Parallel()

		cases := []GenerateOptions{
			{RangeStart: "2024-01-01"},
			{RangeEnd: "2024-01-01"},
			{RangeStart: "2024-02-01", RangeEnd: "2024-01-01"},
			{RangeStart: "2024-01-01", RangeEnd: "2024-13-01"},
		}
		for _, opts := range cases {
			if _, err := engine.GenerateOccurrences(weekly(time.Monday), opts); !errors.Is(err, ErrInvalidWindow) {
				t.Fatalf("expected ErrInvalidWindow for %+v, got %v", opts, err)
			}
		}
	})

	t.Run("caps window width", func(t *testing.T) {
		t.Parallel()

		small := NewEngine(7)
		if _, err := small.GenerateOccurrences(weekly(time.Monday), GenerateOptions{RangeStart: "2024-01-01", RangeEnd: "2024-01-07"}); err != nil {
			t.Fatalf("expected 7-day window to be accepted: %v", err)
		}
		if _, err := small.GenerateOccurrences(weekly(time.Monday), GenerateOptions{RangeStart: "2024-01-01", RangeEnd: "2024-01-08"}); !errors.Is(err, ErrInvalidWindow) {
			t.Fatalf("expected 8-day window to be rejected, got %v", err)
		}
	})
}

func TestEngine_ExpandAllOrdering(t *testing.T) {
	t.Parallel()

	early := weekly(time.Monday)
	early.ID = "b-early"
	early.Start = block.MustClock("07:00")
	early.End = block.MustClock("08:00")

	late := weekly(time.Monday)
	late.ID = "a-late"

	single := block.Block{ID: "c-single", Date: "2024-01-02", Start: block.MustClock("06:00"), End: block.MustClock("06:30")}

	occ, err := NewEngine(0).ExpandAll([]block.Block{late, single, early}, GenerateOptions{RangeStart: "2024-01-01", RangeEnd: "2024-01-02"})
	if err != nil {
		t.Fatalf("ExpandAll returned error: %v", err)
	}

	var got []string
	for _, o := range occ {
		got = append(got, string(o.Date)+"/"+o.Block.ID)
	}
	want := []string{"2024-01-01/b-early", "2024-01-01/a-late", "2024-01-02/c-single"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

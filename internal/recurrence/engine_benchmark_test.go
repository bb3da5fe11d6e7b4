package recurrence

import (
	"testing"
	"time"

	"github.com/example/timeblocks/internal/block"
)

func BenchmarkEngineExpandAllMonthGrid(b *testing.B) {
	engine := NewEngine(0)

	blocks := make([]block.Block, 0, 40)
	for i := 0; i < 40; i++ {
		blocks = append(blocks, block.Block{
			ID:    "block-" + string(rune('a'+i%26)),
			Date:  "2024-05-06",
			Start: block.NewClock(8+i%10, 0),
			End:   block.NewClock(9+i%10, 0),
			Kind:  block.KindRecurring,
			Recurrence: block.Recurrence{
				Days: block.NewWeekdaySet(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday),
			},
		})
	}
	opts := GenerateOptions{RangeStart: "2024-04-29", RangeEnd: "2024-06-09"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		occurrences, err := engine.ExpandAll(blocks, opts)
		if err != nil {
			b.Fatalf("unexpected error: %v", err)
		}
		if len(occurrences) == 0 {
			b.Fatal("expected occurrences to be generated")
		}
	}
}

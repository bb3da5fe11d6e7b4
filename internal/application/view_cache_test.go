package application

import (
	"testing"
	"time"

	"github.com/example/timeblocks/internal/agenda"
	"github.com/example/timeblocks/internal/block"
	"github.com/example/timeblocks/internal/testfixtures"
)

func sampleDays() []agenda.Day {
	return []agenda.Day{{
		Date: "2024-01-01",
		Entries: []agenda.Entry{{
			ID:        "b1@2024-01-01",
			Checklist: []block.ChecklistItem{{ID: "i1", Text: "one"}},
		}},
	}}
}

func TestViewCache(t *testing.T) {
	t.Parallel()

	t.Run("returns stored days until ttl passes", func(t *testing.T) {
		t.Parallel()

		clock := testfixtures.NewClock(time.Time{})
		cache := newViewCache(time.Minute, 0, clock.NowFunc())
		key := viewCacheKey("2024-01-01", "2024-01-01")

		cache.Store(key, cache.Generation(), sampleDays())
		if _, ok := cache.Get(key); !ok {
			t.Fatalf("expected cache hit")
		}

		clock.Advance(2 * time.Minute)
		if _, ok := cache.Get(key); ok {
			t.Fatalf("expected expired entry to miss")
		}
	})

	t.Run("hits are independent copies", func(t *testing.T) {
		t.Parallel()

		cache := newViewCache(time.Minute, 0, nil)
		key := viewCacheKey("2024-01-01", "2024-01-01")
		cache.Store(key, cache.Generation(), sampleDays())

		first, _ := cache.Get(key)
		first[0].Entries[0].Checklist[0].Text = "changed"

		second, _ := cache.Get(key)
		if second[0].Entries[0].Checklist[0].Text != "one" {
			t.Fatalf("cached days were mutated through a hit")
		}
	})

	t.Run("stale generation is not stored", func(t *testing.T) {
		t.Parallel()

		cache := newViewCache(time.Minute, 0, nil)
		key := viewCacheKey("2024-01-01", "2024-01-07")

		gen := cache.Generation()
		cache.Invalidate()
		cache.Store(key, gen, sampleDays())
		if _, ok := cache.Get(key); ok {
			t.Fatalf("expected result from an older generation to be dropped")
		}
	})

	t.Run("invalidate clears entries", func(t *testing.T) {
		t.Parallel()

		cache := newViewCache(time.Minute, 0, nil)
		key := viewCacheKey("2024-01-01", "2024-01-01")
		cache.Store(key, cache.Generation(), sampleDays())
		cache.Invalidate()
		if _, ok := cache.Get(key); ok {
			t.Fatalf("expected invalidate to clear entries")
		}
	})

	t.Run("evicts when full", func(t *testing.T) {
		t.Parallel()

		clock := testfixtures.NewClock(time.Time{})
		cache := newViewCache(time.Hour, 2, clock.NowFunc())
		gen := cache.Generation()
		cache.Store("a", gen, sampleDays())
		clock.Advance(time.Second)
		cache.Store("b", gen, sampleDays())
		clock.Advance(time.Second)
		cache.Store("c", gen, sampleDays())

		if _, ok := cache.Get("a"); ok {
			t.Fatalf("expected oldest entry to be evicted")
		}
		for _, key := range []string{"b", "c"} {
			if _, ok := cache.Get(key); !ok {
				t.Fatalf("expected %s to remain cached", key)
			}
		}
	})
}

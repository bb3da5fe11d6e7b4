package application

import (
	"testing"

	"github.com/example/timeblocks/internal/block"
	"github.com/example/timeblocks/internal/testfixtures"
)

func TestStore_CopiesInAndOut(t *testing.T) {
	t.Parallel()

	store := NewStore()
	b := testfixtures.NewBlock(testfixtures.WithID("b1"), testfixtures.WithChecklist("one"))
	store.Upsert(b)

	// Mutating the caller's value must not reach the store.
	b.Checklist[0].Text = "changed"
	b.Recurrence.Excluded["2024-01-08"] = struct{}{}

	got, ok := store.Get("b1")
	if !ok {
		t.Fatalf("expected block to be stored")
	}
	if got.Checklist[0].Text != "one" || len(got.Recurrence.Excluded) != 0 {
		t.Fatalf("store shares state with caller: %+v", got)
	}

	got.Checklist[0].Completed = true
	again, _ := store.Get("b1")
	if again.Checklist[0].Completed {
		t.Fatalf("store shares state with Get result")
	}
}

func TestStore_ReplaceRemoveSnapshot(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.Replace([]block.Block{
		testfixtures.NewBlock(testfixtures.WithID("c")),
		testfixtures.NewBlock(testfixtures.WithID("a")),
		testfixtures.NewBlock(testfixtures.WithID("b")),
	})
	if store.Len() != 3 {
		t.Fatalf("expected 3 blocks, got %d", store.Len())
	}

	snapshot := store.Snapshot()
	for i, want := range []string{"a", "b", "c"} {
		if snapshot[i].ID != want {
			t.Fatalf("expected snapshot ordered by ID, got %s at %d", snapshot[i].ID, i)
		}
	}

	if !store.Remove("b") {
		t.Fatalf("expected remove to report presence")
	}
	if store.Remove("b") {
		t.Fatalf("expected second remove to report absence")
	}
	if _, ok := store.Get("b"); ok {
		t.Fatalf("expected b to be gone")
	}

	store.Replace(nil)
	if store.Len() != 0 {
		t.Fatalf("expected replace to drop old content")
	}
}

package testfixtures

import (
	"testing"

	"github.com/google/uuid"
)

func TestIDGenerator(t *testing.T) {
	t.Parallel()

	gen := NewIDGenerator("")
	if got := gen.Next(); got != "id-1" {
		t.Fatalf("expected id-1, got %s", got)
	}
	if got := gen.NextFunc()(); got != "id-2" {
		t.Fatalf("expected id-2, got %s", got)
	}
	gen.Reset()
	if got := gen.Next(); got != "id-1" {
		t.Fatalf("expected reset sequence, got %s", got)
	}
}

func TestUUIDGenerator(t *testing.T) {
	t.Parallel()

	a, b := NewUUIDGenerator("blocks"), NewUUIDGenerator("blocks")
	first := a.Next()
	if _, err := uuid.Parse(first); err != nil {
		t.Fatalf("expected a UUID, got %q: %v", first, err)
	}
	if first != b.Next() {
		t.Fatalf("expected deterministic UUIDs")
	}
	if first == a.Next() {
		t.Fatalf("expected distinct UUIDs within a sequence")
	}
}

package application

import (
	"errors"
	"testing"

	"github.com/example/timeblocks/internal/gesture"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	withFields := &ValidationError{FieldErrors: map[string]string{"field": "invalid"}}
	if got := withFields.Error(); got != "validation failed" {
		t.Fatalf("expected consistent message for populated error, got %q", got)
	}
}

func TestValidationError_AddKeepsFirstMessage(t *testing.T) {
	t.Parallel()

	v := &ValidationError{}
	if v.HasErrors() {
		t.Fatalf("expected HasErrors to report false for empty error")
	}
	v.add("end_time", "end_time must be HH:MM")
	v.add("end_time", "end_time must be after start_time")
	if got := v.FieldErrors["end_time"]; got != "end_time must be HH:MM" {
		t.Fatalf("expected first message to win, got %q", got)
	}
	if !v.HasErrors() {
		t.Fatalf("expected HasErrors to report true")
	}
}

func TestErrNotMovableMatchesGesture(t *testing.T) {
	t.Parallel()

	if !errors.Is(ErrNotMovable, gesture.ErrNotMovable) {
		t.Fatalf("expected application and gesture sentinels to match")
	}
}

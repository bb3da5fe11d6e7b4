package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	logger := Discard()
	ctx := ContextWithLogger(context.Background(), logger)
	if got := FromContext(ctx); got != logger {
		t.Fatalf("expected logger from context")
	}
	if got := FromContext(context.Background()); got != nil {
		t.Fatalf("expected nil logger on bare context")
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	var ctxBuf, fallbackBuf bytes.Buffer
	ctxLogger := slog.New(slog.NewTextHandler(&ctxBuf, nil))
	fallback := slog.New(slog.NewTextHandler(&fallbackBuf, nil))

	Resolve(ContextWithLogger(context.Background(), ctxLogger), fallback, "component", "test").Info("from context")
	if !strings.Contains(ctxBuf.String(), "component=test") {
		t.Fatalf("expected context logger to receive decorated record, got %q", ctxBuf.String())
	}
	if fallbackBuf.Len() != 0 {
		t.Fatalf("fallback logger should not be used when context carries one")
	}

	Resolve(context.Background(), fallback).Info("from fallback")
	if !strings.Contains(fallbackBuf.String(), "from fallback") {
		t.Fatalf("expected fallback logger to be used, got %q", fallbackBuf.String())
	}

	if Resolve(context.TODO(), nil) == nil {
		t.Fatalf("expected default logger")
	}
}

package blocksync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/timeblocks/internal/logging"
)

type flusherStub struct {
	calls  int
	result FlushResult
	err    error
}

func (f *flusherStub) Flush(ctx context.Context) (FlushResult, error) {
	f.calls++
	if _, ok := ctx.Deadline(); !ok {
		return FlushResult{}, errors.New("expected deadline on flush context")
	}
	return f.result, f.err
}

func TestScheduler_Schedule(t *testing.T) {
	t.Parallel()

	s := NewScheduler(&flusherStub{}, time.UTC, time.Second, logging.Discard())

	if _, err := s.Schedule(""); err != nil {
		t.Fatalf("expected default schedule to parse, got %v", err)
	}
	if _, err := s.Schedule("*/5 * * * *"); err != nil {
		t.Fatalf("expected five-field spec to parse, got %v", err)
	}
	if _, err := s.Schedule("every now and then"); err == nil {
		t.Fatalf("expected invalid spec to be rejected")
	}
}

func TestScheduler_RunUsesTimeout(t *testing.T) {
	t.Parallel()

	stub := &flusherStub{result: FlushResult{Synced: 1}}
	s := NewScheduler(stub, nil, 0, logging.Discard())
	s.run()
	if stub.calls != 1 {
		t.Fatalf("expected one flush, got %d", stub.calls)
	}

	stub.err = errors.New("boom")
	s.run()
	if stub.calls != 2 {
		t.Fatalf("expected failing flush to be attempted, got %d calls", stub.calls)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	t.Parallel()

	s := NewScheduler(&flusherStub{}, time.UTC, time.Second, logging.Discard())
	s.Start()
	s.Stop()
}

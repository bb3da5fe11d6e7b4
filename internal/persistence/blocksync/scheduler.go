package blocksync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule retries pending writes every thirty seconds.
const DefaultSchedule = "@every 30s"

// Flusher is the part of Gateway the scheduler drives.
type Flusher interface {
	Flush(ctx context.Context) (FlushResult, error)
}

// Scheduler runs Flush on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	flusher Flusher
	timeout time.Duration
	logger  *slog.Logger
}

// NewScheduler builds a scheduler in loc. Overlapping runs are skipped.
func NewScheduler(flusher Flusher, loc *time.Location, timeout time.Duration, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		flusher: flusher,
		timeout: timeout,
		logger:  logger.With("component", "blocksync", "job", "flush"),
	}
}

// Schedule registers the flush job. spec accepts standard five-field cron
// expressions and descriptors such as "@every 1m".
func (s *Scheduler) Schedule(spec string) (cron.EntryID, error) {
	if spec == "" {
		spec = DefaultSchedule
	}
	id, err := s.cron.AddFunc(spec, s.run)
	if err != nil {
		return 0, fmt.Errorf("schedule flush %q: %w", spec, err)
	}
	return id, nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	result, err := s.flusher.Flush(ctx)
	if err != nil {
		s.logger.Warn("scheduled flush failed", "error", err, "synced", result.Synced, "remaining", result.Remaining)
		return
	}
	if result.Synced > 0 || result.Remaining > 0 {
		s.logger.Info("scheduled flush", "synced", result.Synced, "remaining", result.Remaining)
	}
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the loop and waits for a running flush to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

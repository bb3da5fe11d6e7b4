// Package blocksync is the store boundary the calendar talks to. It writes
// through a local cache, forwards to the primary repository, and queues
// whatever the primary store rejects for a later flush.
package blocksync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/example/timeblocks/internal/block"
	"github.com/example/timeblocks/internal/logging"
	"github.com/example/timeblocks/internal/persistence"
	"github.com/example/timeblocks/internal/persistence/localcache"
)

var (
	// ErrDeferred reports that the primary store rejected a write and the
	// write was queued for a later flush. Local state already reflects it.
	ErrDeferred = errors.New("blocksync: write deferred")
	// ErrUnavailable reports that neither the primary store nor the local
	// cache could supply blocks.
	ErrUnavailable = errors.New("blocksync: blocks unavailable")
)

// Gateway combines the primary repository with the local cache.
type Gateway struct {
	// mu orders direct writes against Flush so a queued write never lands
	// after a newer one for the same block.
	mu      sync.Mutex
	primary persistence.BlockRepository
	cache   *localcache.Cache
	logger  *slog.Logger
}

// NewGateway wires the store boundary. A nil primary repository makes the
// gateway cache-only: every write is queued.
func NewGateway(primary persistence.BlockRepository, cache *localcache.Cache, logger *slog.Logger) *Gateway {
	return &Gateway{primary: primary, cache: cache, logger: logger}
}

func (g *Gateway) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	pairs := append([]any{"component", "blocksync", "operation", operation}, attrs...)
	return logging.Resolve(ctx, g.logger, pairs...)
}

// LoadBlocks returns the user's blocks. Pending writes are flushed first so
// the primary read sees them; any that remain queued are replayed over the
// result. When the primary store fails, the cached set is used instead.
func (g *Gateway) LoadBlocks(ctx context.Context, userID string) ([]block.Block, error) {
	logger := g.log(ctx, "load", "user_id", userID)

	if _, err := g.Flush(ctx); err != nil {
		logger.WarnContext(ctx, "flush before load failed", "error", err)
	}

	records, primaryErr := g.listPrimary(ctx, userID)
	if primaryErr == nil {
		if err := g.cache.Save(userID, records); err != nil {
			logger.WarnContext(ctx, "refresh local cache failed", "error", err)
		}
	} else {
		logger.WarnContext(ctx, "primary store unavailable, using local cache", "error", primaryErr)
		cached, savedAt, err := g.cache.Load(userID)
		if err != nil {
			return nil, fmt.Errorf("%w: primary: %v; cache: %v", ErrUnavailable, primaryErr, err)
		}
		logger.InfoContext(ctx, "loaded blocks from local cache", "count", len(cached), "saved_at", savedAt)
		records = cached
	}

	pending, err := g.cache.Pending()
	if err != nil {
		logger.WarnContext(ctx, "read pending writes failed", "error", err)
	} else {
		records = replay(records, pending, userID)
	}

	blocks, err := persistence.FromRecords(records)
	if err != nil {
		return nil, fmt.Errorf("decode blocks: %w", err)
	}
	return blocks, nil
}

func (g *Gateway) listPrimary(ctx context.Context, userID string) ([]persistence.BlockRecord, error) {
	if g.primary == nil {
		return nil, errors.New("no primary store configured")
	}
	return g.primary.ListBlocks(ctx, userID)
}

// SaveBlock upserts b. The cache is updated first; a primary failure is
// queued and reported as ErrDeferred.
func (g *Gateway) SaveBlock(ctx context.Context, b block.Block) error {
	logger := g.log(ctx, "save", "block_id", b.ID)
	record := persistence.ToRecord(b)

	if err := g.cache.Put(record); err != nil {
		logger.WarnContext(ctx, "write-through to local cache failed", "error", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var err error
	if g.primary == nil {
		err = errors.New("no primary store configured")
	} else {
		err = g.primary.UpsertBlock(ctx, record)
	}
	if err == nil {
		g.supersede(ctx, logger, b.ID)
		return nil
	}
	return g.queue(ctx, logger, localcache.OpUpsert, b.ID, &record, err)
}

// DeleteBlock removes the block with id. Deleting a block the primary store
// never saw counts as success.
func (g *Gateway) DeleteBlock(ctx context.Context, id string) error {
	logger := g.log(ctx, "delete", "block_id", id)

	if err := g.cache.Remove(id); err != nil {
		logger.WarnContext(ctx, "write-through to local cache failed", "error", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var err error
	if g.primary == nil {
		err = errors.New("no primary store configured")
	} else {
		err = g.primary.DeleteBlock(ctx, id)
	}
	if err == nil || errors.Is(err, persistence.ErrNotFound) {
		g.supersede(ctx, logger, id)
		return nil
	}
	return g.queue(ctx, logger, localcache.OpDelete, id, nil, err)
}

// supersede drops queued writes for id after the primary store accepted a
// newer one; replaying them would roll the block back.
func (g *Gateway) supersede(ctx context.Context, logger *slog.Logger, id string) {
	if err := g.cache.ResolveBlock(id); err != nil {
		logger.WarnContext(ctx, "drop superseded pending writes failed", "error", err)
	}
}

func (g *Gateway) queue(ctx context.Context, logger *slog.Logger, op localcache.Op, id string, record *persistence.BlockRecord, cause error) error {
	queued, qErr := g.cache.Enqueue(op, id, record)
	if qErr != nil {
		logger.ErrorContext(ctx, "queue pending write failed", "error", qErr, "cause", cause)
		return fmt.Errorf("%s %s: %w (queue: %v)", op, id, cause, qErr)
	}
	logger.WarnContext(ctx, "primary store rejected write, queued", "error", cause, "seq", queued.Seq)
	return fmt.Errorf("%w: %s %s: %v", ErrDeferred, op, id, cause)
}

// FlushResult summarises one pass over the pending queue.
type FlushResult struct {
	Synced    int
	Remaining int
}

// Flush replays pending writes against the primary store in queue order.
// It stops early when ctx is cancelled.
func (g *Gateway) Flush(ctx context.Context) (FlushResult, error) {
	var result FlushResult
	if g.primary == nil {
		return result, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	pending, err := g.cache.Pending()
	if err != nil {
		return result, err
	}
	if len(pending) == 0 {
		return result, nil
	}

	logger := g.log(ctx, "flush", "pending", len(pending))
	for i, p := range pending {
		if err := ctx.Err(); err != nil {
			result.Remaining += len(pending) - i
			return result, err
		}

		if err := g.apply(ctx, p); err != nil {
			result.Remaining++
			if markErr := g.cache.MarkAttempt(p.Seq); markErr != nil {
				logger.WarnContext(ctx, "record flush attempt failed", "error", markErr)
			}
			logger.WarnContext(ctx, "pending write still failing", "block_id", p.BlockID, "op", string(p.Op), "attempts", p.Attempts+1, "error", err)
			continue
		}
		if err := g.cache.Resolve(p.Seq); err != nil {
			return result, fmt.Errorf("resolve pending write %d: %w", p.Seq, err)
		}
		result.Synced++
	}

	logger.InfoContext(ctx, "flush finished", "synced", result.Synced, "remaining", result.Remaining)
	return result, nil
}

func (g *Gateway) apply(ctx context.Context, p localcache.PendingWrite) error {
	switch p.Op {
	case localcache.OpUpsert:
		if p.Record == nil {
			return fmt.Errorf("pending upsert %s has no record", p.BlockID)
		}
		return g.primary.UpsertBlock(ctx, *p.Record)
	case localcache.OpDelete:
		err := g.primary.DeleteBlock(ctx, p.BlockID)
		if errors.Is(err, persistence.ErrNotFound) {
			return nil
		}
		return err
	default:
		return fmt.Errorf("unknown pending op %q", p.Op)
	}
}

// replay applies queued writes for userID over records so a stale primary
// read does not hide local changes.
func replay(records []persistence.BlockRecord, pending []localcache.PendingWrite, userID string) []persistence.BlockRecord {
	if len(pending) == 0 {
		return records
	}

	index := make(map[string]int, len(records))
	out := make([]persistence.BlockRecord, 0, len(records))
	for _, r := range records {
		index[r.ID] = len(out)
		out = append(out, r)
	}

	deleted := map[string]bool{}
	for _, p := range pending {
		switch p.Op {
		case localcache.OpUpsert:
			if p.Record == nil || p.Record.UserID != userID {
				continue
			}
			delete(deleted, p.BlockID)
			if i, ok := index[p.BlockID]; ok {
				out[i] = *p.Record
				continue
			}
			index[p.BlockID] = len(out)
			out = append(out, *p.Record)
		case localcache.OpDelete:
			deleted[p.BlockID] = true
		}
	}

	if len(deleted) == 0 {
		return out
	}
	kept := out[:0]
	for _, r := range out {
		if !deleted[r.ID] {
			kept = append(kept, r)
		}
	}
	return kept
}

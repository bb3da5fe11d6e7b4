// Package localcache keeps the last known block set and any unsynced writes
// in a single JSON file so the calendar can start without the primary store.
package localcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/example/timeblocks/internal/persistence"
)

const documentVersion = 1

// Op names a pending write.
type Op string

const (
	// OpUpsert re-sends a record to the primary store.
	OpUpsert Op = "upsert"
	// OpDelete re-sends a deletion to the primary store.
	OpDelete Op = "delete"
)

// PendingWrite is a write the primary store has not acknowledged yet.
type PendingWrite struct {
	Seq      uint64                   `json:"seq"`
	Op       Op                       `json:"op"`
	BlockID  string                   `json:"block_id"`
	Record   *persistence.BlockRecord `json:"record,omitempty"`
	QueuedAt time.Time                `json:"queued_at"`
	Attempts int                      `json:"attempts"`
}

type userEntry struct {
	SavedAt time.Time                 `json:"saved_at"`
	Blocks  []persistence.BlockRecord `json:"blocks"`
}

type document struct {
	Version int                   `json:"version"`
	Users   map[string]*userEntry `json:"users"`
	Pending []PendingWrite        `json:"pending"`
	NextSeq uint64                `json:"next_seq"`
}

// Cache is a file-backed block cache. It is safe for concurrent use within
// one process.
type Cache struct {
	path string
	now  func() time.Time

	mu sync.Mutex
}

// Option customises a Cache.
type Option func(*Cache)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New returns a cache stored at path. The file is created on first write.
func New(path string, opts ...Option) *Cache {
	c := &Cache{path: path, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path returns the backing file location.
func (c *Cache) Path() string { return c.path }

// Load returns the cached records for userID, or persistence.ErrNotFound
// when nothing has been cached for that user.
func (c *Cache) Load(userID string) ([]persistence.BlockRecord, time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.read()
	if err != nil {
		return nil, time.Time{}, err
	}
	entry, ok := doc.Users[userID]
	if !ok {
		return nil, time.Time{}, persistence.ErrNotFound
	}
	records := make([]persistence.BlockRecord, len(entry.Blocks))
	copy(records, entry.Blocks)
	return records, entry.SavedAt, nil
}

// Save replaces the cached set for userID.
func (c *Cache) Save(userID string, records []persistence.BlockRecord) error {
	return c.update(func(doc *document) {
		blocks := make([]persistence.BlockRecord, len(records))
		copy(blocks, records)
		sortRecords(blocks)
		doc.Users[userID] = &userEntry{SavedAt: c.now().UTC(), Blocks: blocks}
	})
}

// Put inserts or replaces one record in its owner's cached set.
func (c *Cache) Put(record persistence.BlockRecord) error {
	return c.update(func(doc *document) {
		entry := doc.Users[record.UserID]
		if entry == nil {
			entry = &userEntry{Blocks: []persistence.BlockRecord{}}
			doc.Users[record.UserID] = entry
		}
		replaced := false
		for i := range entry.Blocks {
			if entry.Blocks[i].ID == record.ID {
				entry.Blocks[i] = record
				replaced = true
				break
			}
		}
		if !replaced {
			entry.Blocks = append(entry.Blocks, record)
			sortRecords(entry.Blocks)
		}
		entry.SavedAt = c.now().UTC()
	})
}

// Remove drops the record with id from whichever user holds it. Removing an
// unknown id is not an error.
func (c *Cache) Remove(id string) error {
	return c.update(func(doc *document) {
		for _, entry := range doc.Users {
			kept := entry.Blocks[:0]
			for _, r := range entry.Blocks {
				if r.ID != id {
					kept = append(kept, r)
				}
			}
			if len(kept) != len(entry.Blocks) {
				entry.Blocks = kept
				entry.SavedAt = c.now().UTC()
			}
		}
	})
}

// Enqueue records a write the primary store rejected. A newer write for the
// same block replaces the older one, keeping its attempt count.
func (c *Cache) Enqueue(op Op, blockID string, record *persistence.BlockRecord) (PendingWrite, error) {
	var queued PendingWrite
	err := c.update(func(doc *document) {
		doc.NextSeq++
		queued = PendingWrite{
			Seq:      doc.NextSeq,
			Op:       op,
			BlockID:  blockID,
			QueuedAt: c.now().UTC(),
		}
		if record != nil {
			r := *record
			queued.Record = &r
		}
		for i, p := range doc.Pending {
			if p.BlockID == blockID {
				queued.Attempts = p.Attempts
				doc.Pending[i] = queued
				return
			}
		}
		doc.Pending = append(doc.Pending, queued)
	})
	return queued, err
}

// Pending lists unsynced writes in queue order.
func (c *Cache) Pending() ([]PendingWrite, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.read()
	if err != nil {
		return nil, err
	}
	out := make([]PendingWrite, len(doc.Pending))
	copy(out, doc.Pending)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

// Resolve drops the pending write with seq. A write that was superseded in
// the meantime carries a different seq and stays queued.
func (c *Cache) Resolve(seq uint64) error {
	return c.update(func(doc *document) {
		kept := doc.Pending[:0]
		for _, p := range doc.Pending {
			if p.Seq != seq {
				kept = append(kept, p)
			}
		}
		doc.Pending = kept
	})
}

// ResolveBlock drops every pending write for blockID. Used once the primary
// store holds a newer state for that block than anything queued.
func (c *Cache) ResolveBlock(blockID string) error {
	return c.update(func(doc *document) {
		kept := doc.Pending[:0]
		for _, p := range doc.Pending {
			if p.BlockID != blockID {
				kept = append(kept, p)
			}
		}
		doc.Pending = kept
	})
}

// MarkAttempt increments the attempt counter of the pending write with seq.
func (c *Cache) MarkAttempt(seq uint64) error {
	return c.update(func(doc *document) {
		for i := range doc.Pending {
			if doc.Pending[i].Seq == seq {
				doc.Pending[i].Attempts++
			}
		}
	})
}

func (c *Cache) update(mutate func(*document)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.read()
	if err != nil {
		return err
	}
	mutate(doc)
	return c.write(doc)
}

func (c *Cache) read() (*document, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return emptyDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache %s: %w", c.path, err)
	}
	if len(data) == 0 {
		return emptyDocument(), nil
	}

	doc := emptyDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decode cache %s: %w", c.path, err)
	}
	if doc.Version != documentVersion {
		return nil, fmt.Errorf("cache %s: unsupported version %d", c.path, doc.Version)
	}
	if doc.Users == nil {
		doc.Users = map[string]*userEntry{}
	}
	return doc, nil
}

// write replaces the cache file atomically: the document goes to a temp file
// in the same directory, which is then renamed over the target.
func (c *Cache) write(doc *document) error {
	doc.Version = documentVersion
	if doc.Pending == nil {
		doc.Pending = []PendingWrite{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".blockcal-cache-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, c.path)
}

func emptyDocument() *document {
	return &document{
		Version: documentVersion,
		Users:   map[string]*userEntry{},
		Pending: []PendingWrite{},
	}
}

func sortRecords(records []persistence.BlockRecord) {
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
}

package application

import (
	"sync"
	"time"

	"github.com/example/timeblocks/internal/agenda"
	"github.com/example/timeblocks/internal/block"
)

// viewCache stores recently built agenda days so repeated view queries skip
// the render pass while blocks and overlays remain unchanged. Every mutation
// bumps the generation; results computed under an older generation are not
// stored.
type viewCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	generation uint64
	entries    map[string]viewCacheEntry
}

type viewCacheEntry struct {
	days      []agenda.Day
	expiresAt time.Time
}

func newViewCache(ttl time.Duration, maxEntries int, now func() time.Time) *viewCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 64
	}
	if now == nil {
		now = time.Now
	}
	return &viewCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]viewCacheEntry),
	}
}

// Generation returns the token to pass to Store for a result computed now.
func (c *viewCache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

func (c *viewCache) Get(key string) ([]agenda.Day, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return cloneDays(entry.days), true
}

func (c *viewCache) Store(key string, generation uint64, days []agenda.Day) {
	if c == nil {
		return
	}
	cloned := cloneDays(days)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return
	}
	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = viewCacheEntry{days: cloned, expiresAt: expiry}
}

func (c *viewCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.generation++
	c.entries = make(map[string]viewCacheEntry)
	c.mu.Unlock()
}

func (c *viewCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *viewCache) evictOneLocked() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.expiresAt.Before(oldest) {
			oldestKey, oldest = key, entry.expiresAt
		}
	}
	delete(c.entries, oldestKey)
}

func cloneDays(days []agenda.Day) []agenda.Day {
	if days == nil {
		return nil
	}
	out := make([]agenda.Day, len(days))
	for i, d := range days {
		out[i] = d
		out[i].Entries = make([]agenda.Entry, len(d.Entries))
		for j, e := range d.Entries {
			e.Checklist = append([]block.ChecklistItem(nil), e.Checklist...)
			out[i].Entries[j] = e
		}
	}
	return out
}

func viewCacheKey(from, to block.Date) string {
	return string(from) + "|" + string(to)
}

package application

import (
	"sort"
	"sync"

	"github.com/example/timeblocks/internal/block"
)

// Store is the in-memory source of truth for the current session. Values
// going in and out are deep copies, so callers never share sets or slices
// with the store.
type Store struct {
	mu     sync.RWMutex
	blocks map[string]block.Block
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{blocks: make(map[string]block.Block)}
}

// Replace swaps the whole content for blocks.
func (s *Store) Replace(blocks []block.Block) {
	next := make(map[string]block.Block, len(blocks))
	for _, b := range blocks {
		next[b.ID] = b.Clone()
	}
	s.mu.Lock()
	s.blocks = next
	s.mu.Unlock()
}

// Get returns a copy of the block with id.
func (s *Store) Get(id string) (block.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blocks[id]
	if !ok {
		return block.Block{}, false
	}
	return b.Clone(), true
}

// Upsert stores a copy of b under its ID.
func (s *Store) Upsert(b block.Block) {
	s.mu.Lock()
	s.blocks[b.ID] = b.Clone()
	s.mu.Unlock()
}

// Remove deletes id and reports whether it was present.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blocks[id]; !ok {
		return false
	}
	delete(s.blocks, id)
	return true
}

// Len returns the number of stored blocks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blocks)
}

// Snapshot returns copies of every block ordered by ID.
func (s *Store) Snapshot() []block.Block {
	s.mu.RLock()
	out := make([]block.Block, 0, len(s.blocks))
	for _, b := range s.blocks {
		out = append(out, b.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

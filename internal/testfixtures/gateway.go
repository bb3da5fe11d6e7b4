package testfixtures

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/example/timeblocks/internal/block"
)

// ErrGatewayDown is what MemoryGateway returns while failing.
var ErrGatewayDown = errors.New("testfixtures: gateway down")

// MemoryGateway is an in-memory block store boundary that records calls
// and can be switched into a failing mode.
type MemoryGateway struct {
	mu      sync.Mutex
	blocks  map[string]block.Block
	failing bool

	Saves   []string
	Deletes []string
}

// NewMemoryGateway seeds a gateway with blocks.
func NewMemoryGateway(blocks ...block.Block) *MemoryGateway {
	g := &MemoryGateway{blocks: make(map[string]block.Block, len(blocks))}
	for _, b := range blocks {
		g.blocks[b.ID] = b.Clone()
	}
	return g
}

// SetFailing toggles failure injection.
func (g *MemoryGateway) SetFailing(failing bool) {
	g.mu.Lock()
	g.failing = failing
	g.mu.Unlock()
}

// LoadBlocks returns the user's blocks ordered by ID.
func (g *MemoryGateway) LoadBlocks(_ context.Context, userID string) ([]block.Block, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failing {
		return nil, ErrGatewayDown
	}
	var out []block.Block
	for _, b := range g.blocks {
		if b.UserID == userID {
			out = append(out, b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveBlock upserts b.
func (g *MemoryGateway) SaveBlock(_ context.Context, b block.Block) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Saves = append(g.Saves, b.ID)
	if g.failing {
		return ErrGatewayDown
	}
	g.blocks[b.ID] = b.Clone()
	return nil
}

// DeleteBlock removes id; unknown ids are ignored.
func (g *MemoryGateway) DeleteBlock(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Deletes = append(g.Deletes, id)
	if g.failing {
		return ErrGatewayDown
	}
	delete(g.blocks, id)
	return nil
}

// Stored returns the persisted copy of id.
func (g *MemoryGateway) Stored(id string) (block.Block, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	b, ok := g.blocks[id]
	return b.Clone(), ok
}

package persistence

import "context"

// BlockRepository stores block records. UpsertBlock is idempotent by ID.
type BlockRepository interface {
	ListBlocks(ctx context.Context, userID string) ([]BlockRecord, error)
	GetBlock(ctx context.Context, id string) (BlockRecord, error)
	UpsertBlock(ctx context.Context, record BlockRecord) error
	DeleteBlock(ctx context.Context, id string) error
}

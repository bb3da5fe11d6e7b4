// Package sqlite persists block records in a SQLite database.
package sqlite

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/example/timeblocks/internal/persistence/sqlite/migration"
)

// Storage bundles the connection pool, the schema and the block repository.
type Storage struct {
	pool   *ConnectionPool
	blocks *BlockRepository
	logger *slog.Logger
}

// Open connects to the database described by config. Call Migrate before
// first use.
func Open(config migration.SQLiteConfig, logger *slog.Logger) (*Storage, error) {
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Storage{pool: pool, blocks: NewBlockRepository(pool), logger: logger}, nil
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	manager := migration.NewManager(
		migration.NewFileScanner(migration.Files),
		migration.NewSQLiteExecutor(s.pool.DB()),
		migration.Dir,
		s.logger,
	)
	if err := manager.RunMigrations(ctx); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// Blocks returns the block repository.
func (s *Storage) Blocks() *BlockRepository { return s.blocks }

// Ping checks the connection.
func (s *Storage) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Close releases the connection pool.
func (s *Storage) Close() error { return s.pool.Close() }

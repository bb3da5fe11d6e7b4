package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/timeblocks/internal/logging"
	"github.com/example/timeblocks/internal/persistence"
	"github.com/example/timeblocks/internal/persistence/blocksync"
	"github.com/example/timeblocks/internal/persistence/localcache"
	"github.com/example/timeblocks/internal/persistence/sqlite"
	"github.com/example/timeblocks/internal/persistence/sqlite/migration"
)

// SQLiteHarness wires a migrated temporary database, a local cache and the
// gateway over both, for integration-style tests.
type SQLiteHarness struct {
	Storage *sqlite.Storage
	Blocks  persistence.BlockRepository
	Cache   *localcache.Cache
	Gateway *blocksync.Gateway
}

// NewSQLiteHarness builds the harness under tb.TempDir and closes it on cleanup.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	storage, err := sqlite.Open(migration.DefaultSQLiteConfig(filepath.Join(dir, "blocks.db")), logging.Discard())
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() {
		_ = storage.Close()
	})

	if err := storage.Migrate(context.Background()); err != nil {
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	cache := localcache.New(filepath.Join(dir, "cache.json"))
	return &SQLiteHarness{
		Storage: storage,
		Blocks:  storage.Blocks(),
		Cache:   cache,
		Gateway: blocksync.NewGateway(storage.Blocks(), cache, logging.Discard()),
	}
}

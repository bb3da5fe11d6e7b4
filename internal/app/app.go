// Package app assembles storage, sync and the calendar service from a
// loaded configuration. Both binaries start from here.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/example/timeblocks/internal/application"
	"github.com/example/timeblocks/internal/config"
	"github.com/example/timeblocks/internal/persistence/blocksync"
	"github.com/example/timeblocks/internal/persistence/localcache"
	"github.com/example/timeblocks/internal/persistence/sqlite"
	"github.com/example/timeblocks/internal/persistence/sqlite/migration"
)

// App owns the long-lived components. Close releases them.
type App struct {
	Config    config.Config
	Storage   *sqlite.Storage
	Cache     *localcache.Cache
	Gateway   *blocksync.Gateway
	Scheduler *blocksync.Scheduler
	Service   *application.CalendarService
	Auth      *application.BasicAuthenticator

	logger *slog.Logger
}

// Options overrides process-wide sources, mainly for tests.
type Options struct {
	IDGenerator func() string
}

// Open migrates the database, loads the user's blocks and registers the
// pending-write retry job. The job is not started.
//
// A failing initial load is logged and the service starts empty; later
// mutations still reach the cache and the pending queue.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("resolve timezone: %w", err)
	}
	weekStart, err := cfg.FirstWeekday()
	if err != nil {
		return nil, fmt.Errorf("resolve week start: %w", err)
	}

	if cfg.AuthEnabled() {
		if err := application.ValidatePasswordHash(cfg.BasicAuth.PasswordHash); err != nil {
			return nil, fmt.Errorf("basic auth password hash: %w", err)
		}
	}

	storage, err := sqlite.Open(migration.DefaultSQLiteConfig(cfg.SQLiteDSN), logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := storage.Migrate(ctx); err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	cache := localcache.New(cfg.CacheFile)
	gateway := blocksync.NewGateway(storage.Blocks(), cache, logger)

	scheduler := blocksync.NewScheduler(gateway, loc, cfg.SyncTimeout, logger)
	if _, err := scheduler.Schedule(cfg.SyncSchedule); err != nil {
		_ = storage.Close()
		return nil, err
	}

	idGenerator := opts.IDGenerator
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}

	service := application.NewCalendarService(gateway, application.CalendarSettings{
		UserID:        cfg.UserID,
		WeekStart:     weekStart,
		Location:      loc,
		MaxWindowDays: cfg.MaxWindowDays,
		ViewCacheTTL:  cfg.ViewCacheTTL,
		ExportName:    cfg.ExportName,
	}, idGenerator, nil, logger)

	if err := service.Load(ctx); err != nil {
		if !errors.Is(err, blocksync.ErrUnavailable) {
			_ = storage.Close()
			return nil, fmt.Errorf("load blocks: %w", err)
		}
		logger.WarnContext(ctx, "starting with an empty calendar", "error", err, "user_id", cfg.UserID)
	}

	return &App{
		Config:    cfg,
		Storage:   storage,
		Cache:     cache,
		Gateway:   gateway,
		Scheduler: scheduler,
		Service:   service,
		Auth:      application.NewBasicAuthenticator(cfg.BasicAuth.Username, cfg.BasicAuth.PasswordHash, nil, logger),
		logger:    logger,
	}, nil
}

// Close flushes what it can and closes the database.
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	if result, err := a.Gateway.Flush(ctx); err != nil {
		a.logger.WarnContext(ctx, "final flush incomplete", "error", err, "remaining", result.Remaining)
	}
	return a.Storage.Close()
}

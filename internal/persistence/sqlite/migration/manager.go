package migration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
)

// Manager applies pending migrations in version order.
type Manager struct {
	scanner  *FileScanner
	executor *SQLiteExecutor
	dir      string
	logger   *slog.Logger
}

// NewManager wires a scanner and an executor. A nil logger discards output.
func NewManager(scanner *FileScanner, executor *SQLiteExecutor, dir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{scanner: scanner, executor: executor, dir: dir, logger: logger.With(slog.String("component", "migration"))}
}

// RunMigrations applies every pending migration. It stops at the first
// failure; earlier migrations stay applied.
func (m *Manager) RunMigrations(ctx context.Context) error {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		m.logger.ErrorContext(ctx, "failed to initialize schema_migrations", slog.Any("error", err))
		return fmt.Errorf("failed to initialize version table: %w", err)
	}

	pending, err := m.PendingMigrations(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to resolve pending migrations", slog.Any("error", err))
		return err
	}
	if len(pending) == 0 {
		m.logger.DebugContext(ctx, "schema up to date")
		return nil
	}

	for i, mig := range pending {
		m.logger.InfoContext(ctx, "applying migration",
			slog.String("version", mig.Version),
			slog.String("description", mig.Description),
			slog.Int("position", i+1),
			slog.Int("pending", len(pending)),
		)
		if err := m.executor.Apply(ctx, mig); err != nil {
			m.logger.ErrorContext(ctx, "migration failed", slog.String("version", mig.Version), slog.Any("error", err))
			return NewMigrationError(mig.Version, mig.FilePath, "execute migration", fmt.Errorf("%w: %v", ErrMigrationFailed, err))
		}
	}

	m.logger.InfoContext(ctx, "migrations applied", slog.Int("count", len(pending)))
	return nil
}

// PendingMigrations returns available migrations not yet applied, after
// checking that versions are contiguous and every applied version still
// has a file.
func (m *Manager) PendingMigrations(ctx context.Context) ([]Migration, error) {
	available, err := m.scanner.ScanMigrations(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan migrations: %w", err)
	}
	applied, err := m.executor.AppliedMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied versions: %w", err)
	}
	if err := validateSequence(available, applied); err != nil {
		return nil, err
	}

	done := make(map[string]bool, len(applied))
	for _, am := range applied {
		done[am.Version] = true
	}
	var pending []Migration
	for _, mig := range available {
		if !done[mig.Version] {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

// Status reports the current version and what is pending.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return Status{}, err
	}
	applied, err := m.executor.AppliedMigrations(ctx)
	if err != nil {
		return Status{}, err
	}
	pending, err := m.PendingMigrations(ctx)
	if err != nil {
		return Status{}, err
	}

	status := Status{PendingCount: len(pending), AppliedMigrations: applied, PendingMigrations: pending}
	highest := -1
	for _, am := range applied {
		if v, err := strconv.Atoi(am.Version); err == nil && v > highest {
			highest = v
			status.CurrentVersion = am.Version
		}
	}
	return status, nil
}

func validateSequence(available []Migration, applied []AppliedMigration) error {
	versions := make(map[int]bool, len(available))
	lowest, highest := 0, 0
	for i, mig := range available {
		v, err := strconv.Atoi(mig.Version)
		if err != nil {
			return NewMigrationError(mig.Version, mig.FilePath, "validate sequence", fmt.Errorf("%w: version '%s' is not numeric", ErrInvalidVersion, mig.Version))
		}
		versions[v] = true
		if i == 0 || v < lowest {
			lowest = v
		}
		if v > highest {
			highest = v
		}
	}
	for v := lowest; len(available) > 0 && v <= highest; v++ {
		if !versions[v] {
			return fmt.Errorf("%w: missing migration version %03d in sequence", ErrVersionConflict, v)
		}
	}

	for _, am := range applied {
		v, err := strconv.Atoi(am.Version)
		if err != nil {
			return NewDatabaseError(am.Version, "", "validate sequence", fmt.Errorf("%w: applied version '%s' is not numeric", ErrVersionTableCorrupt, am.Version))
		}
		if !versions[v] {
			return fmt.Errorf("%w: applied migration %03d not found in available migrations", ErrVersionConflict, v)
		}
	}
	return nil
}

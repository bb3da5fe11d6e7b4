// Package migration applies versioned SQLite schema migrations.
//
// Migration files are embedded in the binary and follow the naming
// convention {version}_{description}.sql (e.g. "001_create_blocks.sql").
// Each file runs inside its own transaction and is recorded in the
// schema_migrations table so it is applied exactly once.
//
// Example usage:
//
//	manager := migration.NewManager(migration.NewFileScanner(migration.Files), migration.NewSQLiteExecutor(db), migration.Dir, logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration

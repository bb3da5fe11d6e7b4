package migration

import "embed"

// Dir is the directory inside Files that holds the block schema.
const Dir = "sql"

// Files holds the block schema migrations.
//
//go:embed sql/*.sql
var Files embed.FS

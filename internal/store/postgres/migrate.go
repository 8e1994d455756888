package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// MigrateUp applies the full schema. Every statement is idempotent
// (IF NOT EXISTS / IF NOT EXISTS WHERE), so this is safe to run on every
// process start rather than requiring a separate migration step.
func MigrateUp(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

package db

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schema string

// EnsureSchema applies the embedded schema. Every statement is written to
// be re-runnable (IF NOT EXISTS), so startup is idempotent and there is no
// separate migration step to forget in a fresh environment.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"
)

// migrate applies an embedded schema. Every statement is idempotent.
func migrate(ctx context.Context, db *sql.DB, schema string) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"ayanna/pkg/logger"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the DDL applied by Migrate.
func Schema() string { return schemaSQL }

// Migrate applies the embedded schema. Every statement is IF NOT EXISTS, so it
// can run on each start.
func Migrate(ctx context.Context, pool *Pool) error {
	// Without arguments pgx uses the simple protocol, which accepts several statements.
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	logger.Info(ctx, "database schema applied")
	return nil
}

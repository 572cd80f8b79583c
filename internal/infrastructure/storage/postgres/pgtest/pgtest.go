// Package pgtest opens the integration test database. Tests using it are skipped
// unless TEST_DATABASE_URL is set, in the environment or in the module's .env.
package pgtest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"

	"ayanna/internal/core/id"
	"ayanna/internal/infrastructure/storage/postgres"
)

// Serializes schema application across test packages run in parallel.
const schemaLockID = 7_340_112

// Open connects to TEST_DATABASE_URL, applies the schema and returns the pool with
// a transaction manager over it. The pool closes when the test ends.
//
// Point TEST_DATABASE_URL at a dedicated database: tests write real rows, each
// under a fresh enterprise, and never truncate.
func Open(t testing.TB) (*postgres.Pool, *postgres.TxManager) {
	t.Helper()

	if root, ok := moduleRoot(); ok {
		_ = godotenv.Load(filepath.Join(root, ".env"))
	}
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	cfg := postgres.DefaultPoolConfig(dsn)
	cfg.MinConns = 1
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		t.Fatalf("connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	// The simple protocol runs the batch as one transaction, so the lock holds
	// until the whole schema is applied.
	if _, err := pool.Exec(ctx, fmt.Sprintf("SELECT pg_advisory_xact_lock(%d);\n%s", schemaLockID, postgres.Schema())); err != nil {
		t.Fatalf("apply schema: %v", err)
	}

	return pool, postgres.NewTxManager(pool)
}

// NewEnterprise inserts an enterprise owning everything a test creates, so tests
// sharing the database never see each other's rows.
func NewEnterprise(t testing.TB, pool *postgres.Pool) id.ID {
	t.Helper()
	enterpriseID := id.New()
	if _, err := pool.Exec(context.Background(),
		"INSERT INTO core_enterprises (id, name) VALUES ($1, $2)",
		enterpriseID, "test "+t.Name(),
	); err != nil {
		t.Fatalf("insert enterprise: %v", err)
	}
	return enterpriseID
}

func moduleRoot() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

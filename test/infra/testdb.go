package infra

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewTestPool returns a pool on a freshly migrated, isolated schema. It reuses
// DATABASE_URL or TEST_PG_DSN when set, otherwise starts a container, and skips
// the test when neither a database nor docker is reachable.
func NewTestPool(t testing.TB) *pgxpool.Pool {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" && os.Getenv("TEST_PG_DSN") == "" && !DockerAvailable(ctx) {
		t.Skip("no DATABASE_URL, TEST_PG_DSN or docker; skipping integration test")
	}

	pgC, dsn, err := StartPostgres16(ctx, dsn)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = pgC.Terminate(context.Background()) })

	pool, teardown, err := ApplyMigrations(ctx, dsn, true)
	if err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	t.Cleanup(func() {
		pool.Close()
		if err := teardown(context.Background()); err != nil {
			t.Logf("teardown warning: %v", err)
		}
	})
	return pool
}

package db

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/jackc/pgx/v5/pgconn"
)

type recordingExecer struct {
	statements []string
	failOn     string
}

func (r *recordingExecer) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	if r.failOn != "" && strings.Contains(sql, r.failOn) {
		return pgconn.CommandTag{}, errors.New("boom")
	}
	r.statements = append(r.statements, sql)
	return pgconn.CommandTag{}, nil
}

func TestMigrateFS_AppliesInLexicalOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0002_b.sql":   {Data: []byte("B")},
		"m/0001_a.sql":   {Data: []byte("A")},
		"m/README.md":    {Data: []byte("ignored")},
		"m/0010_c.sql":   {Data: []byte("C")},
		"m/nested/x.sql": {Data: []byte("nested")},
	}

	exec := &recordingExecer{}
	if err := migrateFS(context.Background(), exec, fsys, "m"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	got := strings.Join(exec.statements, ",")
	if got != "A,B,C" {
		t.Fatalf("expected A,B,C got %s", got)
	}
}

func TestMigrateFS_StopsOnError(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0001_a.sql": {Data: []byte("A")},
		"m/0002_b.sql": {Data: []byte("B")},
		"m/0003_c.sql": {Data: []byte("C")},
	}

	exec := &recordingExecer{failOn: "B"}
	err := migrateFS(context.Background(), exec, fsys, "m")
	if err == nil || !strings.Contains(err.Error(), "0002_b.sql") {
		t.Fatalf("expected error naming the failed file, got %v", err)
	}
	if len(exec.statements) != 1 {
		t.Fatalf("expected only the first migration applied, got %d", len(exec.statements))
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := MigrationNames()
	if err != nil {
		t.Fatalf("list migrations: %v", err)
	}
	want := []string{"0001_users.sql", "0002_offers.sql", "0003_orders.sql", "0004_negotiations.sql"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected migrations: %v", names)
	}
}

func TestNewPool_EmptyConnString(t *testing.T) {
	if _, err := NewPool(context.Background(), "", PoolOptions{}); err == nil {
		t.Fatal("expected error for empty connection string")
	}
}

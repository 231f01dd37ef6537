package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Execer is the subset of pgxpool.Pool needed to apply migrations.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Migrate applies every embedded migration in lexical order. The scripts are
// idempotent so running them on every start is safe.
func Migrate(ctx context.Context, conn Execer) error {
	return migrateFS(ctx, conn, migrationFiles, "migrations")
}

// MigrationNames lists the embedded migrations in the order they are applied.
func MigrationNames() ([]string, error) {
	return sortedSQL(migrationFiles, "migrations")
}

func migrateFS(ctx context.Context, conn Execer, fsys fs.FS, dir string) error {
	names, err := sortedSQL(fsys, dir)
	if err != nil {
		return err
	}

	for _, name := range names {
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("db: read %s: %w", name, err)
		}
		if _, err := conn.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("db: apply %s: %w", name, err)
		}
	}
	return nil
}

func sortedSQL(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("db: read dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

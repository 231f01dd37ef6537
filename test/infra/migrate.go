package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tradedesk/db"
)

// ApplicationName tags every connection opened by the harness so chaos
// actors only ever target test backends.
const ApplicationName = "tradedesk_test"

// ApplyMigrations opens a harness pool on dsn and runs the embedded schema.
// With isolate set, tables live in a throwaway schema that the returned
// teardown drops, so runs can share one database.
func ApplyMigrations(ctx context.Context, dsn string, isolate bool) (*pgxpool.Pool, func(context.Context) error, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("infra: parse dsn: %w", err)
	}
	cfg.ConnConfig.RuntimeParams["application_name"] = ApplicationName

	teardown := func(context.Context) error { return nil }
	if isolate {
		schema := fmt.Sprintf("tradedesk_run_%d", time.Now().UnixNano())
		if teardown, err = createSchema(ctx, dsn, schema); err != nil {
			return nil, nil, err
		}
		searchPath := "SET search_path TO " + pgx.Identifier{schema}.Sanitize() + ", public"
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, searchPath)
			return err
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		_ = teardown(ctx)
		return nil, nil, fmt.Errorf("infra: open pool: %w", err)
	}
	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		_ = teardown(ctx)
		return nil, nil, err
	}
	return pool, teardown, nil
}

// createSchema creates schema on a one-off connection and returns a func that
// drops it again.
func createSchema(ctx context.Context, dsn, schema string) (func(context.Context) error, error) {
	ident := pgx.Identifier{schema}.Sanitize()

	exec := func(ctx context.Context, sql string) error {
		conn, err := pgx.Connect(ctx, dsn)
		if err != nil {
			return err
		}
		defer conn.Close(ctx)
		_, err = conn.Exec(ctx, sql)
		return err
	}

	if err := exec(ctx, "CREATE SCHEMA "+ident); err != nil {
		return nil, fmt.Errorf("infra: create schema %s: %w", schema, err)
	}
	return func(ctx context.Context) error {
		return exec(ctx, "DROP SCHEMA IF EXISTS "+ident+" CASCADE")
	}, nil
}

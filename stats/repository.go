package stats

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository runs the aggregate queries behind Overview.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CountActiveOffers counts offers currently visible in the catalog.
func (r *Repository) CountActiveOffers(ctx context.Context) (int64, error) {
	return r.count(ctx, "active offers", `SELECT COUNT(*) FROM offers WHERE active`)
}

// CountUsersByRole counts registered users holding role.
func (r *Repository) CountUsersByRole(ctx context.Context, role string) (int64, error) {
	return r.count(ctx, "users by role", `SELECT COUNT(*) FROM users WHERE role = $1`, role)
}

func (r *Repository) count(ctx context.Context, what, query string, args ...any) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("stats: count %s: %w", what, err)
	}
	return n, nil
}

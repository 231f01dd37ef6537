package chaos

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TerminateRandomBackend periodically kills one backend whose
// application_name equals appName. In-flight transactions on that backend
// roll back, which must never leave a half-written negotiation behind.
// The returned counter reports how many backends were killed.
func TerminateRandomBackend(ctx context.Context, pool *pgxpool.Pool, appName string, stop <-chan struct{}) *atomic.Int64 {
	killed := new(atomic.Int64)
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				if rand.Intn(3) != 0 {
					continue
				}
				tag, err := pool.Exec(ctx, `SELECT pg_terminate_backend(pid) FROM pg_stat_activity
                    WHERE datname = current_database()
                      AND application_name = $1
                      AND pid <> pg_backend_pid()
                    ORDER BY random() LIMIT 1`, appName)
				if err == nil {
					killed.Add(tag.RowsAffected())
				}
			}
		}
	}()
	return killed
}

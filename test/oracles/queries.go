package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Oracle is a query that must return no rows while the system is healthy.
type Oracle struct {
	Name string
	SQL  string
}

func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_one_open_thread_per_pair",
			SQL: `SELECT offer_id, buyer_id, COUNT(*) FROM negotiations
                  WHERE status = 'OPEN'
                  GROUP BY offer_id, buyer_id HAVING COUNT(*) > 1`,
		},
		{
			Name: "O2_agreed_price_only_when_accepted",
			SQL:  `SELECT id, status, agreed_price FROM negotiations WHERE agreed_price IS NOT NULL AND status <> 'ACCEPTED'`,
		},
		{
			Name: "O3_single_status_change",
			SQL: `SELECT negotiation_id, COUNT(*) FROM negotiation_messages
                  WHERE status_update IS NOT NULL
                  GROUP BY negotiation_id HAVING COUNT(*) > 1`,
		},
		{
			Name: "O4_status_matches_log",
			SQL: `SELECT n.id, n.status, m.status_update FROM negotiations n
                  LEFT JOIN negotiation_messages m
                    ON m.negotiation_id = n.id AND m.status_update IS NOT NULL
                  WHERE (n.status = 'OPEN') <> (m.id IS NULL)
                     OR (m.id IS NOT NULL AND m.status_update <> n.status)`,
		},
		{
			Name: "O5_thread_has_opening_message",
			SQL: `SELECT n.id FROM negotiations n
                  WHERE NOT EXISTS (
                      SELECT 1 FROM negotiation_messages m
                      WHERE m.negotiation_id = n.id AND m.sender_id = n.buyer_id AND m.proposed_price IS NOT NULL)`,
		},
		{
			Name: "O6_message_seq_monotonic",
			SQL: `WITH ordered AS (
                      SELECT negotiation_id, seq,
                             LAG(seq) OVER (PARTITION BY negotiation_id ORDER BY created_at, seq) AS prev
                      FROM negotiation_messages)
                  SELECT * FROM ordered WHERE prev IS NOT NULL AND seq <= prev`,
		},
		{
			Name: "O7_nothing_after_close",
			SQL: `SELECT m.id, m.negotiation_id FROM negotiation_messages m
                  JOIN negotiation_messages c
                    ON c.negotiation_id = m.negotiation_id AND c.status_update IS NOT NULL
                  WHERE m.seq > c.seq`,
		},
		{
			Name: "O8_messages_from_participants",
			SQL: `SELECT m.id, m.sender_id FROM negotiation_messages m
                  JOIN negotiations n ON n.id = m.negotiation_id
                  WHERE m.sender_id NOT IN (n.buyer_id, n.producer_id)
                     OR (m.status_update IS NOT NULL AND m.sender_id <> n.producer_id)`,
		},
		{
			Name: "O9_order_sanity",
			SQL: `SELECT o.id, o.quantity, o.unit_price_snapshot FROM orders o
                  WHERE o.quantity <= 0 OR o.unit_price_snapshot < 0`,
		},
		{
			Name: "O10_offer_timestamps",
			SQL:  `SELECT id, created_at, updated_at FROM offers WHERE updated_at < created_at`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
	}
	return "", "", nil
}

package order

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, o Order) (Order, error) {
	const query = `
		INSERT INTO orders (id, buyer_id, offer_id, quantity, unit_price_snapshot, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, buyer_id, offer_id, quantity, unit_price_snapshot, status, created_at
	`

	var rec Order
	err := r.pool.QueryRow(ctx, query, o.ID, o.BuyerID, o.OfferID, o.Quantity, o.UnitPriceSnapshot, o.Status, o.CreatedAt).
		Scan(&rec.ID, &rec.BuyerID, &rec.OfferID, &rec.Quantity, &rec.UnitPriceSnapshot, &rec.Status, &rec.CreatedAt)
	if err != nil {
		return Order{}, fmt.Errorf("order: create: %w", err)
	}
	return rec, nil
}

func (r *Repository) ListByBuyer(ctx context.Context, buyerID string) ([]Order, error) {
	const query = `
		SELECT id, buyer_id, offer_id, quantity, unit_price_snapshot, status, created_at
		FROM orders
		WHERE buyer_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, buyerID)
	if err != nil {
		return nil, fmt.Errorf("order: list: %w", err)
	}
	defer rows.Close()

	out := make([]Order, 0, 8)
	for rows.Next() {
		var rec Order
		if err := rows.Scan(&rec.ID, &rec.BuyerID, &rec.OfferID, &rec.Quantity, &rec.UnitPriceSnapshot, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("order: scan: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("order: iterate: %w", err)
	}
	return out, nil
}

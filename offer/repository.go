package offer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tradedesk/apperr"
)

var (
	ErrNotFound = apperr.New(apperr.KindNotFound, "offer not found")
)

type Repository interface {
	Create(ctx context.Context, offer Offer) (Offer, error)
	Get(ctx context.Context, id string) (Offer, error)
	List(ctx context.Context, filters Filters) ([]Offer, error)
	ListByProducer(ctx context.Context, producerID string) ([]Offer, error)
	Update(ctx context.Context, id string, patch Patch, now time.Time) (Offer, error)
	OwnerOf(ctx context.Context, id string) (string, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const offerColumns = `id, producer_id, product_name, product_category, sku, description, quantity,
	unit_of_measure, unit_price, currency, location, active, created_at, updated_at`

func (r *PGRepository) Create(ctx context.Context, offer Offer) (Offer, error) {
	const query = `
		INSERT INTO offers (id, producer_id, product_name, product_category, sku, description, quantity,
			unit_of_measure, unit_price, currency, location, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		RETURNING ` + offerColumns

	row := r.pool.QueryRow(ctx, query,
		offer.ID,
		offer.ProducerID,
		offer.ProductName,
		offer.ProductCategory,
		offer.SKU,
		offer.Description,
		offer.Quantity,
		offer.UnitOfMeasure,
		offer.UnitPrice,
		offer.Currency,
		offer.Location,
		offer.Active,
		offer.CreatedAt,
	)

	created, err := scanOffer(row)
	if err != nil {
		return Offer{}, fmt.Errorf("offer: create: %w", err)
	}
	return created, nil
}

func (r *PGRepository) Get(ctx context.Context, id string) (Offer, error) {
	if !validID(id) {
		return Offer{}, ErrNotFound
	}

	row := r.pool.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id)
	offer, err := scanOffer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Offer{}, ErrNotFound
		}
		return Offer{}, fmt.Errorf("offer: get: %w", err)
	}
	return offer, nil
}

func (r *PGRepository) List(ctx context.Context, filters Filters) ([]Offer, error) {
	query, args := buildListQuery(filters)
	return r.queryOffers(ctx, "list", query, args...)
}

func (r *PGRepository) ListByProducer(ctx context.Context, producerID string) ([]Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE producer_id = $1 ORDER BY created_at DESC`
	return r.queryOffers(ctx, "list by producer", query, producerID)
}

func (r *PGRepository) Update(ctx context.Context, id string, patch Patch, now time.Time) (Offer, error) {
	if !validID(id) {
		return Offer{}, ErrNotFound
	}

	query, args := buildUpdateQuery(id, patch, now)
	offer, err := scanOffer(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Offer{}, ErrNotFound
		}
		return Offer{}, fmt.Errorf("offer: update: %w", err)
	}
	return offer, nil
}

// OwnerOf returns the producer id of the offer.
func (r *PGRepository) OwnerOf(ctx context.Context, id string) (string, error) {
	if !validID(id) {
		return "", ErrNotFound
	}

	var producerID string
	err := r.pool.QueryRow(ctx, `SELECT producer_id FROM offers WHERE id = $1`, id).Scan(&producerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("offer: owner of: %w", err)
	}
	return producerID, nil
}

func (r *PGRepository) queryOffers(ctx context.Context, op, query string, args ...any) ([]Offer, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("offer: query %s: %w", op, err)
	}
	defer rows.Close()

	list := []Offer{}
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("offer: scan %s: %w", op, err)
		}
		list = append(list, offer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("offer: iterate %s: %w", op, err)
	}
	return list, nil
}

func buildListQuery(filters Filters) (string, []any) {
	where := []string{}
	args := []any{}

	active := true
	if filters.Active != nil {
		active = *filters.Active
	}
	where = append(where, fmt.Sprintf("active=$%d", len(args)+1))
	args = append(args, active)

	if q := strings.TrimSpace(filters.Query); q != "" {
		n := len(args) + 1
		where = append(where, fmt.Sprintf("(product_name ILIKE $%d OR description ILIKE $%d)", n, n))
		args = append(args, "%"+escapeLike(q)+"%")
	}
	if filters.Category != "" {
		where = append(where, fmt.Sprintf("product_category=$%d", len(args)+1))
		args = append(args, filters.Category)
	}
	if filters.Location != "" {
		where = append(where, fmt.Sprintf("location=$%d", len(args)+1))
		args = append(args, filters.Location)
	}
	if filters.MinPrice != nil {
		where = append(where, fmt.Sprintf("unit_price>=$%d", len(args)+1))
		args = append(args, *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		where = append(where, fmt.Sprintf("unit_price<=$%d", len(args)+1))
		args = append(args, *filters.MaxPrice)
	}

	query := `SELECT ` + offerColumns + ` FROM offers WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_at DESC`
	return query, args
}

func buildUpdateQuery(id string, patch Patch, now time.Time) (string, []any) {
	sets := []string{}
	args := []any{id}

	set := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)+1))
		args = append(args, value)
	}

	if patch.ProductName != nil {
		set("product_name", *patch.ProductName)
	}
	if patch.ProductCategory != nil {
		set("product_category", *patch.ProductCategory)
	}
	if patch.SKU != nil {
		set("sku", *patch.SKU)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Quantity != nil {
		set("quantity", *patch.Quantity)
	}
	if patch.UnitOfMeasure != nil {
		set("unit_of_measure", *patch.UnitOfMeasure)
	}
	if patch.UnitPrice != nil {
		set("unit_price", *patch.UnitPrice)
	}
	if patch.Currency != nil {
		set("currency", *patch.Currency)
	}
	if patch.Location != nil {
		set("location", *patch.Location)
	}
	if patch.Active != nil {
		set("active", *patch.Active)
	}

	// updated_at must move forward even when the clock has not.
	sets = append(sets, fmt.Sprintf("updated_at=GREATEST($%d, updated_at + interval '1 microsecond')", len(args)+1))
	args = append(args, now)

	query := `UPDATE offers SET ` + strings.Join(sets, ", ") + ` WHERE id=$1 RETURNING ` + offerColumns
	return query, args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func scanOffer(row pgx.Row) (Offer, error) {
	var offer Offer
	err := row.Scan(
		&offer.ID,
		&offer.ProducerID,
		&offer.ProductName,
		&offer.ProductCategory,
		&offer.SKU,
		&offer.Description,
		&offer.Quantity,
		&offer.UnitOfMeasure,
		&offer.UnitPrice,
		&offer.Currency,
		&offer.Location,
		&offer.Active,
		&offer.CreatedAt,
		&offer.UpdatedAt,
	)
	return offer, err
}

package negotiation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tradedesk/apperr"
)

var (
	ErrNotFound = apperr.New(apperr.KindNotFound, "negotiation not found")
	// ErrAlreadyOpen signals the buyer already has an OPEN thread on the offer.
	ErrAlreadyOpen = apperr.New(apperr.KindConflict, "an open negotiation already exists for this offer")
)

type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, n Negotiation) (Negotiation, error)
	AppendMessage(ctx context.Context, tx pgx.Tx, m Message) (Message, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Negotiation, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status Status, agreedPrice *float64) (Negotiation, error)
	Get(ctx context.Context, id string) (Negotiation, error)
	LatestForPair(ctx context.Context, offerID, buyerID string) (Negotiation, error)
	ListMessages(ctx context.Context, negotiationID string) ([]Message, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const negotiationColumns = `id, offer_id, buyer_id, producer_id, status, agreed_price, created_at`

const messageColumns = `id, negotiation_id, seq, sender_id, proposed_price, message, status_update, created_at`

func (r *PGRepository) Create(ctx context.Context, tx pgx.Tx, n Negotiation) (Negotiation, error) {
	const query = `
		INSERT INTO negotiations (id, offer_id, buyer_id, producer_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + negotiationColumns

	created, err := scanNegotiation(tx.QueryRow(ctx, query, n.ID, n.OfferID, n.BuyerID, n.ProducerID, n.Status, n.CreatedAt))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Negotiation{}, ErrAlreadyOpen
		}
		return Negotiation{}, fmt.Errorf("negotiation: create: %w", err)
	}
	return created, nil
}

func (r *PGRepository) AppendMessage(ctx context.Context, tx pgx.Tx, m Message) (Message, error) {
	const query = `
		INSERT INTO negotiation_messages (id, negotiation_id, sender_id, proposed_price, message, status_update, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + messageColumns

	msg, err := scanMessage(tx.QueryRow(ctx, query, m.ID, m.NegotiationID, m.SenderID, m.ProposedPrice, m.Note, m.StatusUpdate, m.CreatedAt))
	if err != nil {
		return Message{}, fmt.Errorf("negotiation: append message: %w", err)
	}
	return msg, nil
}

// GetForUpdate loads the thread and locks its row until tx ends, serialising
// concurrent state changes on the same negotiation.
func (r *PGRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Negotiation, error) {
	if !validID(id) {
		return Negotiation{}, ErrNotFound
	}

	n, err := scanNegotiation(tx.QueryRow(ctx, `SELECT `+negotiationColumns+` FROM negotiations WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Negotiation{}, ErrNotFound
		}
		return Negotiation{}, fmt.Errorf("negotiation: get for update: %w", err)
	}
	return n, nil
}

func (r *PGRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status Status, agreedPrice *float64) (Negotiation, error) {
	const query = `
		UPDATE negotiations
		SET status = $2,
		    agreed_price = $3
		WHERE id = $1
		RETURNING ` + negotiationColumns

	n, err := scanNegotiation(tx.QueryRow(ctx, query, id, status, agreedPrice))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Negotiation{}, ErrNotFound
		}
		return Negotiation{}, fmt.Errorf("negotiation: update status: %w", err)
	}
	return n, nil
}

func (r *PGRepository) Get(ctx context.Context, id string) (Negotiation, error) {
	if !validID(id) {
		return Negotiation{}, ErrNotFound
	}

	n, err := scanNegotiation(r.pool.QueryRow(ctx, `SELECT `+negotiationColumns+` FROM negotiations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Negotiation{}, ErrNotFound
		}
		return Negotiation{}, fmt.Errorf("negotiation: get: %w", err)
	}
	return n, nil
}

// LatestForPair returns the most recently created thread the buyer opened on the offer.
func (r *PGRepository) LatestForPair(ctx context.Context, offerID, buyerID string) (Negotiation, error) {
	if !validID(offerID) {
		return Negotiation{}, ErrNotFound
	}

	const query = `SELECT ` + negotiationColumns + `
		FROM negotiations
		WHERE offer_id = $1 AND buyer_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	n, err := scanNegotiation(r.pool.QueryRow(ctx, query, offerID, buyerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Negotiation{}, ErrNotFound
		}
		return Negotiation{}, fmt.Errorf("negotiation: latest for pair: %w", err)
	}
	return n, nil
}

func (r *PGRepository) ListMessages(ctx context.Context, negotiationID string) ([]Message, error) {
	const query = `SELECT ` + messageColumns + `
		FROM negotiation_messages
		WHERE negotiation_id = $1
		ORDER BY created_at ASC, seq ASC`

	rows, err := r.pool.Query(ctx, query, negotiationID)
	if err != nil {
		return nil, fmt.Errorf("negotiation: list messages: %w", err)
	}
	defer rows.Close()

	out := make([]Message, 0, 8)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("negotiation: scan message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("negotiation: iterate messages: %w", err)
	}
	return out, nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func scanNegotiation(row pgx.Row) (Negotiation, error) {
	var n Negotiation
	err := row.Scan(&n.ID, &n.OfferID, &n.BuyerID, &n.ProducerID, &n.Status, &n.AgreedPrice, &n.CreatedAt)
	return n, err
}

func scanMessage(row pgx.Row) (Message, error) {
	var m Message
	err := row.Scan(&m.ID, &m.NegotiationID, &m.Seq, &m.SenderID, &m.ProposedPrice, &m.Note, &m.StatusUpdate, &m.CreatedAt)
	return m, err
}

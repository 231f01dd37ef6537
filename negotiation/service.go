package negotiation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"tradedesk/apperr"
	"tradedesk/offer"
)

var (
	ErrOfferUnavailable = apperr.New(apperr.KindNotFound, "offer not found")
	ErrNotParticipant   = apperr.New(apperr.KindForbidden, "forbidden")
	ErrProducerOnly     = apperr.New(apperr.KindForbidden, "only producer can change status")
	ErrClosed           = apperr.New(apperr.KindInvalidState, "negotiation is closed")
	ErrPriceRequired    = apperr.New(apperr.KindValidation, "proposed_price is required for a new offer")
	ErrNegativePrice    = apperr.New(apperr.KindValidation, "proposed_price must be >= 0")
	ErrInvalidStatus    = apperr.New(apperr.KindValidation, "invalid status update")
)

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OfferReader loads the offer a thread is opened against.
type OfferReader interface {
	Get(ctx context.Context, id string) (offer.Offer, error)
}

// Recorder is told about threads reaching a terminal state.
type Recorder interface {
	NegotiationClosed(status string)
}

type Service struct {
	pool     TxBeginner
	repo     Repository
	offers   OfferReader
	recorder Recorder
	now      func() time.Time
	idGen    func() string
}

func NewService(pool TxBeginner, repo Repository, offers OfferReader) *Service {
	return &Service{
		pool:   pool,
		repo:   repo,
		offers: offers,
		now:    time.Now,
		idGen:  uuid.NewString,
	}
}

func (s *Service) WithRecorder(r Recorder) *Service {
	s.recorder = r
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGen = gen
	return s
}

// Start opens a thread on an active offer. The negotiation row and the buyer's
// opening message commit together or not at all.
func (s *Service) Start(ctx context.Context, buyerID string, params StartParams) (Negotiation, error) {
	if params.ProposedPrice == nil {
		return Negotiation{}, ErrPriceRequired
	}
	if !validPrice(*params.ProposedPrice) {
		return Negotiation{}, ErrNegativePrice
	}

	o, err := s.offers.Get(ctx, params.OfferID)
	if err != nil {
		if errors.Is(err, offer.ErrNotFound) {
			return Negotiation{}, ErrOfferUnavailable
		}
		return Negotiation{}, err
	}
	if !o.Active {
		return Negotiation{}, ErrOfferUnavailable
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Negotiation{}, fmt.Errorf("negotiation: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	now := s.now().UTC()
	created, err := s.repo.Create(ctx, tx, Negotiation{
		ID:         s.idGen(),
		OfferID:    o.ID,
		BuyerID:    buyerID,
		ProducerID: o.ProducerID,
		Status:     StatusOpen,
		CreatedAt:  now,
	})
	if err != nil {
		return Negotiation{}, err
	}

	first, err := s.repo.AppendMessage(ctx, tx, Message{
		ID:            s.idGen(),
		NegotiationID: created.ID,
		SenderID:      buyerID,
		ProposedPrice: params.ProposedPrice,
		Note:          params.Note,
		CreatedAt:     now,
	})
	if err != nil {
		return Negotiation{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Negotiation{}, fmt.Errorf("negotiation: commit start: %w", err)
	}

	created.Messages = []Message{first}
	return created, nil
}

// Get returns the thread with its log when callerID takes part in it.
func (s *Service) Get(ctx context.Context, id, callerID string) (Negotiation, error) {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return Negotiation{}, err
	}
	if !n.HasParticipant(callerID) {
		return Negotiation{}, ErrNotParticipant
	}
	return s.withMessages(ctx, n)
}

// GetForOffer returns the caller's own most recent thread on the offer.
func (s *Service) GetForOffer(ctx context.Context, buyerID, offerID string) (Negotiation, error) {
	n, err := s.repo.LatestForPair(ctx, offerID, buyerID)
	if err != nil {
		return Negotiation{}, err
	}
	return s.withMessages(ctx, n)
}

// PostMessage appends a counter-offer or, for the producer, closes the thread.
// The row stays locked for the whole check-then-write sequence so two
// concurrent closes cannot both succeed.
func (s *Service) PostMessage(ctx context.Context, id, callerID string, params PostParams) (Negotiation, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Negotiation{}, fmt.Errorf("negotiation: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	n, err := s.repo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return Negotiation{}, err
	}
	if !n.HasParticipant(callerID) {
		return Negotiation{}, ErrNotParticipant
	}

	next, err := transition(n, callerID, params)
	if err != nil {
		return Negotiation{}, err
	}

	if next.Status != n.Status {
		if n, err = s.repo.UpdateStatus(ctx, tx, n.ID, next.Status, next.AgreedPrice); err != nil {
			return Negotiation{}, err
		}
	}

	if _, err := s.repo.AppendMessage(ctx, tx, Message{
		ID:            s.idGen(),
		NegotiationID: n.ID,
		SenderID:      callerID,
		ProposedPrice: params.ProposedPrice,
		Note:          params.Note,
		StatusUpdate:  params.StatusUpdate,
		CreatedAt:     s.now().UTC(),
	}); err != nil {
		return Negotiation{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Negotiation{}, fmt.Errorf("negotiation: commit message: %w", err)
	}

	if params.StatusUpdate != nil && s.recorder != nil {
		s.recorder.NegotiationClosed(string(n.Status))
	}
	return s.withMessages(ctx, n)
}

// transition applies the state machine to n and returns the resulting state.
// It performs no I/O.
func transition(n Negotiation, callerID string, params PostParams) (Negotiation, error) {
	if params.StatusUpdate == nil {
		if n.Status.Terminal() {
			return Negotiation{}, ErrClosed
		}
		if params.ProposedPrice == nil {
			return Negotiation{}, ErrPriceRequired
		}
		if !validPrice(*params.ProposedPrice) {
			return Negotiation{}, ErrNegativePrice
		}
		return n, nil
	}

	if callerID != n.ProducerID {
		return Negotiation{}, ErrProducerOnly
	}
	if n.Status.Terminal() {
		return Negotiation{}, ErrClosed
	}
	if params.ProposedPrice != nil && !validPrice(*params.ProposedPrice) {
		return Negotiation{}, ErrNegativePrice
	}

	switch *params.StatusUpdate {
	case StatusAccepted:
		n.Status = StatusAccepted
		if params.ProposedPrice != nil {
			price := *params.ProposedPrice
			n.AgreedPrice = &price
		}
	case StatusRejected:
		n.Status = StatusRejected
		n.AgreedPrice = nil
	default:
		return Negotiation{}, ErrInvalidStatus
	}
	return n, nil
}

func (s *Service) withMessages(ctx context.Context, n Negotiation) (Negotiation, error) {
	msgs, err := s.repo.ListMessages(ctx, n.ID)
	if err != nil {
		return Negotiation{}, err
	}
	n.Messages = msgs
	return n, nil
}

func validPrice(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

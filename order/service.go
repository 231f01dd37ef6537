package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"tradedesk/apperr"
	"tradedesk/offer"
)

var (
	ErrOfferUnavailable = apperr.New(apperr.KindNotFound, "offer not found")
	ErrQuantityTooSmall = apperr.New(apperr.KindValidation, "quantity must be at least 1")
	ErrQuantityTooLarge = apperr.New(apperr.KindValidation, "quantity exceeds available")
)

// Store persists orders.
type Store interface {
	Create(ctx context.Context, o Order) (Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]Order, error)
}

// OfferReader loads the offer an order is placed against.
type OfferReader interface {
	Get(ctx context.Context, id string) (offer.Offer, error)
}

// Recorder is notified of placed orders.
type Recorder interface {
	OrderPlaced()
}

type Service struct {
	store    Store
	offers   OfferReader
	recorder Recorder
	now      func() time.Time
	idGen    func() string
}

func NewService(store Store, offers OfferReader) *Service {
	return &Service{
		store:  store,
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

// Place records an order for quantity units of an active offer at its current
// price. The offer's own quantity is left untouched.
func (s *Service) Place(ctx context.Context, buyerID, offerID string, quantity int) (Order, error) {
	if quantity < 1 {
		return Order{}, ErrQuantityTooSmall
	}

	o, err := s.offers.Get(ctx, offerID)
	if err != nil {
		if errors.Is(err, offer.ErrNotFound) {
			return Order{}, ErrOfferUnavailable
		}
		return Order{}, err
	}
	if !o.Active {
		return Order{}, ErrOfferUnavailable
	}
	if quantity > o.Quantity {
		return Order{}, ErrQuantityTooLarge
	}

	placed, err := s.store.Create(ctx, Order{
		ID:                s.idGen(),
		BuyerID:           buyerID,
		OfferID:           o.ID,
		Quantity:          quantity,
		UnitPriceSnapshot: o.UnitPrice,
		Status:            StatusPlaced,
		CreatedAt:         s.now().UTC(),
	})
	if err != nil {
		return Order{}, err
	}
	if s.recorder != nil {
		s.recorder.OrderPlaced()
	}
	return placed, nil
}

func (s *Service) ListByBuyer(ctx context.Context, buyerID string) ([]Order, error) {
	return s.store.ListByBuyer(ctx, buyerID)
}

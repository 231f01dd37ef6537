package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"tradedesk/apperr"
	"tradedesk/auth"
	"tradedesk/negotiation"
	"tradedesk/offer"
	"tradedesk/order"
)

// Tally counts what the actors observed. Rejected counts domain refusals that
// are expected under contention; Transient counts infrastructure failures such
// as a killed backend.
type Tally struct {
	Succeeded atomic.Int64
	Rejected  atomic.Int64
	Transient atomic.Int64
}

func (t *Tally) String() string {
	return fmt.Sprintf("ok=%d rejected=%d transient=%d", t.Succeeded.Load(), t.Rejected.Load(), t.Transient.Load())
}

// Negotiations is the slice of negotiation.Service the actors drive.
type Negotiations interface {
	Start(ctx context.Context, buyerID string, params negotiation.StartParams) (negotiation.Negotiation, error)
	GetForOffer(ctx context.Context, buyerID, offerID string) (negotiation.Negotiation, error)
	PostMessage(ctx context.Context, id, callerID string, params negotiation.PostParams) (negotiation.Negotiation, error)
}

type Orders interface {
	Place(ctx context.Context, buyerID, offerID string, quantity int) (order.Order, error)
}

type Catalog interface {
	Update(ctx context.Context, id string, caller auth.User, patch offer.Patch) (offer.Offer, error)
}

// Pair identifies one buyer bargaining over one offer.
type Pair struct {
	OfferID    string
	BuyerID    string
	ProducerID string
}

// record classifies err. It returns a non-nil error only for failures no actor
// should ever see.
func record(t *Tally, err error, expected ...error) error {
	if err == nil {
		t.Succeeded.Add(1)
		return nil
	}
	for _, e := range expected {
		if errors.Is(err, e) {
			t.Rejected.Add(1)
			return nil
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if apperr.KindOf(err) == apperr.KindInternal {
		t.Transient.Add(1)
		return nil
	}
	return err
}

func loop(ctx context.Context, stop <-chan struct{}, pause func() time.Duration, step func() error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-stop:
			return nil
		default:
		}
		if err := step(); err != nil {
			return err
		}
		time.Sleep(pause())
	}
}

func jitter(base, spread int) func() time.Duration {
	return func() time.Duration {
		return time.Duration(base+rand.Intn(spread)) * time.Millisecond
	}
}

func randPrice(lo, hi float64) *float64 {
	p := lo + rand.Float64()*(hi-lo)
	return &p
}

// Starter keeps trying to open a thread for its pair. Only one may be OPEN at
// a time, so most attempts bounce off ErrAlreadyOpen.
func Starter(ctx context.Context, svc Negotiations, p Pair, t *Tally, stop <-chan struct{}) error {
	return loop(ctx, stop, jitter(10, 20), func() error {
		_, err := svc.Start(ctx, p.BuyerID, negotiation.StartParams{OfferID: p.OfferID, ProposedPrice: randPrice(5, 10)})
		if err := record(t, err, negotiation.ErrAlreadyOpen); err != nil {
			return fmt.Errorf("starter: %w", err)
		}
		return nil
	})
}

// Counterer posts counter-offers on the pair's latest thread, alternating
// between the two participants.
func Counterer(ctx context.Context, svc Negotiations, p Pair, t *Tally, stop <-chan struct{}) error {
	return loop(ctx, stop, jitter(15, 30), func() error {
		n, err := svc.GetForOffer(ctx, p.BuyerID, p.OfferID)
		if err != nil {
			if err := record(t, err, negotiation.ErrNotFound); err != nil {
				return fmt.Errorf("counterer lookup: %w", err)
			}
			return nil
		}
		sender := p.BuyerID
		if rand.Intn(2) == 0 {
			sender = p.ProducerID
		}
		_, err = svc.PostMessage(ctx, n.ID, sender, negotiation.PostParams{ProposedPrice: randPrice(5, 10)})
		if err := record(t, err, negotiation.ErrClosed); err != nil {
			return fmt.Errorf("counterer post: %w", err)
		}
		return nil
	})
}

// Closer has the producer accept or reject the pair's latest thread. Several
// closers race on the same thread; exactly one may win.
func Closer(ctx context.Context, svc Negotiations, p Pair, t *Tally, stop <-chan struct{}) error {
	statuses := []negotiation.Status{negotiation.StatusAccepted, negotiation.StatusRejected}
	return loop(ctx, stop, jitter(20, 40), func() error {
		n, err := svc.GetForOffer(ctx, p.BuyerID, p.OfferID)
		if err != nil {
			if err := record(t, err, negotiation.ErrNotFound); err != nil {
				return fmt.Errorf("closer lookup: %w", err)
			}
			return nil
		}
		st := statuses[rand.Intn(len(statuses))]
		_, err = svc.PostMessage(ctx, n.ID, p.ProducerID, negotiation.PostParams{ProposedPrice: randPrice(5, 10), StatusUpdate: &st})
		if err := record(t, err, negotiation.ErrClosed); err != nil {
			return fmt.Errorf("closer post: %w", err)
		}
		return nil
	})
}

// Intruder is a third party poking at the pair's thread. Every attempt must
// be refused.
func Intruder(ctx context.Context, svc Negotiations, p Pair, intruderID string, t *Tally, stop <-chan struct{}) error {
	return loop(ctx, stop, jitter(30, 50), func() error {
		n, err := svc.GetForOffer(ctx, p.BuyerID, p.OfferID)
		if err != nil {
			return record(t, err, negotiation.ErrNotFound)
		}
		_, err = svc.PostMessage(ctx, n.ID, intruderID, negotiation.PostParams{ProposedPrice: randPrice(1, 2)})
		if err == nil {
			return fmt.Errorf("intruder: post on %s was accepted", n.ID)
		}
		return record(t, err, negotiation.ErrNotParticipant)
	})
}

// Orderer places orders of random size, some above the offer quantity.
func Orderer(ctx context.Context, svc Orders, p Pair, maxQty int, t *Tally, stop <-chan struct{}) error {
	return loop(ctx, stop, jitter(20, 30), func() error {
		qty := 1 + rand.Intn(maxQty+2)
		_, err := svc.Place(ctx, p.BuyerID, p.OfferID, qty)
		if err := record(t, err, order.ErrQuantityTooLarge); err != nil {
			return fmt.Errorf("orderer: %w", err)
		}
		return nil
	})
}

// Repricer moves the offer price around so order snapshots diverge from the
// current price.
func Repricer(ctx context.Context, svc Catalog, p Pair, t *Tally, stop <-chan struct{}) error {
	owner := auth.User{ID: p.ProducerID, Role: auth.RoleProducer}
	return loop(ctx, stop, jitter(40, 60), func() error {
		_, err := svc.Update(ctx, p.OfferID, owner, offer.Patch{UnitPrice: randPrice(5, 15)})
		if err := record(t, err); err != nil {
			return fmt.Errorf("repricer: %w", err)
		}
		return nil
	})
}

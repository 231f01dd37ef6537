package main

import (
	"context"
	"strings"
	"sync"
	"testing"

	"tradedesk/auth"
	"tradedesk/logging"
	"tradedesk/offer"
	"tradedesk/order"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]auth.User
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		return auth.User{}, auth.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) Register(_ context.Context, req auth.RegisterRequest) (auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := auth.User{ID: "id-" + req.Email, Email: req.Email, Role: req.Role}
	f.users[req.Email] = u
	return u, nil
}

type fakeCatalog struct {
	mu      sync.Mutex
	created []offer.Offer
}

func (f *fakeCatalog) Create(_ context.Context, producerID string, p offer.CreateParams) (offer.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := offer.Offer{ID: p.ProductName, ProducerID: producerID, ProductName: p.ProductName, UnitPrice: p.UnitPrice}
	f.created = append(f.created, o)
	return o, nil
}

type fakeOrders struct{ placed []order.Order }

func (f *fakeOrders) Place(_ context.Context, buyerID, offerID string, quantity int) (order.Order, error) {
	o := order.Order{BuyerID: buyerID, OfferID: offerID, Quantity: quantity}
	f.placed = append(f.placed, o)
	return o, nil
}

func TestSeeder_RunIsIdempotent(t *testing.T) {
	users := &fakeUsers{users: map[string]auth.User{}}
	cat := &fakeCatalog{}
	orders := &fakeOrders{}
	s := &seeder{
		accounts:  users,
		registrar: users,
		catalog:   cat,
		orders:    orders,
		hasOffers: func(context.Context) (bool, error) {
			cat.mu.Lock()
			defer cat.mu.Unlock()
			return len(cat.created) > 0, nil
		},
		logger: logging.Discard(),
	}

	for i := 0; i < 2; i++ {
		if err := s.run(context.Background()); err != nil {
			t.Fatalf("run #%d: %v", i+1, err)
		}
	}

	if len(users.users) != 2 {
		t.Fatalf("expected 2 demo users, got %d", len(users.users))
	}
	if got, want := len(cat.created), generatedCount+2; got != want {
		t.Fatalf("expected %d offers, got %d", want, got)
	}
	if len(orders.placed) != 1 {
		t.Fatalf("expected one sample order, got %d", len(orders.placed))
	}
	if orders.placed[0].OfferID != "Pellet sosnowy A1" || orders.placed[0].BuyerID != "id-"+demoBuyerEmail {
		t.Fatalf("unexpected sample order %+v", orders.placed[0])
	}
	for _, o := range cat.created {
		if o.ProducerID != "id-"+demoProducerEmail {
			t.Fatalf("offer %q owned by %q", o.ProductName, o.ProducerID)
		}
	}
}

func TestGeneratedOffers_Deterministic(t *testing.T) {
	list := generatedOffers(30)
	if len(list) != 30 {
		t.Fatalf("expected 30 offers, got %d", len(list))
	}
	first := list[0]
	if first.ProductName != "Brykiet dębowy premium #1" || *first.SKU != "BRY-OAK-001" || first.Location != "Warszawa" {
		t.Fatalf("unexpected first offer %+v", first)
	}
	if first.Quantity != 200 || first.UnitPrice != 1.45 {
		t.Fatalf("unexpected quantity/price %d/%v", first.Quantity, first.UnitPrice)
	}
	// index 27 wraps to the third product with the 1.10 multiplier
	wrapped := list[27]
	if !strings.HasPrefix(wrapped.ProductName, "Blacha trapezowa T18") || wrapped.UnitPrice != 35.2 || wrapped.Location != "Rzeszów" {
		t.Fatalf("unexpected wrapped offer %+v", wrapped)
	}
}

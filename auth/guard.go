package auth

import (
	"context"

	"tradedesk/apperr"
)

// ErrForbidden signals an authenticated caller acting outside their entitlements.
var ErrForbidden = apperr.New(apperr.KindForbidden, "forbidden")

// RequireRole passes user through when it holds role.
func RequireRole(user User, role Role) (User, error) {
	if user.Role != role {
		return User{}, ErrForbidden
	}
	return user, nil
}

// OfferOwnerLookup resolves the producer that owns an offer. Implementations
// return a NotFound-kinded error for unknown offers.
type OfferOwnerLookup interface {
	OwnerOf(ctx context.Context, offerID string) (string, error)
}

// Guard answers ownership questions that need a store lookup.
type Guard struct {
	offers OfferOwnerLookup
}

func NewGuard(offers OfferOwnerLookup) *Guard {
	return &Guard{offers: offers}
}

// RequireOfferOwner passes user through when it is the producer owning offerID.
// A missing offer is reported as not found whatever the caller's role.
func (g *Guard) RequireOfferOwner(ctx context.Context, offerID string, user User) (User, error) {
	ownerID, err := g.offers.OwnerOf(ctx, offerID)
	if err != nil {
		return User{}, err
	}
	if ownerID != user.ID {
		return User{}, ErrForbidden
	}
	return user, nil
}

package offer

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"tradedesk/apperr"
	"tradedesk/auth"
)

var (
	ErrNegativePrice    = apperr.New(apperr.KindValidation, "unit_price must be >= 0")
	ErrNegativeQuantity = apperr.New(apperr.KindValidation, "quantity must be >= 0")
	ErrNegativeBound    = apperr.New(apperr.KindValidation, "price filters must be >= 0")
)

// OwnershipGuard decides whether a caller may change an offer.
type OwnershipGuard interface {
	RequireOfferOwner(ctx context.Context, offerID string, user auth.User) (auth.User, error)
}

type Service struct {
	repo        Repository
	guard       OwnershipGuard
	idGenerator func() string
	now         func() time.Time
}

func NewService(repo Repository, guard OwnershipGuard) *Service {
	return &Service{
		repo:        repo,
		guard:       guard,
		idGenerator: uuid.NewString,
		now:         time.Now,
	}
}

func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGenerator = gen
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create lists a new offer owned by producerID.
func (s *Service) Create(ctx context.Context, producerID string, params CreateParams) (Offer, error) {
	required := []struct {
		name  string
		value string
	}{
		{"product_name", params.ProductName},
		{"product_category", params.ProductCategory},
		{"unit_of_measure", params.UnitOfMeasure},
		{"currency", params.Currency},
		{"location", params.Location},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return Offer{}, apperr.Validation("%s is required", field.name)
		}
	}
	if params.Quantity < 0 {
		return Offer{}, ErrNegativeQuantity
	}
	if !validPrice(params.UnitPrice) {
		return Offer{}, ErrNegativePrice
	}

	active := true
	if params.Active != nil {
		active = *params.Active
	}

	return s.repo.Create(ctx, Offer{
		ID:              s.idGenerator(),
		ProducerID:      producerID,
		ProductName:     params.ProductName,
		ProductCategory: params.ProductCategory,
		SKU:             params.SKU,
		Description:     params.Description,
		Quantity:        params.Quantity,
		UnitOfMeasure:   params.UnitOfMeasure,
		UnitPrice:       params.UnitPrice,
		Currency:        params.Currency,
		Location:        params.Location,
		Active:          active,
		CreatedAt:       s.now().UTC(),
	})
}

func (s *Service) List(ctx context.Context, filters Filters) ([]Offer, error) {
	if (filters.MinPrice != nil && !validPrice(*filters.MinPrice)) ||
		(filters.MaxPrice != nil && !validPrice(*filters.MaxPrice)) {
		return nil, ErrNegativeBound
	}
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id string) (Offer, error) {
	return s.repo.Get(ctx, id)
}

// Update applies patch to the offer when caller owns it. updated_at advances
// even if every submitted value equals the stored one.
func (s *Service) Update(ctx context.Context, id string, caller auth.User, patch Patch) (Offer, error) {
	if _, err := s.guard.RequireOfferOwner(ctx, id, caller); err != nil {
		return Offer{}, err
	}
	if err := validatePatch(patch); err != nil {
		return Offer{}, err
	}
	return s.repo.Update(ctx, id, patch, s.now().UTC())
}

func (s *Service) ListByProducer(ctx context.Context, producerID string) ([]Offer, error) {
	return s.repo.ListByProducer(ctx, producerID)
}

func validatePatch(patch Patch) error {
	required := []struct {
		name  string
		value *string
	}{
		{"product_name", patch.ProductName},
		{"product_category", patch.ProductCategory},
		{"unit_of_measure", patch.UnitOfMeasure},
		{"currency", patch.Currency},
		{"location", patch.Location},
	}
	for _, field := range required {
		if field.value != nil && strings.TrimSpace(*field.value) == "" {
			return apperr.Validation("%s must not be empty", field.name)
		}
	}
	if patch.Quantity != nil && *patch.Quantity < 0 {
		return ErrNegativeQuantity
	}
	if patch.UnitPrice != nil && !validPrice(*patch.UnitPrice) {
		return ErrNegativePrice
	}
	return nil
}

func validPrice(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

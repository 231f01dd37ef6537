package stats

import (
	"context"

	"golang.org/x/sync/errgroup"

	"tradedesk/auth"
)

// Counter abstracts repository operations for the service.
type Counter interface {
	CountActiveOffers(ctx context.Context) (int64, error)
	CountUsersByRole(ctx context.Context, role string) (int64, error)
}

// Service exposes the marketplace overview.
type Service struct {
	repo Counter
}

// NewService builds a Service using the provided repository.
func NewService(repo Counter) *Service {
	return &Service{repo: repo}
}

// Overview recomputes every counter on each call; the three queries run concurrently.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	var out Overview
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.repo.CountActiveOffers(ctx)
		out.ActiveOffers = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountUsersByRole(ctx, string(auth.RoleProducer))
		out.Producers = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountUsersByRole(ctx, string(auth.RoleBuyer))
		out.Buyers = n
		return err
	})

	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return out, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"tradedesk/auth"
	"tradedesk/config"
	"tradedesk/db"
	"tradedesk/logging"
	"tradedesk/offer"
	"tradedesk/order"
)

const (
	demoPassword      = "Passw0rd!"
	demoProducerEmail = "producer@example.com"
	demoBuyerEmail    = "buyer@example.com"
	generatedCount    = 100
	sampleOrderQty    = 50
)

type accounts interface {
	GetUserByEmail(ctx context.Context, email string) (auth.User, error)
}

type registrar interface {
	Register(ctx context.Context, req auth.RegisterRequest) (auth.User, error)
}

type catalog interface {
	Create(ctx context.Context, producerID string, params offer.CreateParams) (offer.Offer, error)
}

type orderPlacer interface {
	Place(ctx context.Context, buyerID, offerID string, quantity int) (order.Order, error)
}

// seeder writes demo data through the service layer so every business rule
// applies to seeded rows too.
type seeder struct {
	accounts  accounts
	registrar registrar
	catalog   catalog
	orders    orderPlacer
	hasOffers func(ctx context.Context) (bool, error)
	logger    *logrus.Logger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load configuration")
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: cfg.DBMaxConns})
	if err != nil {
		logger.WithError(err).Fatal("bootstrap database pool")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.WithError(err).Fatal("apply migrations")
	}

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, auth.Config{
		Secret:     cfg.JWTSecret,
		Issuer:     cfg.JWTIssuer,
		TokenTTL:   cfg.TokenTTL,
		BcryptCost: cfg.BcryptCost,
	})
	offerRepo := offer.NewRepository(pool)
	offerService := offer.NewService(offerRepo, auth.NewGuard(offerRepo))

	s := &seeder{
		accounts:  authRepo,
		registrar: authService,
		catalog:   offerService,
		orders:    order.NewService(order.NewRepository(pool), offerService),
		hasOffers: anyOffers(pool),
		logger:    logger,
	}
	if err := s.run(ctx); err != nil {
		logger.WithError(err).Fatal("seed failed")
	}

	fmt.Printf("Seed done.\nLogins:\n  %s / %s\n  %s    / %s\n",
		demoProducerEmail, demoPassword, demoBuyerEmail, demoPassword)
}

func anyOffers(pool *pgxpool.Pool) func(ctx context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) {
		var exists bool
		if err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM offers)`).Scan(&exists); err != nil {
			return false, fmt.Errorf("seed: check offers: %w", err)
		}
		return exists, nil
	}
}

func (s *seeder) run(ctx context.Context) error {
	producer, err := s.ensureUser(ctx, demoProducerEmail, auth.RoleProducer)
	if err != nil {
		return err
	}
	buyer, err := s.ensureUser(ctx, demoBuyerEmail, auth.RoleBuyer)
	if err != nil {
		return err
	}

	exists, err := s.hasOffers(ctx)
	if err != nil {
		return err
	}
	if exists {
		s.logger.Info("catalog already present, skipping offers")
		return nil
	}

	var first offer.Offer
	for i, params := range featuredOffers() {
		created, err := s.catalog.Create(ctx, producer.ID, params)
		if err != nil {
			return fmt.Errorf("seed: create %q: %w", params.ProductName, err)
		}
		if i == 0 {
			first = created
		}
	}

	if _, err := s.orders.Place(ctx, buyer.ID, first.ID, sampleOrderQty); err != nil {
		return fmt.Errorf("seed: sample order: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, params := range generatedOffers(generatedCount) {
		params := params
		g.Go(func() error {
			if _, err := s.catalog.Create(gctx, producer.ID, params); err != nil {
				return fmt.Errorf("seed: create %q: %w", params.ProductName, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.logger.WithField("offers", generatedCount+len(featuredOffers())).Info("catalog seeded")
	return nil
}

func (s *seeder) ensureUser(ctx context.Context, email string, role auth.Role) (auth.User, error) {
	user, err := s.accounts.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, auth.ErrUserNotFound) {
		return auth.User{}, fmt.Errorf("seed: lookup %s: %w", email, err)
	}

	user, err = s.registrar.Register(ctx, auth.RegisterRequest{Email: email, Password: demoPassword, Role: role})
	if err != nil {
		return auth.User{}, fmt.Errorf("seed: register %s: %w", email, err)
	}
	s.logger.WithFields(logrus.Fields{"email": email, "role": role}).Info("demo user created")
	return user, nil
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"tradedesk/auth"
	"tradedesk/config"
	"tradedesk/db"
	"tradedesk/logging"
	"tradedesk/metrics"
	"tradedesk/negotiation"
	"tradedesk/offer"
	"tradedesk/order"
	"tradedesk/stats"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load configuration")
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("api exited")
	}
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: cfg.DBMaxConns})
	if err != nil {
		cancel()
		return err
	}
	defer pool.Close()

	err = db.Migrate(ctx, pool)
	cancel()
	if err != nil {
		return err
	}

	m := metrics.New()

	authService := auth.NewService(auth.NewRepository(pool), auth.Config{
		Secret:     cfg.JWTSecret,
		Issuer:     cfg.JWTIssuer,
		TokenTTL:   cfg.TokenTTL,
		BcryptCost: cfg.BcryptCost,
	})
	offerRepo := offer.NewRepository(pool)
	offerService := offer.NewService(offerRepo, auth.NewGuard(offerRepo))
	orderService := order.NewService(order.NewRepository(pool), offerService).WithRecorder(m)
	negotiationService := negotiation.NewService(pool, negotiation.NewRepository(pool), offerService).WithRecorder(m)
	statsService := stats.NewService(stats.NewRepository(pool))

	server := NewServer(Deps{
		Auth:         authService,
		Offers:       offerService,
		Orders:       orderService,
		Negotiations: negotiationService,
		Stats:        statsService,
		Logger:       logger,
		Metrics:      m,
	}, cfg)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":        cfg.HTTPAddr,
			"environment": cfg.Environment,
		}).Info("api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.WithField("signal", sig.String()).Info("shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server exited")
	return nil
}

package main

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"tradedesk/auth"
	"tradedesk/config"
	"tradedesk/metrics"
	"tradedesk/negotiation"
	"tradedesk/offer"
	"tradedesk/order"
	"tradedesk/stats"
)

type authService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (auth.User, error)
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResult, error)
	GetUserByID(ctx context.Context, userID string) (auth.User, error)
	ResolveToken(ctx context.Context, token string) (auth.User, error)
}

type offerService interface {
	Create(ctx context.Context, producerID string, params offer.CreateParams) (offer.Offer, error)
	List(ctx context.Context, filters offer.Filters) ([]offer.Offer, error)
	Get(ctx context.Context, id string) (offer.Offer, error)
	Update(ctx context.Context, id string, caller auth.User, patch offer.Patch) (offer.Offer, error)
	ListByProducer(ctx context.Context, producerID string) ([]offer.Offer, error)
}

type orderService interface {
	Place(ctx context.Context, buyerID, offerID string, quantity int) (order.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]order.Order, error)
}

type negotiationService interface {
	Start(ctx context.Context, buyerID string, params negotiation.StartParams) (negotiation.Negotiation, error)
	Get(ctx context.Context, id, callerID string) (negotiation.Negotiation, error)
	GetForOffer(ctx context.Context, buyerID, offerID string) (negotiation.Negotiation, error)
	PostMessage(ctx context.Context, id, callerID string, params negotiation.PostParams) (negotiation.Negotiation, error)
}

type statsService interface {
	Overview(ctx context.Context) (stats.Overview, error)
}

// Deps groups everything the HTTP layer is built from.
type Deps struct {
	Auth         authService
	Offers       offerService
	Orders       orderService
	Negotiations negotiationService
	Stats        statsService
	Logger       *logrus.Logger
	Metrics      *metrics.Metrics
}

// Server owns the HTTP surface. Handlers are methods so tests can call them
// directly with a stubbed Server.
type Server struct {
	authService        authService
	offerService       offerService
	orderService       orderService
	negotiationService negotiationService
	statsService       statsService

	logger      *logrus.Logger
	metrics     *metrics.Metrics
	validate    *validator.Validate
	authLimiter *rateLimiter
	corsOrigins []string
}

func NewServer(deps Deps, cfg *config.Config) *Server {
	return &Server{
		authService:        deps.Auth,
		offerService:       deps.Offers,
		orderService:       deps.Orders,
		negotiationService: deps.Negotiations,
		statsService:       deps.Stats,
		logger:             deps.Logger,
		metrics:            deps.Metrics,
		validate:           newValidator(),
		authLimiter:        newRateLimiter(cfg.AuthRateRPS, cfg.AuthRateBurst),
		corsOrigins:        cfg.CORSOrigins,
	}
}

// Handler builds the router. Every route is served both at the root and
// under /api.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestID, s.recoverPanic, s.observe)

	s.routes(r)
	s.routes(r.PathPrefix("/api").Subrouter())

	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondWithError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: false,
	})
	return c.Handler(r)
}

func (s *Server) routes(r *mux.Router) {
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	r.Handle("/auth/register", s.authLimiter.limit(http.HandlerFunc(s.handleRegister))).Methods(http.MethodPost)
	r.Handle("/auth/login", s.authLimiter.limit(http.HandlerFunc(s.handleLogin))).Methods(http.MethodPost)
	r.Handle("/auth/me", s.authenticate(s.handleMe)).Methods(http.MethodGet)

	r.HandleFunc("/offers", s.handleListOffers).Methods(http.MethodGet)
	r.Handle("/offers", s.authenticate(s.handleCreateOffer)).Methods(http.MethodPost)
	r.HandleFunc("/offers/{id}", s.handleGetOffer).Methods(http.MethodGet)
	r.Handle("/offers/{id}", s.authenticate(s.handleUpdateOffer)).Methods(http.MethodPatch)
	r.Handle("/producer/my-offers", s.authenticate(s.handleMyOffers)).Methods(http.MethodGet)

	r.Handle("/orders", s.authenticate(s.handlePlaceOrder)).Methods(http.MethodPost)
	r.Handle("/orders/mine", s.authenticate(s.handleMyOrders)).Methods(http.MethodGet)

	r.Handle("/negotiations", s.authenticate(s.handleStartNegotiation)).Methods(http.MethodPost)
	r.Handle("/negotiations/for-offer/{offer_id}", s.authenticate(s.handleNegotiationForOffer)).Methods(http.MethodGet)
	r.Handle("/negotiations/{id}", s.authenticate(s.handleGetNegotiation)).Methods(http.MethodGet)
	r.Handle("/negotiations/{id}/messages", s.authenticate(s.handlePostMessage)).Methods(http.MethodPost)

	r.HandleFunc("/stats/overview", s.handleStatsOverview).Methods(http.MethodGet)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

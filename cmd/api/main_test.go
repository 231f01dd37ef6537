package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"tradedesk/auth"
	"tradedesk/logging"
	"tradedesk/metrics"
	"tradedesk/negotiation"
	"tradedesk/offer"
	"tradedesk/order"
	"tradedesk/stats"
)

type stubAuthService struct {
	registered  auth.User
	registerErr error
	login       auth.LoginResult
	loginErr    error
	user        auth.User
	userErr     error
	resolveErr  error
}

func (s *stubAuthService) Register(_ context.Context, _ auth.RegisterRequest) (auth.User, error) {
	return s.registered, s.registerErr
}

func (s *stubAuthService) Login(_ context.Context, _ auth.LoginRequest) (auth.LoginResult, error) {
	return s.login, s.loginErr
}

func (s *stubAuthService) GetUserByID(_ context.Context, _ string) (auth.User, error) {
	return s.user, s.userErr
}

func (s *stubAuthService) ResolveToken(_ context.Context, _ string) (auth.User, error) {
	return s.user, s.resolveErr
}

type stubOfferService struct {
	offer       offer.Offer
	offers      []offer.Offer
	err         error
	gotFilters  offer.Filters
	gotCreate   offer.CreateParams
	gotPatch    offer.Patch
	gotCaller   auth.User
	gotProducer string
}

func (s *stubOfferService) Create(_ context.Context, producerID string, params offer.CreateParams) (offer.Offer, error) {
	s.gotProducer = producerID
	s.gotCreate = params
	return s.offer, s.err
}

func (s *stubOfferService) List(_ context.Context, filters offer.Filters) ([]offer.Offer, error) {
	s.gotFilters = filters
	return s.offers, s.err
}

func (s *stubOfferService) Get(_ context.Context, _ string) (offer.Offer, error) {
	return s.offer, s.err
}

func (s *stubOfferService) Update(_ context.Context, _ string, caller auth.User, patch offer.Patch) (offer.Offer, error) {
	s.gotCaller = caller
	s.gotPatch = patch
	return s.offer, s.err
}

func (s *stubOfferService) ListByProducer(_ context.Context, producerID string) ([]offer.Offer, error) {
	s.gotProducer = producerID
	return s.offers, s.err
}

type stubOrderService struct {
	order       order.Order
	orders      []order.Order
	err         error
	gotQuantity int
}

func (s *stubOrderService) Place(_ context.Context, _, _ string, quantity int) (order.Order, error) {
	s.gotQuantity = quantity
	return s.order, s.err
}

func (s *stubOrderService) ListByBuyer(_ context.Context, _ string) ([]order.Order, error) {
	return s.orders, s.err
}

type stubNegotiationService struct {
	negotiation negotiation.Negotiation
	err         error
	gotParams   negotiation.PostParams
	gotStart    negotiation.StartParams
	gotCaller   string
}

func (s *stubNegotiationService) Start(_ context.Context, buyerID string, params negotiation.StartParams) (negotiation.Negotiation, error) {
	s.gotCaller = buyerID
	s.gotStart = params
	return s.negotiation, s.err
}

func (s *stubNegotiationService) Get(_ context.Context, _, callerID string) (negotiation.Negotiation, error) {
	s.gotCaller = callerID
	return s.negotiation, s.err
}

func (s *stubNegotiationService) GetForOffer(_ context.Context, _, _ string) (negotiation.Negotiation, error) {
	return s.negotiation, s.err
}

func (s *stubNegotiationService) PostMessage(_ context.Context, _, callerID string, params negotiation.PostParams) (negotiation.Negotiation, error) {
	s.gotCaller = callerID
	s.gotParams = params
	return s.negotiation, s.err
}

type stubStatsService struct {
	overview stats.Overview
	err      error
	panics   bool
}

func (s *stubStatsService) Overview(_ context.Context) (stats.Overview, error) {
	if s.panics {
		panic("stats exploded")
	}
	return s.overview, s.err
}

func newTestServer() *Server {
	return &Server{
		authService:        &stubAuthService{},
		offerService:       &stubOfferService{},
		orderService:       &stubOrderService{},
		negotiationService: &stubNegotiationService{},
		statsService:       &stubStatsService{},
		logger:             logging.Discard(),
		metrics:            metrics.New(),
		validate:           newValidator(),
		authLimiter:        newRateLimiter(100, 100),
	}
}

func asUser(req *http.Request, id string, role auth.Role) *http.Request {
	ctx := context.WithValue(req.Context(), ctxKeyUserID, id)
	ctx = context.WithValue(ctx, ctxKeyRole, role)
	return req.WithContext(ctx)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rec.Body.String())
	}
	return body.Error
}

func TestHandleRegister_Created(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	server := newTestServer()
	server.authService = &stubAuthService{
		registered: auth.User{ID: "u1", Email: "p@example.com", Role: auth.RoleProducer, CreatedAt: now},
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"email":"p@example.com","password":"secret1","role":"PRODUCER"}`))
	rec := httptest.NewRecorder()

	server.handleRegister(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var resp userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "u1" || resp.Role != auth.RoleProducer || !resp.CreatedAt.Equal(now) {
		t.Fatalf("unexpected response payload: %+v", resp)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("password hash leaked: %s", rec.Body.String())
	}
}

func TestHandleRegister_DuplicateIsBadRequest(t *testing.T) {
	server := newTestServer()
	server.authService = &stubAuthService{registerErr: auth.ErrDuplicateEmail}

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"email":"p@example.com","password":"secret1","role":"BUYER"}`))
	rec := httptest.NewRecorder()

	server.handleRegister(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "email already registered" {
		t.Fatalf("unexpected error message %q", msg)
	}
}

func TestHandleRegister_ValidationFailures(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing role", `{"email":"p@example.com","password":"secret1"}`, "role is required"},
		{"unknown role", `{"email":"p@example.com","password":"secret1","role":"ADMIN"}`, "role must be one of: PRODUCER BUYER"},
		{"short password", `{"email":"p@example.com","password":"abc","role":"BUYER"}`, "password must be at least 6 characters"},
		{"bad email", `{"email":"nope","password":"secret1","role":"BUYER"}`, "email must be a valid email address"},
		{"not json", `{`, "invalid request body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := newTestServer()
			req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			server.handleRegister(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if msg := decodeError(t, rec); msg != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, msg)
			}
		})
	}
}

func TestHandleLogin_Success(t *testing.T) {
	server := newTestServer()
	server.authService = &stubAuthService{login: auth.LoginResult{
		Token:     "tok",
		ExpiresIn: 2 * time.Hour,
		User:      auth.User{ID: "u1", Email: "b@example.com", Role: auth.RoleBuyer},
	}}

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"b@example.com","password":"secret1"}`))
	rec := httptest.NewRecorder()

	server.handleLogin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AccessToken != "tok" || resp.TokenType != "bearer" || resp.ExpiresIn != 7200 || resp.User.ID != "u1" {
		t.Fatalf("unexpected token response %+v", resp)
	}
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	server := newTestServer()
	server.authService = &stubAuthService{loginErr: auth.ErrInvalidCredentials}

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"b@example.com","password":"wrong"}`))
	rec := httptest.NewRecorder()

	server.handleLogin(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "invalid credentials" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestHandleCreateOffer_RoleChecks(t *testing.T) {
	body := `{"product_name":"Pellet","product_category":"Fuel","quantity":10,"unit_of_measure":"kg","unit_price":1.2,"currency":"PLN","location":"Kraków"}`

	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/offers", strings.NewReader(body))
	rec := httptest.NewRecorder()
	server.handleCreateOffer(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", rec.Code)
	}

	req = asUser(httptest.NewRequest(http.MethodPost, "/offers", strings.NewReader(body)), "buyer-1", auth.RoleBuyer)
	rec = httptest.NewRecorder()
	server.handleCreateOffer(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("buyer: expected 403, got %d", rec.Code)
	}
}

func TestHandleCreateOffer_PassesParams(t *testing.T) {
	server := newTestServer()
	stub := &stubOfferService{offer: offer.Offer{ID: "o1", ProducerID: "producer-1", Active: true}}
	server.offerService = stub

	body := `{"product_name":"Pellet","product_category":"Fuel","quantity":0,"unit_of_measure":"kg","unit_price":0,"currency":"PLN","location":"Kraków","active":false}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/offers", strings.NewReader(body)), "producer-1", auth.RoleProducer)
	rec := httptest.NewRecorder()

	server.handleCreateOffer(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if stub.gotProducer != "producer-1" {
		t.Fatalf("offer created for %q", stub.gotProducer)
	}
	if stub.gotCreate.Quantity != 0 || stub.gotCreate.Active == nil || *stub.gotCreate.Active {
		t.Fatalf("unexpected create params %+v", stub.gotCreate)
	}
}

func TestHandleCreateOffer_MissingFields(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"product_category":"Fuel","quantity":1,"unit_of_measure":"kg","unit_price":1,"currency":"PLN","location":"X"}`, "product_name is required"},
		{`{"product_name":"P","product_category":"Fuel","unit_of_measure":"kg","unit_price":1,"currency":"PLN","location":"X"}`, "quantity is required"},
		{`{"product_name":"P","product_category":"Fuel","quantity":1,"unit_of_measure":"kg","unit_price":-1,"currency":"PLN","location":"X"}`, "unit_price must be >= 0"},
	}
	for _, tc := range cases {
		server := newTestServer()
		req := asUser(httptest.NewRequest(http.MethodPost, "/offers", strings.NewReader(tc.body)), "producer-1", auth.RoleProducer)
		rec := httptest.NewRecorder()

		server.handleCreateOffer(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", tc.body, rec.Code)
		}
		if msg := decodeError(t, rec); msg != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, msg)
		}
	}
}

func TestHandleListOffers_Filters(t *testing.T) {
	server := newTestServer()
	stub := &stubOfferService{offers: []offer.Offer{{ID: "o1"}, {ID: "o2"}}}
	server.offerService = stub

	req := httptest.NewRequest(http.MethodGet, "/offers?q=+pellet+&category=Fuel&min_price=1.5&max_price=3&location=Kraków", nil)
	rec := httptest.NewRecorder()

	server.handleListOffers(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	f := stub.gotFilters
	if f.Query != "pellet" || f.Category != "Fuel" || f.Location != "Kraków" {
		t.Fatalf("unexpected text filters %+v", f)
	}
	if f.MinPrice == nil || *f.MinPrice != 1.5 || f.MaxPrice == nil || *f.MaxPrice != 3 {
		t.Fatalf("unexpected price bounds %+v", f)
	}
	if f.Active != nil {
		t.Fatal("active must be left to the default when absent")
	}

	var resp []offerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 offers, got %d", len(resp))
	}
}

func TestHandleListOffers_BadQuery(t *testing.T) {
	for _, query := range []string{"min_price=abc", "max_price=", "active=maybe"} {
		server := newTestServer()
		req := httptest.NewRequest(http.MethodGet, "/offers?"+query, nil)
		rec := httptest.NewRecorder()

		server.handleListOffers(rec, req)

		want := http.StatusBadRequest
		if query == "max_price=" {
			want = http.StatusOK
		}
		if rec.Code != want {
			t.Fatalf("%s: expected %d, got %d", query, want, rec.Code)
		}
	}
}

func TestHandleListOffers_EmptyListIsArray(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/offers?active=false", nil)
	rec := httptest.NewRecorder()

	server.handleListOffers(rec, req)

	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty JSON array, got %s", rec.Body.String())
	}
	if got := server.offerService.(*stubOfferService).gotFilters.Active; got == nil || *got {
		t.Fatalf("expected active=false filter, got %v", got)
	}
}

func TestHandleGetOffer_NotFound(t *testing.T) {
	server := newTestServer()
	server.offerService = &stubOfferService{err: offer.ErrNotFound}

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/offers/missing", nil), map[string]string{"id": "missing"})
	rec := httptest.NewRecorder()

	server.handleGetOffer(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "offer not found" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestHandleUpdateOffer(t *testing.T) {
	server := newTestServer()
	stub := &stubOfferService{err: auth.ErrForbidden}
	server.offerService = stub

	req := httptest.NewRequest(http.MethodPatch, "/offers/o1", strings.NewReader(`{"unit_price":2.5,"active":false}`))
	req = asUser(mux.SetURLVars(req, map[string]string{"id": "o1"}), "producer-2", auth.RoleProducer)
	rec := httptest.NewRecorder()

	server.handleUpdateOffer(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if stub.gotCaller.ID != "producer-2" || stub.gotCaller.Role != auth.RoleProducer {
		t.Fatalf("caller not forwarded: %+v", stub.gotCaller)
	}
	p := stub.gotPatch
	if p.UnitPrice == nil || *p.UnitPrice != 2.5 || p.Active == nil || *p.Active || p.ProductName != nil {
		t.Fatalf("unexpected patch %+v", p)
	}

	req = httptest.NewRequest(http.MethodPatch, "/offers/o1", strings.NewReader(`{"product_name":""}`))
	req = asUser(mux.SetURLVars(req, map[string]string{"id": "o1"}), "producer-2", auth.RoleProducer)
	rec = httptest.NewRecorder()
	server.handleUpdateOffer(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty product_name, got %d", rec.Code)
	}
}

func TestHandleMyOffers_ProducerOnly(t *testing.T) {
	server := newTestServer()
	req := asUser(httptest.NewRequest(http.MethodGet, "/producer/my-offers", nil), "buyer-1", auth.RoleBuyer)
	rec := httptest.NewRecorder()

	server.handleMyOffers(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestHandlePlaceOrder(t *testing.T) {
	now := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	server := newTestServer()
	stub := &stubOrderService{order: order.Order{
		ID: "ord-1", BuyerID: "buyer-1", OfferID: "o1", Quantity: 5, UnitPriceSnapshot: 9.5, Status: order.StatusPlaced, CreatedAt: now,
	}}
	server.orderService = stub

	req := asUser(httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"offer_id":"o1","quantity":5}`)), "buyer-1", auth.RoleBuyer)
	rec := httptest.NewRecorder()

	server.handlePlaceOrder(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp orderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.UnitPriceSnapshot != 9.5 || resp.Status != order.StatusPlaced || stub.gotQuantity != 5 {
		t.Fatalf("unexpected order %+v", resp)
	}

	stub.err = order.ErrQuantityTooLarge
	req = asUser(httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"offer_id":"o1","quantity":500}`)), "buyer-1", auth.RoleBuyer)
	rec = httptest.NewRecorder()
	server.handlePlaceOrder(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized order, got %d", rec.Code)
	}

	req = asUser(httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"offer_id":"o1","quantity":1}`)), "producer-1", auth.RoleProducer)
	rec = httptest.NewRecorder()
	server.handlePlaceOrder(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for producer, got %d", rec.Code)
	}
}

func TestHandleStartNegotiation_AlreadyOpenIsConflict(t *testing.T) {
	server := newTestServer()
	server.negotiationService = &stubNegotiationService{err: negotiation.ErrAlreadyOpen}

	req := asUser(httptest.NewRequest(http.MethodPost, "/negotiations", strings.NewReader(`{"offer_id":"o1","proposed_price":8}`)), "buyer-1", auth.RoleBuyer)
	rec := httptest.NewRecorder()

	server.handleStartNegotiation(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestHandleStartNegotiation_ForwardsMessage(t *testing.T) {
	server := newTestServer()
	note := "can you do 8?"
	stub := &stubNegotiationService{negotiation: negotiation.Negotiation{
		ID: "n1", Status: negotiation.StatusOpen,
		Messages: []negotiation.Message{{ID: "m1", Seq: 1, Note: &note}},
	}}
	server.negotiationService = stub

	req := asUser(httptest.NewRequest(http.MethodPost, "/negotiations", strings.NewReader(`{"offer_id":"o1","proposed_price":8,"message":"can you do 8?"}`)), "buyer-1", auth.RoleBuyer)
	rec := httptest.NewRecorder()

	server.handleStartNegotiation(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.gotStart.Note == nil || *stub.gotStart.Note != note {
		t.Fatalf("message not forwarded: %+v", stub.gotStart)
	}
	var resp negotiationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Messages) != 1 || resp.Messages[0].Note == nil || *resp.Messages[0].Note != note {
		t.Fatalf("unexpected messages %+v", resp.Messages)
	}
	if !strings.Contains(rec.Body.String(), `"message":"can you do 8?"`) {
		t.Fatalf("expected message key in body, got %s", rec.Body.String())
	}
}

func TestHandlePostMessage_ForwardsMessage(t *testing.T) {
	server := newTestServer()
	stub := &stubNegotiationService{negotiation: negotiation.Negotiation{ID: "n1", Status: negotiation.StatusOpen}}
	server.negotiationService = stub

	req := httptest.NewRequest(http.MethodPost, "/negotiations/n1/messages", strings.NewReader(`{"proposed_price":9,"message":"final offer"}`))
	req = asUser(mux.SetURLVars(req, map[string]string{"id": "n1"}), "producer-1", auth.RoleProducer)
	rec := httptest.NewRecorder()

	server.handlePostMessage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.gotParams.Note == nil || *stub.gotParams.Note != "final offer" {
		t.Fatalf("message not forwarded: %+v", stub.gotParams)
	}
}

func TestHandlePostMessage(t *testing.T) {
	price := 9.0
	accepted := negotiation.StatusAccepted
	server := newTestServer()
	stub := &stubNegotiationService{negotiation: negotiation.Negotiation{
		ID: "n1", Status: negotiation.StatusAccepted, AgreedPrice: &price,
		Messages: []negotiation.Message{
			{ID: "m1", Seq: 1, ProposedPrice: &price},
			{ID: "m2", Seq: 2, ProposedPrice: &price, StatusUpdate: &accepted},
		},
	}}
	server.negotiationService = stub

	req := httptest.NewRequest(http.MethodPost, "/negotiations/n1/messages", strings.NewReader(`{"proposed_price":9,"status_update":"ACCEPTED"}`))
	req = asUser(mux.SetURLVars(req, map[string]string{"id": "n1"}), "producer-1", auth.RoleProducer)
	rec := httptest.NewRecorder()

	server.handlePostMessage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.gotCaller != "producer-1" || stub.gotParams.StatusUpdate == nil || *stub.gotParams.StatusUpdate != negotiation.StatusAccepted {
		t.Fatalf("unexpected forwarded params %+v", stub.gotParams)
	}
	var resp negotiationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AgreedPrice == nil || *resp.AgreedPrice != 9 || len(resp.Messages) != 2 || resp.Messages[1].StatusUpdate == nil {
		t.Fatalf("unexpected negotiation payload %+v", resp)
	}

	stub.err = negotiation.ErrClosed
	req = httptest.NewRequest(http.MethodPost, "/negotiations/n1/messages", strings.NewReader(`{"proposed_price":7}`))
	req = asUser(mux.SetURLVars(req, map[string]string{"id": "n1"}), "buyer-1", auth.RoleBuyer)
	rec = httptest.NewRecorder()
	server.handlePostMessage(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on closed thread, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "negotiation is closed" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestHandleGetNegotiation_NonParticipant(t *testing.T) {
	server := newTestServer()
	server.negotiationService = &stubNegotiationService{err: negotiation.ErrNotParticipant}

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/negotiations/n1", nil), map[string]string{"id": "n1"})
	req = asUser(req, "stranger", auth.RoleBuyer)
	rec := httptest.NewRecorder()

	server.handleGetNegotiation(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestHandleStatsOverview(t *testing.T) {
	server := newTestServer()
	server.statsService = &stubStatsService{overview: stats.Overview{ActiveOffers: 3, Producers: 1, Buyers: 2}}

	rec := httptest.NewRecorder()
	server.handleStatsOverview(rec, httptest.NewRequest(http.MethodGet, "/stats/overview", nil))

	var resp statsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp != (statsResponse{ActiveOffers: 3, Producers: 1, Buyers: 2}) {
		t.Fatalf("unexpected stats %+v", resp)
	}
}

func TestHandleStatsOverview_UnexpectedError(t *testing.T) {
	server := newTestServer()
	server.statsService = &stubStatsService{err: errors.New("connection reset")}

	rec := httptest.NewRecorder()
	server.handleStatsOverview(rec, httptest.NewRequest(http.MethodGet, "/stats/overview", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "internal server error" {
		t.Fatalf("internal details leaked: %q", msg)
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"Bearer":       "",
		"":             "",
	}
	for header, want := range cases {
		got, ok := bearerToken(header)
		if got != want || ok != (want != "") {
			t.Fatalf("%q: got (%q, %v)", header, got, ok)
		}
	}
}

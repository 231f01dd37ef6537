package main

import (
	"net/http"

	"github.com/gorilla/mux"

	"tradedesk/auth"
	"tradedesk/negotiation"
)

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireRole(w, r, auth.RoleBuyer)
	if !ok {
		return
	}
	var req placeOrderRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	placed, err := s.orderService.Place(r.Context(), user.ID, req.OfferID, req.Quantity)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, toOrderResponse(placed))
}

func (s *Server) handleMyOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireRole(w, r, auth.RoleBuyer)
	if !ok {
		return
	}
	list, err := s.orderService.ListByBuyer(r.Context(), user.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out := make([]orderResponse, 0, len(list))
	for _, o := range list {
		out = append(out, toOrderResponse(o))
	}
	respondWithJSON(w, http.StatusOK, out)
}

func (s *Server) handleStartNegotiation(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireRole(w, r, auth.RoleBuyer)
	if !ok {
		return
	}
	var req startNegotiationRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	n, err := s.negotiationService.Start(r.Context(), user.ID, negotiation.StartParams{
		OfferID:       req.OfferID,
		ProposedPrice: req.ProposedPrice,
		Note:          req.Note,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, toNegotiationResponse(n))
}

func (s *Server) handleGetNegotiation(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	n, err := s.negotiationService.Get(r.Context(), mux.Vars(r)["id"], user.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, toNegotiationResponse(n))
}

func (s *Server) handleNegotiationForOffer(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireRole(w, r, auth.RoleBuyer)
	if !ok {
		return
	}
	n, err := s.negotiationService.GetForOffer(r.Context(), user.ID, mux.Vars(r)["offer_id"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, toNegotiationResponse(n))
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req postMessageRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	n, err := s.negotiationService.PostMessage(r.Context(), mux.Vars(r)["id"], user.ID, req.params())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, toNegotiationResponse(n))
}

func (s *Server) handleStatsOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.statsService.Overview(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, toStatsResponse(overview))
}

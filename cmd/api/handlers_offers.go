package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"tradedesk/auth"
	"tradedesk/offer"
)

func (s *Server) handleCreateOffer(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireRole(w, r, auth.RoleProducer)
	if !ok {
		return
	}
	var req createOfferRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	created, err := s.offerService.Create(r.Context(), user.ID, req.params())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, toOfferResponse(created))
}

func (s *Server) handleListOffers(w http.ResponseWriter, r *http.Request) {
	filters, msg := parseOfferFilters(r)
	if msg != "" {
		respondWithError(w, http.StatusBadRequest, msg)
		return
	}

	list, err := s.offerService.List(r.Context(), filters)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, toOfferResponses(list))
}

// parseOfferFilters reads the catalog query string. A non-empty message means
// the request is malformed.
func parseOfferFilters(r *http.Request) (offer.Filters, string) {
	q := r.URL.Query()
	filters := offer.Filters{
		Query:    strings.TrimSpace(q.Get("q")),
		Category: q.Get("category"),
		Location: q.Get("location"),
	}

	bounds := []struct {
		name string
		dst  **float64
	}{
		{"min_price", &filters.MinPrice},
		{"max_price", &filters.MaxPrice},
	}
	for _, b := range bounds {
		raw := q.Get(b.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return offer.Filters{}, b.name + " must be a number"
		}
		*b.dst = &v
	}

	if raw := q.Get("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return offer.Filters{}, "active must be a boolean"
		}
		filters.Active = &v
	}
	return filters, ""
}

func (s *Server) handleGetOffer(w http.ResponseWriter, r *http.Request) {
	o, err := s.offerService.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, toOfferResponse(o))
}

func (s *Server) handleUpdateOffer(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req updateOfferRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := s.offerService.Update(r.Context(), mux.Vars(r)["id"], user, req.patch())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, toOfferResponse(updated))
}

func (s *Server) handleMyOffers(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireRole(w, r, auth.RoleProducer)
	if !ok {
		return
	}
	list, err := s.offerService.ListByProducer(r.Context(), user.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, toOfferResponses(list))
}

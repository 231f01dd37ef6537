package main

import (
	"net/http"

	"tradedesk/apperr"
	"tradedesk/auth"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := s.authService.Register(r.Context(), req)
	if err != nil {
		// Registration reports a taken email as a plain 400.
		if apperr.KindOf(err) == apperr.KindConflict {
			s.writeServiceErrorWithStatus(w, r, err, http.StatusBadRequest)
			return
		}
		s.writeServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := s.authService.Login(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, tokenResponse{
		AccessToken: result.Token,
		TokenType:   "bearer",
		ExpiresIn:   int64(result.ExpiresIn.Seconds()),
		User:        toUserResponse(result.User),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	caller, ok := currentUser(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := s.authService.GetUserByID(r.Context(), caller.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, toUserResponse(user))
}

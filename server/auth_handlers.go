package server

import (
	"net/http"

	"github.com/jrsteele09/subhub-server/auth"
	errs "github.com/jrsteele09/subhub-server/internal/errors"
	"github.com/jrsteele09/subhub-server/users"
	"github.com/rs/zerolog/log"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserEmail   string `json:"user_email"`
	Username    string `json:"username"`
	Expires     int64  `json:"expires"`
}

type meResponse struct {
	Email             string `json:"email"`
	Username          string `json:"username"`
	SubscriptionCount int    `json:"subscription_count"`
}

func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := s.validator.Validate(req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		if err := users.ValidatePasswordStrength(req.Password); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		err := s.auth.Register(req.Email, req.Username, req.Password)
		switch {
		case err == nil:
			writeJSON(w, http.StatusCreated, messageResponse{Message: "Registration successful"})
		case errs.Is(err, auth.ErrAlreadyExists):
			writeError(w, http.StatusBadRequest, "Email already registered")
		case errs.Is(err, errs.ErrInvalidRequest):
			writeError(w, http.StatusUnprocessableEntity, "Username cannot be empty")
		default:
			log.Err(err).Str("email", req.Email).Msg("Registration failed")
			writeError(w, http.StatusInternalServerError, "Registration failed")
		}
	}
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := s.validator.Validate(req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		result, err := s.auth.Login(req.Email, req.Password)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, loginResponse{
				AccessToken: result.Token,
				TokenType:   "bearer",
				UserEmail:   result.Email,
				Username:    result.Username,
				Expires:     result.ExpiresAt.Unix(),
			})
		case errs.Is(err, auth.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		case errs.Is(err, auth.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Incorrect password")
		default:
			log.Err(err).Str("email", req.Email).Msg("Login failed")
			writeError(w, http.StatusInternalServerError, "Login failed")
		}
	}
}

// LogoutHandler revokes the bearer token if there is one. It never fails.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, _ := bearerToken(r)
		if s.auth.Logout(token) {
			writeJSON(w, http.StatusOK, messageResponse{Message: "Logout successful"})
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "Already logged out"})
	}
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(r.Context())
		if !ok {
			writeUnauthenticated(w)
			return
		}
		writeJSON(w, http.StatusOK, meResponse{
			Email:             user.Email,
			Username:          user.Username,
			SubscriptionCount: len(user.Subscriptions),
		})
	}
}

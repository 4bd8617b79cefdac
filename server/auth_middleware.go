package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/subhub-server/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUser stores the authenticated users.User
	ContextKeyUser ContextKey = "user"
	// ContextKeyRequestID stores the request id set by LoggingMiddleware
	ContextKeyRequestID ContextKey = "request_id"
)

const unauthenticatedDetail = "Invalid or expired token"

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. ok is false for a missing or malformed header.
func bearerToken(r *http.Request) (token string, ok bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token = strings.TrimSpace(parts[1])
	return token, token != ""
}

// RequireAuth resolves the bearer token to an account and stores it in the
// request context. Every failure, including a missing or malformed header,
// gets the same 401 response.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeUnauthenticated(w)
				return
			}

			user, err := s.auth.Resolve(token)
			if err != nil {
				writeUnauthenticated(w)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next(w, r.WithContext(ctx))
		}
	}
}

// CurrentUser returns the account stored by RequireAuth.
func CurrentUser(ctx context.Context) (users.User, bool) {
	user, ok := ctx.Value(ContextKeyUser).(users.User)
	return user, ok
}

func writeUnauthenticated(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, unauthenticatedDetail)
}

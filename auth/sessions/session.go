package sessions

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

const (
	// MinTokenLength is the minimum number of random bytes behind a token.
	MinTokenLength = 16

	tokenLogPrefixLength = 6
)

// Session binds an opaque bearer token to an account email until ExpiresAt.
type Session struct {
	Token     string    // URL-safe random token handed to the client
	Email     string    // Owner identity
	CreatedAt time.Time // When the session was issued
	ExpiresAt time.Time // Absolute expiry instant
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// NewToken returns length random bytes encoded as unpadded base64url.
func NewToken(length int) (string, error) {
	if length < MinTokenLength {
		length = MinTokenLength
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// TokenPrefix returns a loggable prefix of token. Full tokens must never be
// logged.
func TokenPrefix(token string) string {
	if len(token) <= tokenLogPrefixLength {
		return "***"
	}
	return token[:tokenLogPrefixLength] + "..."
}

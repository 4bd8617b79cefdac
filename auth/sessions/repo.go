package sessions

import "time"

// Repo defines the session table. It holds at most one live session per
// email; every method is atomic.
type Repo interface {
	// Upsert installs session, first removing any session already owned by
	// the same email. evicted reports whether one was removed.
	Upsert(session Session) (evicted bool, err error)

	// Lookup returns the session for token. An expired session is removed and
	// reported as ErrTokenExpired; an unknown token as ErrInvalidToken.
	Lookup(token string, now time.Time) (Session, error)

	// Revoke removes the session for token and reports whether one existed.
	Revoke(token string) bool

	// Count returns the number of stored sessions, expired ones included.
	Count() int
}

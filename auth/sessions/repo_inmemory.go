package sessions

import (
	"errors"
	"sync"
	"time"

	errs "github.com/jrsteele09/subhub-server/internal/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is a process-local session table. Sessions are never
// persisted and do not survive a restart.
type InMemoryRepo struct {
	sessions map[string]Session // token -> session
	byEmail  map[string]string  // email -> token of its only session
	lock     sync.Mutex
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		sessions: make(map[string]Session),
		byEmail:  make(map[string]string),
	}
}

func (sr *InMemoryRepo) Upsert(session Session) (bool, error) {
	if session.Token == "" {
		return false, errors.New("token is required")
	}
	if session.Email == "" {
		return false, errors.New("email is required")
	}

	sr.lock.Lock()
	defer sr.lock.Unlock()

	if _, taken := sr.sessions[session.Token]; taken {
		return false, errors.New("token collision")
	}

	evicted := false
	if previous, ok := sr.byEmail[session.Email]; ok {
		delete(sr.sessions, previous)
		evicted = true
	}

	sr.sessions[session.Token] = session
	sr.byEmail[session.Email] = session.Token
	return evicted, nil
}

func (sr *InMemoryRepo) Lookup(token string, now time.Time) (Session, error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	session, ok := sr.sessions[token]
	if !ok {
		return Session{}, errs.ErrInvalidToken
	}
	if session.Expired(now) {
		sr.removeLocked(session)
		return Session{}, errs.ErrTokenExpired
	}
	return session, nil
}

func (sr *InMemoryRepo) Revoke(token string) bool {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	session, ok := sr.sessions[token]
	if !ok {
		return false
	}
	sr.removeLocked(session)
	return true
}

func (sr *InMemoryRepo) Count() int {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	return len(sr.sessions)
}

func (sr *InMemoryRepo) removeLocked(session Session) {
	delete(sr.sessions, session.Token)
	if sr.byEmail[session.Email] == session.Token {
		delete(sr.byEmail, session.Email)
	}
}

package sessions

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	errs "github.com/jrsteele09/subhub-server/internal/errors"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newSession(t *testing.T, email string) Session {
	t.Helper()
	token, err := NewToken(32)
	require.NoError(t, err)
	return Session{Token: token, Email: email, CreatedAt: baseTime, ExpiresAt: baseTime.Add(time.Hour)}
}

// ownedBy counts sessions owned by email by scanning the token map.
func (sr *InMemoryRepo) ownedBy(email string) int {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	n := 0
	for _, s := range sr.sessions {
		if s.Email == email {
			n++
		}
	}
	return n
}

func TestNewToken(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		token, err := NewToken(8)
		require.NoError(t, err)
		require.Len(t, token, 22, "short lengths are raised to 16 bytes")
		require.NotContains(t, token, "+")
		require.NotContains(t, token, "/")
		require.NotContains(t, token, "=")
		seen[token] = struct{}{}
	}
	require.Len(t, seen, 100)
}

func TestTokenPrefix(t *testing.T) {
	require.Equal(t, "abcdef...", TokenPrefix("abcdefghijklmnop"))
	require.Equal(t, "***", TokenPrefix("abc"))
}

func TestInMemoryRepo_UpsertEvictsPrevious(t *testing.T) {
	repo := NewInMemoryRepo()
	first := newSession(t, "a@x.com")
	second := newSession(t, "a@x.com")

	evicted, err := repo.Upsert(first)
	require.NoError(t, err)
	require.False(t, evicted)

	evicted, err = repo.Upsert(second)
	require.NoError(t, err)
	require.True(t, evicted)

	_, err = repo.Lookup(first.Token, baseTime)
	require.True(t, errors.Is(err, errs.ErrInvalidToken))

	got, err := repo.Lookup(second.Token, baseTime)
	require.NoError(t, err)
	require.Equal(t, "a@x.com", got.Email)
	require.Equal(t, 1, repo.Count())
}

func TestInMemoryRepo_UpsertRejectsBadInput(t *testing.T) {
	repo := NewInMemoryRepo()
	_, err := repo.Upsert(Session{Email: "a@x.com"})
	require.Error(t, err)
	_, err = repo.Upsert(Session{Token: "tok"})
	require.Error(t, err)

	s := newSession(t, "a@x.com")
	_, err = repo.Upsert(s)
	require.NoError(t, err)
	clash := s
	clash.Email = "b@x.com"
	_, err = repo.Upsert(clash)
	require.Error(t, err)

	got, err := repo.Lookup(s.Token, baseTime)
	require.NoError(t, err)
	require.Equal(t, "a@x.com", got.Email)
}

func TestInMemoryRepo_LookupExpiry(t *testing.T) {
	repo := NewInMemoryRepo()
	s := newSession(t, "a@x.com")
	_, err := repo.Upsert(s)
	require.NoError(t, err)

	_, err = repo.Lookup(s.Token, s.ExpiresAt)
	require.NoError(t, err, "a session is valid up to and including its expiry instant")

	_, err = repo.Lookup(s.Token, s.ExpiresAt.Add(time.Nanosecond))
	require.True(t, errors.Is(err, errs.ErrTokenExpired))
	require.True(t, errors.Is(err, errs.ErrUnauthenticated))

	_, err = repo.Lookup(s.Token, s.ExpiresAt.Add(time.Nanosecond))
	require.True(t, errors.Is(err, errs.ErrInvalidToken))
	require.Zero(t, repo.Count())
	require.Zero(t, repo.ownedBy("a@x.com"))

	// The email index was cleared too, so a new login is not an eviction.
	evicted, err := repo.Upsert(newSession(t, "a@x.com"))
	require.NoError(t, err)
	require.False(t, evicted)
}

func TestInMemoryRepo_Revoke(t *testing.T) {
	repo := NewInMemoryRepo()
	s := newSession(t, "a@x.com")
	_, err := repo.Upsert(s)
	require.NoError(t, err)

	require.True(t, repo.Revoke(s.Token))
	require.False(t, repo.Revoke(s.Token))
	require.False(t, repo.Revoke("never-issued"))

	_, err = repo.Lookup(s.Token, baseTime)
	require.True(t, errors.Is(err, errs.ErrInvalidToken))
}

func TestInMemoryRepo_RevokeOfEvictedTokenKeepsNewSession(t *testing.T) {
	repo := NewInMemoryRepo()
	first := newSession(t, "a@x.com")
	second := newSession(t, "a@x.com")
	_, err := repo.Upsert(first)
	require.NoError(t, err)
	_, err = repo.Upsert(second)
	require.NoError(t, err)

	require.False(t, repo.Revoke(first.Token))
	_, err = repo.Lookup(second.Token, baseTime)
	require.NoError(t, err)
}

func TestInMemoryRepo_SingleSessionUnderConcurrency(t *testing.T) {
	repo := NewInMemoryRepo()
	emails := []string{"a@x.com", "b@x.com", "c@x.com"}

	var wg sync.WaitGroup
	for i := 0; i < 60; i++ {
		email := emails[i%len(emails)]
		token := fmt.Sprintf("token-%02d-padding-padding", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.Upsert(Session{Token: token, Email: email, ExpiresAt: baseTime.Add(time.Hour)})
			_, _ = repo.Lookup(token, baseTime)
		}()
	}
	wg.Wait()

	for _, email := range emails {
		require.Equal(t, 1, repo.ownedBy(email), email)
	}
	require.Equal(t, len(emails), repo.Count())
}

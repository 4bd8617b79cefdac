package users

import (
	errs "github.com/jrsteele09/subhub-server/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Persister flushes the account set to durable storage. force bypasses any
// write throttling.
type Persister interface {
	Save(force bool) error
}

type noopPersister struct{}

func (noopPersister) Save(bool) error { return nil }

// Service is the credential store: registration, lookup and in-place updates
// of accounts, each followed by a persistence write.
type Service struct {
	repo      UserRepo
	hasher    PasswordHasher
	persister Persister
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithPersister sets the persister notified after every change.
func WithPersister(p Persister) ServiceOption {
	return func(s *Service) {
		s.persister = p
	}
}

func NewService(repo UserRepo, hasher PasswordHasher, options ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[NewService] user repo is required")
	}
	if hasher == nil {
		return nil, errors.New("[NewService] password hasher is required")
	}

	s := &Service{
		repo:      repo,
		hasher:    hasher,
		persister: noopPersister{},
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Register creates an account with an empty subscription list. The write is
// forced past the persistence throttle so new accounts are never held back.
func (s *Service) Register(email, username, password string) error {
	username, err := ValidateUsername(username)
	if err != nil {
		return errors.Wrap(errs.ErrInvalidRequest, err.Error())
	}
	if _, exists := s.repo.Get(email); exists {
		return errs.ErrAlreadyExists
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return errors.Wrap(err, "[Register] failed to hash password")
	}

	// Insert re-checks under the repo lock, so a concurrent registration of
	// the same email still fails here.
	if err := s.repo.Insert(User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
	}); err != nil {
		return err
	}

	log.Info().Str("email", email).Str("username", username).Msg("User registered")
	s.persist(true)
	return nil
}

// Lookup returns a copy of the account for email.
func (s *Service) Lookup(email string) (User, bool) {
	return s.repo.Get(email)
}

// Mutate applies fn to the account for email and triggers a throttled
// persistence write when fn succeeds.
func (s *Service) Mutate(email string, fn func(*User) error) error {
	if err := s.repo.Mutate(email, fn); err != nil {
		return err
	}
	s.persist(false)
	return nil
}

// Hasher returns the password hasher accounts are registered with.
func (s *Service) Hasher() PasswordHasher {
	return s.hasher
}

// Save failures are logged by the persister and never fail the request that
// caused them.
func (s *Service) persist(force bool) {
	if err := s.persister.Save(force); err != nil {
		log.Warn().Err(err).Bool("force", force).Msg("Account change not persisted")
	}
}

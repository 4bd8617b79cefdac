package auth

import (
	"time"

	"github.com/jrsteele09/subhub-server/auth/sessions"
	"github.com/jrsteele09/subhub-server/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	defaultSessionTTL  = time.Hour
	defaultTokenLength = 32
)

// Repos holds the stores the AuthenticationService works against
type Repos struct {
	Users    *users.Service // Credential store
	Sessions sessions.Repo  // Session table
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Email     string
	Username  string
}

// AuthenticationService registers accounts, issues and revokes session
// tokens, and resolves bearer tokens to accounts.
type AuthenticationService struct {
	repos       Repos
	sessionTTL  time.Duration    // Lifetime of a new session
	tokenLength int              // Random bytes per token
	nowTime     func() time.Time // nowTime function (injectable for testing)
}

// AuthenticationServiceOption defines a function type to modify the AuthenticationService instance.
type AuthenticationServiceOption func(*AuthenticationService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) AuthenticationServiceOption {
	return func(as *AuthenticationService) {
		as.nowTime = nowFunc
	}
}

// WithSessionTTL sets how long a new session stays valid
func WithSessionTTL(ttl time.Duration) AuthenticationServiceOption {
	return func(as *AuthenticationService) {
		if ttl > 0 {
			as.sessionTTL = ttl
		}
	}
}

// WithTokenLength sets the number of random bytes in each session token
func WithTokenLength(length int) AuthenticationServiceOption {
	return func(as *AuthenticationService) {
		if length >= sessions.MinTokenLength {
			as.tokenLength = length
		}
	}
}

// NewAuthenticationService initializes a new AuthenticationService with required dependencies.
func NewAuthenticationService(repos Repos, options ...AuthenticationServiceOption) (*AuthenticationService, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewAuthenticationService] Users service is required")
	}
	if repos.Sessions == nil {
		return nil, errors.New("[NewAuthenticationService] Sessions repo is required")
	}

	as := &AuthenticationService{
		repos:       repos,
		sessionTTL:  defaultSessionTTL,
		tokenLength: defaultTokenLength,
		nowTime:     time.Now,
	}
	for _, opt := range options {
		opt(as)
	}
	return as, nil
}

// Register creates a new account.
func (as *AuthenticationService) Register(email, username, password string) error {
	if err := as.repos.Users.Register(email, username, password); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			log.Warn().Str("email", email).Msg("Registration failed - email already exists")
		}
		return err
	}
	return nil
}

// Login checks the credentials and issues a new session, replacing any
// session the account already had.
func (as *AuthenticationService) Login(email, password string) (LoginResult, error) {
	user, ok := as.repos.Users.Lookup(email)
	if !ok {
		log.Warn().Str("email", email).Msg("Login failed - user not found")
		return LoginResult{}, ErrUserNotFound
	}

	hasher := as.repos.Users.Hasher()
	if user.PasswordHash == "" || !hasher.Verify(password, user.PasswordHash) {
		log.Warn().Str("email", email).Msg("Login failed - incorrect password")
		return LoginResult{}, ErrInvalidCredentials
	}

	if hasher.NeedsRehash(user.PasswordHash) {
		as.rehash(email, password)
	}

	token, err := sessions.NewToken(as.tokenLength)
	if err != nil {
		return LoginResult{}, errors.Wrap(err, "[AuthenticationService.Login] NewToken")
	}

	now := as.nowTime()
	session := sessions.Session{
		Token:     token,
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(as.sessionTTL),
	}
	evicted, err := as.repos.Sessions.Upsert(session)
	if err != nil {
		return LoginResult{}, errors.Wrap(err, "[AuthenticationService.Login] sessionRepo.Upsert")
	}
	if evicted {
		log.Info().Str("email", email).Msg("Invalidated previous session")
	}

	log.Info().
		Str("email", email).
		Str("token", sessions.TokenPrefix(token)).
		Dur("ttl", as.sessionTTL).
		Msg("Login successful")

	return LoginResult{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		Email:     email,
		Username:  user.Username,
	}, nil
}

// Logout revokes token. Revoking an unknown token is a no-op reported as false.
func (as *AuthenticationService) Logout(token string) bool {
	if token == "" {
		return false
	}
	revoked := as.repos.Sessions.Revoke(token)
	log.Info().Str("token", sessions.TokenPrefix(token)).Bool("revoked", revoked).Msg("Logout")
	return revoked
}

// Resolve returns the account owning token. Every failure matches
// ErrUnauthenticated.
func (as *AuthenticationService) Resolve(token string) (users.User, error) {
	if token == "" {
		return users.User{}, ErrInvalidToken
	}

	session, err := as.repos.Sessions.Lookup(token, as.nowTime())
	if err != nil {
		log.Debug().Err(err).Str("token", sessions.TokenPrefix(token)).Msg("Token rejected")
		return users.User{}, err
	}

	user, ok := as.repos.Users.Lookup(session.Email)
	if !ok {
		log.Warn().Str("email", session.Email).Msg("Session references a missing account")
		return users.User{}, ErrAccountNotFound
	}
	return user, nil
}

// rehash upgrades a legacy or outdated hash after a successful verification.
func (as *AuthenticationService) rehash(email, password string) {
	hash, err := as.repos.Users.Hasher().Hash(password)
	if err != nil {
		log.Err(err).Str("email", email).Msg("Password rehash failed")
		return
	}
	if err := as.repos.Users.Mutate(email, func(u *users.User) error {
		u.PasswordHash = hash
		return nil
	}); err != nil {
		log.Err(err).Str("email", email).Msg("Password rehash not stored")
		return
	}
	log.Info().Str("email", email).Msg("Password hash upgraded")
}

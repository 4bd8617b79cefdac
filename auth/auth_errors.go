package auth

import errs "github.com/jrsteele09/subhub-server/internal/errors"

// Errors returned by AuthenticationService. ErrInvalidToken, ErrTokenExpired
// and ErrAccountNotFound all match ErrUnauthenticated with errors.Is.
var (
	ErrAlreadyExists      = errs.ErrAlreadyExists
	ErrUserNotFound       = errs.ErrUserNotFound
	ErrInvalidCredentials = errs.ErrInvalidCredentials
	ErrUnauthenticated    = errs.ErrUnauthenticated
	ErrInvalidToken       = errs.ErrInvalidToken
	ErrTokenExpired       = errs.ErrTokenExpired
	ErrAccountNotFound    = errs.ErrAccountNotFound
)

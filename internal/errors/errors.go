package errors

import (
	"errors"
	"fmt"
)

// Common error types for the SubHub server
var (
	// Registration and login errors
	ErrAlreadyExists      = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated is the class every auth gate failure belongs to.
	ErrUnauthenticated = errors.New("unauthenticated")

	// Auth gate errors, all wrap ErrUnauthenticated
	ErrInvalidToken    = fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	ErrTokenExpired    = fmt.Errorf("%w: token expired", ErrUnauthenticated)
	ErrAccountNotFound = fmt.Errorf("%w: account not found", ErrUnauthenticated)

	// Persistence errors
	ErrIO            = errors.New("persistence i/o error")
	ErrCorruptRecord = errors.New("corrupt record")

	// Subscription errors
	ErrSubscriptionExists   = errors.New("subscription already exists")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrInvalidSubscription  = errors.New("invalid subscription")

	// General errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternal       = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

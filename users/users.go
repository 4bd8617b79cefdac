package users

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jrsteele09/subhub-server/subscriptions"
)

const MinPasswordLength = 8

// User is a registered account. Email is the identity and is compared
// exactly as given.
type User struct {
	Email         string                       `json:"email"`                   // Identity, unique and case-sensitive
	Username      string                       `json:"username"`                // Display name
	PasswordHash  string                       `json:"-"`                       // Argon2id PHC string - never serialize
	Subscriptions []subscriptions.Subscription `json:"subscriptions,omitempty"` // Ordered as added
}

// Clone returns a deep copy of u.
func (u User) Clone() User {
	u.Subscriptions = subscriptions.Clone(u.Subscriptions)
	return u
}

// ValidateUsername returns the trimmed display name or an error when it is blank.
func ValidateUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("username cannot be empty")
	}
	return username, nil
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
// - Contains at least one symbol
func ValidatePasswordStrength(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
		hasSymbol bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSymbol = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}
	if !hasSymbol {
		return fmt.Errorf("password must contain at least one symbol")
	}

	return nil
}

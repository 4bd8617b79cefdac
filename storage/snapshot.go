package storage

import (
	"encoding/json"
	"fmt"
	"strings"

	errs "github.com/jrsteele09/subhub-server/internal/errors"
	"github.com/jrsteele09/subhub-server/subscriptions"
	"github.com/jrsteele09/subhub-server/users"
	"github.com/rs/zerolog/log"
)

// snapshotFile is the on-disk document. Sessions are never written.
type snapshotFile struct {
	Users map[string]json.RawMessage `json:"users"`
	// Passwords holds hashes keyed by email in files written before hashes
	// moved into the user record. It is read but never written.
	Passwords map[string]string `json:"passwords,omitempty"`
}

type persistedUser struct {
	Name          string                  `json:"name"`
	Username      string                  `json:"username,omitempty"` // older files name the field username
	PassHash      string                  `json:"passhash"`
	Subscriptions []persistedSubscription `json:"subscriptions"`
}

// persistedSubscription keeps the date as a string so one bad date can be
// repaired without rejecting the record.
type persistedSubscription struct {
	ServiceName  string  `json:"service_name"`
	MonthlyPrice float64 `json:"monthly_price"`
	Category     string  `json:"category"`
	StartingDate string  `json:"starting_date"`
}

func encodeSnapshot(accounts []users.User) ([]byte, error) {
	doc := snapshotFile{Users: make(map[string]json.RawMessage, len(accounts))}
	for _, u := range accounts {
		record := persistedUser{
			Name:          u.Username,
			PassHash:      u.PasswordHash,
			Subscriptions: make([]persistedSubscription, 0, len(u.Subscriptions)),
		}
		for _, s := range u.Subscriptions {
			record.Subscriptions = append(record.Subscriptions, persistedSubscription{
				ServiceName:  s.ServiceName,
				MonthlyPrice: s.MonthlyPrice,
				Category:     s.Category,
				StartingDate: s.StartingDate.String(),
			})
		}
		raw, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("marshal user %s: %w", u.Email, err)
		}
		doc.Users[u.Email] = raw
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// decodeSnapshot parses a whole document. Records that cannot be rebuilt are
// skipped and reported in skipped; the document itself failing to parse is
// the only error.
func decodeSnapshot(data []byte, today func() subscriptions.Date) (accounts []users.User, skipped int, err error) {
	var doc snapshotFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, 0, fmt.Errorf("parse snapshot: %w", err)
	}

	accounts = make([]users.User, 0, len(doc.Users))
	for email, raw := range doc.Users {
		u, err := decodeUser(email, raw, doc.Passwords[email], today)
		if err != nil {
			log.Warn().Err(err).Str("email", email).Msg("Skipping user record")
			skipped++
			continue
		}
		accounts = append(accounts, u)
	}
	return accounts, skipped, nil
}

// decodeUser rebuilds one account. fallbackHash is used when the record has
// no passhash of its own.
func decodeUser(email string, raw json.RawMessage, fallbackHash string, today func() subscriptions.Date) (users.User, error) {
	if email == "" {
		return users.User{}, errs.Wrapf(errs.ErrCorruptRecord, "empty email")
	}

	var record persistedUser
	if err := json.Unmarshal(raw, &record); err != nil {
		return users.User{}, errs.Wrapf(errs.ErrCorruptRecord, "decode user: %v", err)
	}
	name := strings.TrimSpace(record.Name)
	if name == "" {
		name = strings.TrimSpace(record.Username)
	}
	if name == "" {
		return users.User{}, errs.Wrapf(errs.ErrCorruptRecord, "empty name")
	}
	if record.PassHash == "" {
		record.PassHash = fallbackHash
	}
	if record.PassHash == "" {
		return users.User{}, errs.Wrapf(errs.ErrCorruptRecord, "empty password hash")
	}

	u := users.User{
		Email:        email,
		Username:     name,
		PasswordHash: record.PassHash,
	}
	for _, s := range record.Subscriptions {
		date, err := subscriptions.ParseDate(s.StartingDate)
		if err != nil {
			date = today()
			log.Warn().
				Err(err).
				Str("email", email).
				Str("service", s.ServiceName).
				Str("fallback", date.String()).
				Msg("Invalid subscription date, using today's date")
		}
		u.Subscriptions = append(u.Subscriptions, subscriptions.Subscription{
			ServiceName:  s.ServiceName,
			MonthlyPrice: s.MonthlyPrice,
			Category:     s.Category,
			StartingDate: date,
		})
	}
	return u, nil
}

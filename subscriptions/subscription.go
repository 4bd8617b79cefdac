package subscriptions

import (
	"strings"

	errs "github.com/jrsteele09/subhub-server/internal/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Subscription is a paid service owned by an account.
type Subscription struct {
	ServiceName  string  `json:"service_name"`
	MonthlyPrice float64 `json:"monthly_price"`
	Category     string  `json:"category"`
	StartingDate Date    `json:"starting_date"`
}

// Patch holds the fields of a partial update. Nil fields are left unchanged.
type Patch struct {
	ServiceName  *string  `json:"service_name,omitempty"`
	MonthlyPrice *float64 `json:"monthly_price,omitempty"`
	Category     *string  `json:"category,omitempty"`
	StartingDate *Date    `json:"starting_date,omitempty"`
}

var titleCaser = cases.Title(language.Und)

// NormalizeCategory trims and title-cases a category name.
func NormalizeCategory(category string) string {
	return titleCaser.String(strings.TrimSpace(category))
}

// Normalize validates s and returns it with its category normalized.
func (s Subscription) Normalize() (Subscription, error) {
	s.ServiceName = strings.TrimSpace(s.ServiceName)
	if s.ServiceName == "" {
		return s, errs.Wrapf(errs.ErrInvalidSubscription, "service name cannot be empty")
	}
	if s.MonthlyPrice <= 0 {
		return s, errs.Wrapf(errs.ErrInvalidSubscription, "monthly price must be positive")
	}
	s.Category = NormalizeCategory(s.Category)
	if s.Category == "" {
		return s, errs.Wrapf(errs.ErrInvalidSubscription, "category cannot be empty")
	}
	if s.StartingDate.IsZero() {
		return s, errs.Wrapf(errs.ErrInvalidSubscription, "starting date is required")
	}
	return s, nil
}

// Apply returns s with the non-nil fields of p applied.
func (p Patch) Apply(s Subscription) Subscription {
	if p.ServiceName != nil {
		s.ServiceName = *p.ServiceName
	}
	if p.MonthlyPrice != nil {
		s.MonthlyPrice = *p.MonthlyPrice
	}
	if p.Category != nil {
		s.Category = *p.Category
	}
	if p.StartingDate != nil {
		s.StartingDate = *p.StartingDate
	}
	return s
}

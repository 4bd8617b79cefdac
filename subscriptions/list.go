package subscriptions

import (
	"strings"

	errs "github.com/jrsteele09/subhub-server/internal/errors"
)

// Find returns the index of the subscription named serviceName, compared
// case-insensitively, or -1.
func Find(list []Subscription, serviceName string) int {
	for i, s := range list {
		if strings.EqualFold(s.ServiceName, serviceName) {
			return i
		}
	}
	return -1
}

// Add validates s and appends it. Service names are unique per account
// ignoring case.
func Add(list *[]Subscription, s Subscription) (Subscription, error) {
	s, err := s.Normalize()
	if err != nil {
		return s, err
	}
	if Find(*list, s.ServiceName) >= 0 {
		return s, errs.Wrapf(errs.ErrSubscriptionExists, "%s", s.ServiceName)
	}
	*list = append(*list, s)
	return s, nil
}

// Update applies p to the subscription named serviceName.
func Update(list []Subscription, serviceName string, p Patch) (Subscription, error) {
	idx := Find(list, serviceName)
	if idx < 0 {
		return Subscription{}, errs.Wrapf(errs.ErrSubscriptionNotFound, "%s", serviceName)
	}

	updated, err := p.Apply(list[idx]).Normalize()
	if err != nil {
		return updated, err
	}
	for i, s := range list {
		if i != idx && strings.EqualFold(s.ServiceName, updated.ServiceName) {
			return updated, errs.Wrapf(errs.ErrSubscriptionExists, "%s", updated.ServiceName)
		}
	}
	list[idx] = updated
	return updated, nil
}

// Delete removes the subscription named serviceName and returns it.
func Delete(list *[]Subscription, serviceName string) (Subscription, error) {
	idx := Find(*list, serviceName)
	if idx < 0 {
		return Subscription{}, errs.Wrapf(errs.ErrSubscriptionNotFound, "%s", serviceName)
	}
	removed := (*list)[idx]
	*list = append((*list)[:idx], (*list)[idx+1:]...)
	return removed, nil
}

// Clone returns a copy of list that shares no backing array with it.
func Clone(list []Subscription) []Subscription {
	if list == nil {
		return nil
	}
	out := make([]Subscription, len(list))
	copy(out, list)
	return out
}

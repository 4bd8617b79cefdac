package server

import (
	"net/http"

	errs "github.com/jrsteele09/subhub-server/internal/errors"
	"github.com/jrsteele09/subhub-server/subscriptions"
	"github.com/jrsteele09/subhub-server/users"
	"github.com/rs/zerolog/log"
)

type subscriptionRequest struct {
	ServiceName  string             `json:"service_name" validate:"required,max=100"`
	MonthlyPrice float64            `json:"monthly_price" validate:"gt=0"`
	Category     string             `json:"category" validate:"required,max=50"`
	StartingDate subscriptions.Date `json:"starting_date"`
}

type subscriptionListResponse struct {
	Subscriptions []subscriptions.Subscription `json:"subscriptions"`
	Total         float64                      `json:"total_monthly"`
}

func (s *Server) ListSubscriptionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(r.Context())
		if !ok {
			writeUnauthenticated(w)
			return
		}

		list := user.Subscriptions
		if list == nil {
			list = []subscriptions.Subscription{}
		}
		var total float64
		for _, sub := range list {
			total += sub.MonthlyPrice
		}
		writeJSON(w, http.StatusOK, subscriptionListResponse{Subscriptions: list, Total: total})
	}
}

func (s *Server) AddSubscriptionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(r.Context())
		if !ok {
			writeUnauthenticated(w)
			return
		}

		var req subscriptionRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := s.validator.Validate(req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		if req.StartingDate.IsZero() {
			req.StartingDate = subscriptions.Today()
		}

		var added subscriptions.Subscription
		err := s.users.Mutate(user.Email, func(u *users.User) error {
			var err error
			added, err = subscriptions.Add(&u.Subscriptions, subscriptions.Subscription{
				ServiceName:  req.ServiceName,
				MonthlyPrice: req.MonthlyPrice,
				Category:     req.Category,
				StartingDate: req.StartingDate,
			})
			return err
		})
		if err != nil {
			writeSubscriptionError(w, err)
			return
		}

		log.Info().Str("email", user.Email).Str("service", added.ServiceName).Msg("Subscription added")
		writeJSON(w, http.StatusCreated, messageResponse{Message: "Subscription added", Service: added.ServiceName})
	}
}

func (s *Server) UpdateSubscriptionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(r.Context())
		if !ok {
			writeUnauthenticated(w)
			return
		}
		serviceName := r.PathValue("service_name")

		var patch subscriptions.Patch
		if err := decodeJSON(w, r, &patch); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		var updated subscriptions.Subscription
		err := s.users.Mutate(user.Email, func(u *users.User) error {
			var err error
			updated, err = subscriptions.Update(u.Subscriptions, serviceName, patch)
			return err
		})
		if err != nil {
			writeSubscriptionError(w, err)
			return
		}

		log.Info().Str("email", user.Email).Str("service", updated.ServiceName).Msg("Subscription updated")
		writeJSON(w, http.StatusOK, updated)
	}
}

func (s *Server) DeleteSubscriptionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(r.Context())
		if !ok {
			writeUnauthenticated(w)
			return
		}
		serviceName := r.PathValue("service_name")

		var removed subscriptions.Subscription
		err := s.users.Mutate(user.Email, func(u *users.User) error {
			var err error
			removed, err = subscriptions.Delete(&u.Subscriptions, serviceName)
			return err
		})
		if err != nil {
			writeSubscriptionError(w, err)
			return
		}

		log.Info().Str("email", user.Email).Str("service", removed.ServiceName).Msg("Subscription deleted")
		writeJSON(w, http.StatusOK, messageResponse{Message: "Subscription deleted", Service: removed.ServiceName})
	}
}

func writeSubscriptionError(w http.ResponseWriter, err error) {
	switch {
	case errs.Is(err, errs.ErrSubscriptionExists):
		writeError(w, http.StatusConflict, "Subscription already exists")
	case errs.Is(err, errs.ErrSubscriptionNotFound):
		writeError(w, http.StatusNotFound, "Subscription not found")
	case errs.Is(err, errs.ErrInvalidSubscription):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errs.Is(err, errs.ErrUserNotFound):
		writeUnauthenticated(w)
	default:
		log.Err(err).Msg("Subscription change failed")
		writeError(w, http.StatusInternalServerError, "Subscription change failed")
	}
}

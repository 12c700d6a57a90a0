package controllers

import (
	"net/http"

	"github.com/Dutta2005/Medi-Track/api/responses"
	"github.com/Dutta2005/Medi-Track/api/validators"
	"github.com/Dutta2005/Medi-Track/internal/notifications"
	pkgerrors "github.com/Dutta2005/Medi-Track/pkg/errors"
	"github.com/Dutta2005/Medi-Track/pkg/logger"
)

// VAPIDPublicKey exposes the key browsers need to create a push subscription.
func VAPIDPublicKey(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "notifications service")
			return
		}
		key := svc.VAPIDPublicKey()
		if key == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "push notifications are not configured"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"public_key": key})
	}
}

// SubscribeNotifications registers the caller's device for reminders.
func SubscribeNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "notifications service")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		var body notifications.SubscribeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sub, err := svc.Subscribe(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sub)
	}
}

func UnsubscribeNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "notifications service")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		var body notifications.UnsubscribeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Unsubscribe(r.Context(), userID, body.Endpoint); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

package controllers

import (
	"context"
	"net/http"

	"github.com/Dutta2005/Medi-Track/api/responses"
	"github.com/Dutta2005/Medi-Track/api/validators"
	"github.com/Dutta2005/Medi-Track/internal/reminders"
	"github.com/Dutta2005/Medi-Track/pkg/enums"
	"github.com/Dutta2005/Medi-Track/pkg/logger"
	"github.com/Dutta2005/Medi-Track/pkg/pagination"
	"github.com/Dutta2005/Medi-Track/pkg/types"
	"github.com/google/uuid"
)

const alertStatusAll = "all"

type alertInbox interface {
	ListPending(ctx context.Context, userID uuid.UUID, params pagination.Params) (*types.Page[reminders.AlertDTO], error)
	ListAll(ctx context.Context, userID uuid.UUID, params pagination.Params) (*types.Page[reminders.AlertDTO], error)
	MarkRead(ctx context.Context, userID, alertID uuid.UUID) (*reminders.AlertDTO, error)
}

type alertSweeper interface {
	Sweep(ctx context.Context) (reminders.SweepResult, error)
}

// ListAlerts returns pending alerts, or every alert with status=all.
func ListAlerts(svc alertInbox, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "alert service")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		status, err := validators.ParseQueryOneOf(r, "status", string(enums.AlertStatusPending), string(enums.AlertStatusPending), alertStatusAll)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list := svc.ListPending
		if status == alertStatusAll {
			list = svc.ListAll
		}
		page, err := list(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func MarkAlertRead(svc alertInbox, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "alert service")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		alertID, err := validators.ParseUUIDParam(r, "alertId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		alert, err := svc.MarkRead(r.Context(), userID, alertID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, alert)
	}
}

// SweepAlerts runs the stock and expiry evaluation over every product.
// Partial failures are reported in the result rather than as an error.
func SweepAlerts(svc alertSweeper, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "alert service")
			return
		}

		result, err := svc.Sweep(r.Context())
		if err != nil {
			logg.Error(r.Context(), "alerts.sweep_partial", err)
		}
		responses.WriteSuccess(w, result)
	}
}

package controllers

import (
	"context"
	"net/http"

	"github.com/Dutta2005/Medi-Track/api/responses"
	"github.com/Dutta2005/Medi-Track/internal/dashboard"
	"github.com/Dutta2005/Medi-Track/pkg/logger"
	"github.com/google/uuid"
)

type dashboardService interface {
	Dashboard(ctx context.Context, userID uuid.UUID, params dashboard.Params) (*dashboard.Result, error)
}

// Dashboard returns the filtered product list with inventory stats.
// Query: filter=all|today|lowStock|expired, category=all|<category>.
func Dashboard(svc dashboardService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "dashboard service")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		query := r.URL.Query()
		result, err := svc.Dashboard(r.Context(), userID, dashboard.Params{
			Filter:   query.Get("filter"),
			Category: query.Get("category"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

package controllers

import (
	"net/http"
	"strings"

	"github.com/Dutta2005/Medi-Track/api/middleware"
	"github.com/Dutta2005/Medi-Track/api/responses"
	"github.com/Dutta2005/Medi-Track/api/validators"
	pkgerrors "github.com/Dutta2005/Medi-Track/pkg/errors"
	"github.com/Dutta2005/Medi-Track/pkg/logger"
	"github.com/Dutta2005/Medi-Track/pkg/pagination"
	"github.com/google/uuid"
)

// requireUser reads the authenticated user id or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uuid.UUID, bool) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == uuid.Nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
		return uuid.Nil, false
	}
	return userID, true
}

func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" unavailable"))
}

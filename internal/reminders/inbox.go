package reminders

import (
	"context"
	"time"

	"github.com/Dutta2005/Medi-Track/pkg/db"
	"github.com/Dutta2005/Medi-Track/pkg/enums"
	pkgerrors "github.com/Dutta2005/Medi-Track/pkg/errors"
	"github.com/Dutta2005/Medi-Track/pkg/pagination"
	"github.com/Dutta2005/Medi-Track/pkg/types"
	"github.com/google/uuid"
)

// ListPending returns the user's unread alerts, newest first.
func (s *Service) ListPending(ctx context.Context, userID uuid.UUID, params pagination.Params) (*types.Page[AlertDTO], error) {
	status := enums.AlertStatusPending
	return s.listAlerts(ctx, userID, &status, params)
}

// ListAll returns alerts of either status, newest first.
func (s *Service) ListAll(ctx context.Context, userID uuid.UUID, params pagination.Params) (*types.Page[AlertDTO], error) {
	return s.listAlerts(ctx, userID, nil, params)
}

func (s *Service) listAlerts(ctx context.Context, userID uuid.UUID, status *enums.AlertStatus, params pagination.Params) (*types.Page[AlertDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.ListAlerts(ctx, userID, status, params.Limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list alerts")
	}

	page := &types.Page[AlertDTO]{Items: make([]AlertDTO, 0, len(rows))}
	for _, row := range rows {
		page.Items = append(page.Items, NewAlertDTO(row))
	}
	if next != nil {
		page.NextCursor = pagination.EncodeCursor(*next)
	}
	return page, nil
}

// MarkRead marks one of the user's alerts as read. Repeating the call on a
// read alert succeeds without changing it.
func (s *Service) MarkRead(ctx context.Context, userID, alertID uuid.UUID) (*AlertDTO, error) {
	alert, err := s.repo.MarkRead(ctx, userID, alertID, s.now())
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.NotFound("alert")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark alert read")
	}
	dto := NewAlertDTO(*alert)
	return &dto, nil
}

// PurgeRead deletes read alerts whose read time is older than retention.
func (s *Service) PurgeRead(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().Add(-retention)
	deleted, err := s.repo.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logg.Info(s.logg.WithField(ctx, "deleted", deleted), "alerts.retention_purged")
	}
	return deleted, nil
}

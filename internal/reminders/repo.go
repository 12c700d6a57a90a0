package reminders

import (
	"context"
	"errors"
	"time"

	"github.com/Dutta2005/Medi-Track/pkg/db"
	"github.com/Dutta2005/Medi-Track/pkg/db/models"
	"github.com/Dutta2005/Medi-Track/pkg/enums"
	"github.com/Dutta2005/Medi-Track/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var errDuplicatePending = errors.New("pending alert already exists")

// Repository persists alerts and dosage triggers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreatePendingAlert inserts alert unless a pending alert of the same type
// already exists for the product. It reports whether a row was written.
func (r *Repository) CreatePendingAlert(ctx context.Context, alert *models.Alert) (bool, error) {
	alert.Status = enums.AlertStatusPending
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Alert{}).
			Where("product_id = ? AND type = ? AND status = ?", alert.ProductID, alert.Type, enums.AlertStatusPending).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errDuplicatePending
		}
		return tx.Create(alert).Error
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errDuplicatePending), db.IsUniqueViolation(err, "uq_alerts_pending_product_type"):
		return false, nil
	default:
		return false, err
	}
}

// ListAlerts returns one page of the user's alerts, newest first. A nil
// status lists every alert.
func (r *Repository) ListAlerts(ctx context.Context, userID uuid.UUID, status *enums.AlertStatus, limit int, cursor *pagination.Cursor) ([]models.Alert, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Scopes(pagination.Keyset(limit, cursor))
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var rows []models.Alert
	if err := query.Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	page, next := pagination.Trim(rows, limit, func(a models.Alert) pagination.Cursor {
		return pagination.Cursor{CreatedAt: a.CreatedAt, ID: a.ID}
	})
	return page, next, nil
}

// MarkRead flips a pending alert to read. Already-read alerts are returned
// unchanged. A missing or foreign alert yields gorm.ErrRecordNotFound.
func (r *Repository) MarkRead(ctx context.Context, userID, alertID uuid.UUID, at time.Time) (*models.Alert, error) {
	var alert models.Alert
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", alertID, userID).First(&alert).Error; err != nil {
			return err
		}
		if alert.Status == enums.AlertStatusRead {
			return nil
		}
		readAt := at.UTC()
		if err := tx.Model(&models.Alert{}).
			Where("id = ? AND status = ?", alert.ID, enums.AlertStatusPending).
			Updates(map[string]any{"status": enums.AlertStatusRead, "read_at": readAt}).Error; err != nil {
			return err
		}
		alert.Status = enums.AlertStatusRead
		alert.ReadAt = &readAt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

// DeleteReadBefore removes read alerts whose read time is older than cutoff.
func (r *Repository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status = ? AND read_at < ?", enums.AlertStatusRead, cutoff.UTC()).
		Delete(&models.Alert{})
	return result.RowsAffected, result.Error
}

// ReplaceTriggers swaps every trigger of the product for rows.
func (r *Repository) ReplaceTriggers(ctx context.Context, productID uuid.UUID, rows []models.DosageTrigger) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", productID).Delete(&models.DosageTrigger{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

// DeleteTriggers removes the product's triggers and returns how many were removed.
func (r *Repository) DeleteTriggers(ctx context.Context, productID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&models.DosageTrigger{})
	return result.RowsAffected, result.Error
}

// ListTriggers returns the product's triggers ordered by next fire time.
func (r *Repository) ListTriggers(ctx context.Context, productID uuid.UUID) ([]models.DosageTrigger, error) {
	var rows []models.DosageTrigger
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("next_fire_at ASC").
		Find(&rows).Error
	return rows, err
}

// DueTriggers returns up to limit triggers whose next fire is at or before now.
func (r *Repository) DueTriggers(ctx context.Context, now time.Time, limit int) ([]models.DosageTrigger, error) {
	var rows []models.DosageTrigger
	err := r.db.WithContext(ctx).
		Where("next_fire_at <= ?", now.UTC()).
		Order("next_fire_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// AdvanceTrigger moves a recurring trigger to its next fire time.
func (r *Repository) AdvanceTrigger(ctx context.Context, id uuid.UUID, next time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.DosageTrigger{}).
		Where("id = ?", id).
		Update("next_fire_at", next.UTC()).Error
}

// DeleteTrigger removes a single trigger.
func (r *Repository) DeleteTrigger(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.DosageTrigger{}).Error
}

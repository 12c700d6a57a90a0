package notifications

import (
	"context"
	"strings"

	"github.com/Dutta2005/Medi-Track/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists web-push subscriptions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, sub *models.PushSubscription) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, userID uuid.UUID, endpoint string) (bool, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a subscriptions repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// Upsert stores the subscription. An endpoint seen before is moved to the
// new owner and keys.
func (r *repositoryImpl) Upsert(ctx context.Context, sub *models.PushSubscription) error {
	sub.Endpoint = strings.TrimSpace(sub.Endpoint)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth"}),
	}).Create(sub).Error
	if err != nil {
		return err
	}
	// The conflict path keeps the stored id, so re-read by endpoint alone.
	var stored models.PushSubscription
	if err := r.db.WithContext(ctx).Where("endpoint = ?", sub.Endpoint).Take(&stored).Error; err != nil {
		return err
	}
	*sub = stored
	return nil
}

func (r *repositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PushSubscription, error) {
	var subs []models.PushSubscription
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&subs).Error
	return subs, err
}

func (r *repositoryImpl) DeleteByEndpoint(ctx context.Context, userID uuid.UUID, endpoint string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND endpoint = ?", userID, strings.TrimSpace(endpoint)).
		Delete(&models.PushSubscription{})
	return result.RowsAffected > 0, result.Error
}

func (r *repositoryImpl) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.PushSubscription{}, "id = ?", id).Error
}

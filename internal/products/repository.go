package products

import (
	"context"
	"time"

	"github.com/Dutta2005/Medi-Track/pkg/db/models"
	"github.com/Dutta2005/Medi-Track/pkg/logger"
	"github.com/Dutta2005/Medi-Track/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists products. Schedules are encoded on write and parsed on
// read so callers only ever see schedule.Schedule values.
type Repository struct {
	db   *gorm.DB
	loc  *time.Location
	logg *logger.Logger
}

// NewRepository builds a repository tied to the provided GORM DB. loc is used
// for custom schedule entries stored without a zone.
func NewRepository(db *gorm.DB, loc *time.Location, logg *logger.Logger) *Repository {
	if loc == nil {
		loc = time.UTC
	}
	return &Repository{db: db, loc: loc, logg: logg}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx, loc: r.loc, logg: r.logg}
}

// Create inserts the product and copies generated fields back.
func (r *Repository) Create(ctx context.Context, product *Product) error {
	row := product.toModel()
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	product.ID = row.ID
	product.CreatedAt = row.CreatedAt
	product.UpdatedAt = row.UpdatedAt
	return nil
}

// Update writes every mutable column of an owned product and stamps it with at.
func (r *Repository) Update(ctx context.Context, product *Product, at time.Time) error {
	row := product.toModel()
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND user_id = ?", product.ID, product.UserID).
		Updates(map[string]any{
			"name":                row.Name,
			"quantity":            row.Quantity,
			"reorder_point":       row.ReorderPoint,
			"expiry_date":         row.ExpiryDate,
			"category":            row.Category,
			"dosage_instructions": row.DosageInstructions,
			"image_id":            row.ImageID,
			"schedule_type":       row.ScheduleType,
			"daily_dosages":       row.DailyDosages,
			"weekly_dosages":      row.WeeklyDosages,
			"custom_schedule":     row.CustomSchedule,
			"updated_at":          at.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	product.UpdatedAt = at.UTC()
	return nil
}

// Delete removes an owned product; it reports whether a row was removed.
func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Product{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// FindForUser loads a product owned by userID.
func (r *Repository) FindForUser(ctx context.Context, userID, id uuid.UUID) (*Product, error) {
	var row models.Product
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&row).Error; err != nil {
		return nil, err
	}
	product := r.decode(ctx, row)
	return &product, nil
}

// FindByID loads a product regardless of owner. Used by background workers.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	var row models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	product := r.decode(ctx, row)
	return &product, nil
}

// ListByUser returns one page of the user's products newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]Product, *pagination.Cursor, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Scopes(pagination.Keyset(limit, cursor)).
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}
	page, next := pagination.Trim(r.decodeAll(ctx, rows), limit, Product.Cursor)
	return page, next, nil
}

// ListAllByUser returns every product of the user newest first.
func (r *Repository) ListAllByUser(ctx context.Context, userID uuid.UUID) ([]Product, error) {
	var rows []models.Product
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.decodeAll(ctx, rows), nil
}

// ListPage walks all products in id order. Pass the last id of the previous
// page as after, or uuid.Nil to start.
func (r *Repository) ListPage(ctx context.Context, after uuid.UUID, limit int) ([]Product, error) {
	query := r.db.WithContext(ctx).Order("id ASC").Limit(pagination.NormalizeLimit(limit))
	if after != uuid.Nil {
		query = query.Where("id > ?", after)
	}
	var rows []models.Product
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.decodeAll(ctx, rows), nil
}

// ClearImage unsets image_id on the user's products that reference imageID.
func (r *Repository) ClearImage(ctx context.Context, userID uuid.UUID, imageID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("user_id = ? AND image_id = ?", userID, imageID).
		Update("image_id", nil).Error
}

func (r *Repository) decodeAll(ctx context.Context, rows []models.Product) []Product {
	out := make([]Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, r.decode(ctx, row))
	}
	return out
}

func (r *Repository) decode(ctx context.Context, row models.Product) Product {
	product, err := fromModel(row, r.loc)
	if err != nil && r.logg != nil {
		logCtx := r.logg.WithFields(ctx, map[string]any{
			"product_id":    row.ID.String(),
			"schedule_type": string(row.ScheduleType),
			"error":         err.Error(),
		})
		r.logg.Warn(logCtx, "products.schedule_invalid")
	}
	return product
}

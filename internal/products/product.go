package products

import (
	"time"

	"github.com/Dutta2005/Medi-Track/internal/schedule"
	"github.com/Dutta2005/Medi-Track/pkg/db/models"
	"github.com/Dutta2005/Medi-Track/pkg/enums"
	"github.com/Dutta2005/Medi-Track/pkg/pagination"
	"github.com/google/uuid"
)

// DefaultLowStockThreshold applies when a product has no reorder point.
const DefaultLowStockThreshold = 5

// DateLayout is the wire and storage layout for expiry dates.
const DateLayout = "2006-01-02"

// Product is a medication with its schedule already parsed.
type Product struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	Name               string
	Quantity           int
	ReorderPoint       *int
	ExpiryDate         time.Time
	Category           enums.ProductCategory
	DosageInstructions string
	ImageID            *string
	Schedule           schedule.Schedule
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Threshold returns the reorder point, or DefaultLowStockThreshold when unset.
func (p Product) Threshold() int {
	if p.ReorderPoint != nil {
		return *p.ReorderPoint
	}
	return DefaultLowStockThreshold
}

// Cursor is the pagination key for the product listing order.
func (p Product) Cursor() pagination.Cursor {
	return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
}

func (p Product) toModel() *models.Product {
	cols := p.Schedule.Columns()
	return &models.Product{
		ID:                 p.ID,
		UserID:             p.UserID,
		Name:               p.Name,
		Quantity:           p.Quantity,
		ReorderPoint:       p.ReorderPoint,
		ExpiryDate:         civilDate(p.ExpiryDate),
		Category:           p.Category,
		DosageInstructions: p.DosageInstructions,
		ImageID:            p.ImageID,
		ScheduleType:       p.Schedule.Type,
		DailyDosages:       cols.Daily,
		WeeklyDosages:      cols.Weekly,
		CustomSchedule:     cols.Custom,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

// fromModel converts a row. A schedule parse error is returned alongside a
// product carrying an empty schedule of the stored type.
func fromModel(m models.Product, loc *time.Location) (Product, error) {
	sched, err := schedule.FromColumns(m.ScheduleType, schedule.Columns{
		Daily:  m.DailyDosages,
		Weekly: m.WeeklyDosages,
		Custom: m.CustomSchedule,
	}, loc)
	return Product{
		ID:                 m.ID,
		UserID:             m.UserID,
		Name:               m.Name,
		Quantity:           m.Quantity,
		ReorderPoint:       m.ReorderPoint,
		ExpiryDate:         civilDate(m.ExpiryDate),
		Category:           m.Category,
		DosageInstructions: m.DosageInstructions,
		ImageID:            m.ImageID,
		Schedule:           sched,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}, err
}

// civilDate drops the time of day, keeping the calendar date as UTC midnight.
func civilDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts YYYY-MM-DD or an RFC3339 timestamp and keeps the date part.
func ParseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return civilDate(t), nil
}

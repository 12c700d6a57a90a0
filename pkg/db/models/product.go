package models

import (
	"time"

	"github.com/Dutta2005/Medi-Track/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a tracked medication owned by one user. The three dosage
// columns hold JSON text; only the one matching ScheduleType is populated.
type Product struct {
	ID                 uuid.UUID             `gorm:"type:uuid;primaryKey"`
	UserID             uuid.UUID             `gorm:"type:uuid;not null;index"`
	Name               string                `gorm:"type:text;not null"`
	Quantity           int                   `gorm:"not null"`
	ReorderPoint       *int                  `gorm:"column:reorder_point"`
	ExpiryDate         time.Time             `gorm:"column:expiry_date;type:date;not null"`
	Category           enums.ProductCategory `gorm:"type:text;not null"`
	DosageInstructions string                `gorm:"column:dosage_instructions;type:text;not null"`
	ImageID            *string               `gorm:"column:image_id;type:text"`
	ScheduleType       enums.ScheduleType    `gorm:"column:schedule_type;type:text;not null"`
	DailyDosages       string                `gorm:"column:daily_dosages;type:text;not null"`
	WeeklyDosages      string                `gorm:"column:weekly_dosages;type:text;not null"`
	CustomSchedule     string                `gorm:"column:custom_schedule;type:text;not null"`
	CreatedAt          time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

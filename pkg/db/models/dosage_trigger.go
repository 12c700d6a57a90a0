package models

import (
	"time"

	"github.com/Dutta2005/Medi-Track/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DosageTrigger is a persisted medication reminder. Recurring triggers are
// advanced after each fire; date triggers are removed once delivered.
type DosageTrigger struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey"`
	ProductID       uuid.UUID         `gorm:"type:uuid;not null;index"`
	UserID          uuid.UUID         `gorm:"type:uuid;not null"`
	Kind            enums.TriggerKind `gorm:"type:text;not null"`
	Hour            int               `gorm:"not null"`
	Minute          int               `gorm:"not null"`
	Weekday         *int              `gorm:"column:weekday"`
	FireAt          *time.Time        `gorm:"column:fire_at"`
	RepeatEveryDays int               `gorm:"column:repeat_every_days;not null;default:0"`
	NextFireAt      time.Time         `gorm:"column:next_fire_at;not null;index"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (t *DosageTrigger) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

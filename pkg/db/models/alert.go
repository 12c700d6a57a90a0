package models

import (
	"time"

	"github.com/Dutta2005/Medi-Track/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Alert records a low-stock, expiry or dosage reminder for a product.
type Alert struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID         `gorm:"type:uuid;not null;index:idx_alerts_user_status"`
	ProductID uuid.UUID         `gorm:"type:uuid;not null;index:idx_alerts_product_type"`
	Type      enums.AlertType   `gorm:"type:text;not null;index:idx_alerts_product_type"`
	Message   string            `gorm:"type:text;not null"`
	Status    enums.AlertStatus `gorm:"type:text;not null;index:idx_alerts_user_status"`
	ReadAt    *time.Time        `gorm:"column:read_at"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (a *Alert) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = enums.AlertStatusPending
	}
	return nil
}

package reminders

import (
	"time"

	"github.com/Dutta2005/Medi-Track/pkg/db/models"
	"github.com/Dutta2005/Medi-Track/pkg/enums"
	"github.com/google/uuid"
)

// AlertDTO is the API shape of an alert.
type AlertDTO struct {
	ID        uuid.UUID         `json:"id"`
	ProductID uuid.UUID         `json:"product_id"`
	Type      enums.AlertType   `json:"type"`
	Message   string            `json:"message"`
	Status    enums.AlertStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	ReadAt    *time.Time        `json:"read_at,omitempty"`
}

// NewAlertDTO converts a stored alert.
func NewAlertDTO(a models.Alert) AlertDTO {
	return AlertDTO{
		ID:        a.ID,
		ProductID: a.ProductID,
		Type:      a.Type,
		Message:   a.Message,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
		ReadAt:    a.ReadAt,
	}
}

// CheckResult reports the evaluation of one product and the alerts it created.
type CheckResult struct {
	ProductID  uuid.UUID  `json:"product_id"`
	Evaluation Evaluation `json:"evaluation"`
	Created    []AlertDTO `json:"created"`
}

// SweepResult summarizes a pass over every product.
type SweepResult struct {
	Checked int `json:"checked"`
	Created int `json:"created"`
	Failed  int `json:"failed"`
}

// DispatchResult summarizes one dosage dispatch run.
type DispatchResult struct {
	Fired    int `json:"fired"`
	Advanced int `json:"advanced"`
	Removed  int `json:"removed"`
}

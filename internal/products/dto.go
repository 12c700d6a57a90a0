package products

import (
	"encoding/json"
	"time"

	"github.com/Dutta2005/Medi-Track/internal/schedule"
	"github.com/Dutta2005/Medi-Track/pkg/enums"
	"github.com/google/uuid"
)

// CreateProductInput holds the validated payload to create a product.
// Only the payload matching ScheduleType is read.
type CreateProductInput struct {
	Name               string
	Quantity           int
	ReorderPoint       *int
	ExpiryDate         time.Time
	Category           enums.ProductCategory
	DosageInstructions string
	ImageID            *string
	ScheduleType       enums.ScheduleType
	DailyDosages       json.RawMessage
	WeeklyDosages      json.RawMessage
	CustomSchedule     json.RawMessage
}

// UpdateProductInput holds optional mutation values for a product. A nil
// payload keeps the stored schedule when the type does not change. An empty
// ImageID clears the image.
type UpdateProductInput struct {
	Name               *string
	Quantity           *int
	ReorderPoint       *int
	ClearReorderPoint  bool
	ExpiryDate         *time.Time
	Category           *enums.ProductCategory
	DosageInstructions *string
	ImageID            *string
	ScheduleType       *enums.ScheduleType
	DailyDosages       json.RawMessage
	WeeklyDosages      json.RawMessage
	CustomSchedule     json.RawMessage
}

func (in UpdateProductInput) payloadFor(t enums.ScheduleType) json.RawMessage {
	return payloadFor(t, in.DailyDosages, in.WeeklyDosages, in.CustomSchedule)
}

func payloadFor(t enums.ScheduleType, daily, weekly, custom json.RawMessage) json.RawMessage {
	switch t {
	case enums.ScheduleTypeDaily:
		return daily
	case enums.ScheduleTypeWeekly:
		return weekly
	case enums.ScheduleTypeCustom:
		return custom
	default:
		return nil
	}
}

// ProductDTO is the API shape of a product. Inactive payloads are empty lists.
type ProductDTO struct {
	ID                 uuid.UUID             `json:"id"`
	Name               string                `json:"name"`
	Quantity           int                   `json:"quantity"`
	ReorderPoint       *int                  `json:"reorder_point"`
	ExpiryDate         string                `json:"expiry_date"`
	Category           enums.ProductCategory `json:"category"`
	DosageInstructions string                `json:"dosage_instructions"`
	ImageID            *string               `json:"image_id"`
	ScheduleType       enums.ScheduleType    `json:"schedule_type"`
	DailyDosages       json.RawMessage       `json:"daily_dosages"`
	WeeklyDosages      json.RawMessage       `json:"weekly_dosages"`
	CustomSchedule     json.RawMessage       `json:"custom_schedule"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// NewProductDTO converts a product to its API shape.
func NewProductDTO(p Product) ProductDTO {
	cols := p.Schedule.Columns()
	return ProductDTO{
		ID:                 p.ID,
		Name:               p.Name,
		Quantity:           p.Quantity,
		ReorderPoint:       p.ReorderPoint,
		ExpiryDate:         p.ExpiryDate.Format(DateLayout),
		Category:           p.Category,
		DosageInstructions: p.DosageInstructions,
		ImageID:            p.ImageID,
		ScheduleType:       p.Schedule.Type,
		DailyDosages:       json.RawMessage(cols.Daily),
		WeeklyDosages:      json.RawMessage(cols.Weekly),
		CustomSchedule:     json.RawMessage(cols.Custom),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

// NewProductDTOs converts a list of products.
func NewProductDTOs(items []Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(items))
	for _, p := range items {
		out = append(out, NewProductDTO(p))
	}
	return out
}

// TriggerDTO describes one computed notification trigger and its next fire.
type TriggerDTO struct {
	Kind            enums.TriggerKind `json:"kind"`
	Hour            int               `json:"hour"`
	Minute          int               `json:"minute"`
	Weekday         *int              `json:"weekday,omitempty"`
	At              *time.Time        `json:"at,omitempty"`
	RepeatEveryDays int               `json:"repeat_every_days,omitempty"`
	NextFireAt      *time.Time        `json:"next_fire_at"`
}

// NewTriggerDTOs maps triggers and resolves each next fire after now in loc.
func NewTriggerDTOs(triggers []schedule.Trigger, now time.Time, loc *time.Location) []TriggerDTO {
	out := make([]TriggerDTO, 0, len(triggers))
	for _, t := range triggers {
		dto := TriggerDTO{Kind: t.Kind, Hour: t.Hour, Minute: t.Minute, RepeatEveryDays: t.RepeatEveryDays}
		if t.Kind == enums.TriggerKindWeekly {
			weekday := t.Weekday
			dto.Weekday = &weekday
		}
		if t.Kind == enums.TriggerKindDate {
			at := t.At.UTC()
			dto.At = &at
		}
		if next, ok := t.NextAfter(now, loc); ok {
			next = next.UTC()
			dto.NextFireAt = &next
		}
		out = append(out, dto)
	}
	return out
}

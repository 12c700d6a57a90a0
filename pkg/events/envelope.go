package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EnvelopeVersion is bumped when the envelope layout changes incompatibly.
const EnvelopeVersion = 1

// Event types published on the notification topic.
const (
	NotificationRequested = "notification.requested"
)

// Attribute keys set on every published message.
const (
	AttrEventType = "event_type"
	AttrEventID   = "event_id"
)

// ActorRef identifies who the event concerns.
type ActorRef struct {
	UserID uuid.UUID `json:"userId"`
}

// PayloadEnvelope is the stable payload structure carried on the bus.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	EventType  string          `json:"eventType"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// NewEnvelope wraps data in a fresh envelope with a new event id.
func NewEnvelope(eventType string, actor *ActorRef, data any, now time.Time) (PayloadEnvelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return PayloadEnvelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return PayloadEnvelope{
		Version:    EnvelopeVersion,
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: now.UTC(),
		Actor:      actor,
		Data:       raw,
	}, nil
}

// Attributes returns the message attributes used for routing.
func (e PayloadEnvelope) Attributes() map[string]string {
	return map[string]string{
		AttrEventType: e.EventType,
		AttrEventID:   e.EventID,
	}
}

// Decode parses an envelope and checks that it carries an id.
func Decode(data []byte) (PayloadEnvelope, uuid.UUID, error) {
	var envelope PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return PayloadEnvelope{}, uuid.Nil, fmt.Errorf("decode envelope: %w", err)
	}
	id, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return PayloadEnvelope{}, uuid.Nil, fmt.Errorf("invalid event id: %w", err)
	}
	return envelope, id, nil
}

package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dutta2005/Medi-Track/pkg/events"
	"github.com/Dutta2005/Medi-Track/pkg/logger"
	"github.com/google/uuid"
)

type publisher interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error)
}

// RequestedPayload is the data of a notification.requested event.
type RequestedPayload struct {
	UserID  uuid.UUID `json:"userId"`
	Message Message   `json:"message"`
}

// PubSubNotifier hands delivery to the notification worker.
type PubSubNotifier struct {
	pub  publisher
	logg *logger.Logger
	now  func() time.Time
}

func NewPubSubNotifier(pub publisher, logg *logger.Logger) (*PubSubNotifier, error) {
	if pub == nil {
		return nil, fmt.Errorf("notification publisher required")
	}
	return &PubSubNotifier{pub: pub, logg: logg, now: time.Now}, nil
}

func (n *PubSubNotifier) Notify(ctx context.Context, userID uuid.UUID, msg Message) error {
	envelope, err := events.NewEnvelope(events.NotificationRequested, &events.ActorRef{UserID: userID}, RequestedPayload{
		UserID:  userID,
		Message: msg,
	}, n.now())
	if err != nil {
		return err
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	serverID, err := n.pub.Publish(ctx, data, envelope.Attributes())
	if err != nil {
		return fmt.Errorf("publish %s: %w", events.NotificationRequested, err)
	}
	if n.logg != nil {
		n.logg.Debug(n.logg.WithFields(ctx, map[string]any{
			"event_id":   envelope.EventID,
			"message_id": serverID,
		}), "notifications.published")
	}
	return nil
}

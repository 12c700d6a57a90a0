package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/Dutta2005/Medi-Track/pkg/events"
	"github.com/Dutta2005/Medi-Track/pkg/logger"
	"github.com/google/uuid"
)

const notificationWorkerConsumer = "notification-worker"

type processedGuard interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer delivers notification.requested events published by the API.
type Consumer struct {
	subscription *pubsub.Subscriber
	guard        processedGuard
	delivery     Notifier
	logg         *logger.Logger
}

// NewConsumer builds the notification worker consumer.
func NewConsumer(subscription *pubsub.Subscriber, guard processedGuard, delivery Notifier, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if guard == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if delivery == nil {
		return nil, fmt.Errorf("delivery notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{subscription: subscription, guard: guard, delivery: delivery, logg: logg}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg.ID, msg.Attributes, msg.Data)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, messageID string, attrs map[string]string, data []byte) processResult {
	eventType := attrs[events.AttrEventType]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": eventType,
	})

	if eventType != events.NotificationRequested {
		c.logg.Debug(logCtx, "notifications.event_skipped")
		return processResult{ack: true}
	}

	envelope, eventID, err := events.Decode(data)
	if err != nil {
		c.logg.Error(logCtx, "notifications.envelope_invalid", err)
		return processResult{ack: true}
	}

	already, err := c.guard.CheckAndMarkProcessed(ctx, notificationWorkerConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "notifications.dedupe_check_failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "notifications.event_duplicate")
		return processResult{ack: true}
	}

	var payload RequestedPayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil || payload.UserID == uuid.Nil {
		if err == nil {
			err = fmt.Errorf("user id missing")
		}
		c.logg.Error(logCtx, "notifications.payload_invalid", err)
		return processResult{ack: true}
	}

	logCtx = c.logg.WithUserID(logCtx, payload.UserID.String())
	if err := c.delivery.Notify(logCtx, payload.UserID, payload.Message); err != nil {
		c.logg.Error(logCtx, "notifications.delivery_failed", err)
		// A marker left behind would turn the redelivery into a duplicate.
		if err := c.guard.Delete(ctx, notificationWorkerConsumer, eventID); err != nil {
			c.logg.Error(logCtx, "notifications.dedupe_release_failed", err)
		}
		return processResult{nack: true}
	}
	c.logg.Info(logCtx, "notifications.delivered")
	return processResult{ack: true}
}

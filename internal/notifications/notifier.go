package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dutta2005/Medi-Track/pkg/db/models"
	"github.com/Dutta2005/Medi-Track/pkg/logger"
	"github.com/Dutta2005/Medi-Track/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

type subscriptionStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PushSubscription, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// PushNotifier fans a message out to every subscription of the user.
type PushNotifier struct {
	subs    subscriptionStore
	sender  Sender
	logg    *logger.Logger
	metrics *metrics.ReminderMetrics
}

// NewPushNotifier builds a notifier that sends directly from the caller.
func NewPushNotifier(subs subscriptionStore, sender Sender, logg *logger.Logger, m *metrics.ReminderMetrics) (*PushNotifier, error) {
	if subs == nil {
		return nil, fmt.Errorf("subscription repository required")
	}
	if sender == nil {
		return nil, fmt.Errorf("push sender required")
	}
	return &PushNotifier{subs: subs, sender: sender, logg: logg, metrics: m}, nil
}

func (n *PushNotifier) Notify(ctx context.Context, userID uuid.UUID, msg Message) error {
	subs, err := n.subs.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list push subscriptions: %w", err)
	}
	if len(subs) == 0 {
		if n.logg != nil {
			logCtx := n.logg.WithFields(ctx, map[string]any{
				"user_id": userID.String(),
				"kind":    string(msg.Kind),
			})
			n.logg.Warn(logCtx, "notifications.permission_denied")
		}
		n.metrics.IncNotification(string(msg.Kind), metrics.OutcomeSkipped)
		return nil
	}

	var errs error
	for _, sub := range subs {
		sendErr := n.sender.Send(ctx, sub, msg)
		switch {
		case sendErr == nil:
			n.metrics.IncNotification(string(msg.Kind), metrics.OutcomeDelivered)
		case errors.Is(sendErr, ErrExpired):
			n.metrics.IncNotification(string(msg.Kind), metrics.OutcomeSkipped)
			if delErr := n.subs.DeleteByID(ctx, sub.ID); delErr != nil {
				errs = multierr.Append(errs, fmt.Errorf("prune subscription %s: %w", sub.ID, delErr))
			} else if n.logg != nil {
				n.logg.Info(n.logg.WithField(ctx, "subscription_id", sub.ID.String()), "notifications.subscription_pruned")
			}
		default:
			n.metrics.IncNotification(string(msg.Kind), metrics.OutcomeFailed)
			errs = multierr.Append(errs, fmt.Errorf("deliver to %s: %w", sub.ID, sendErr))
		}
	}
	return errs
}

// LogNotifier only logs. It backs the disabled delivery mode.
type LogNotifier struct {
	logg    *logger.Logger
	metrics *metrics.ReminderMetrics
}

func NewLogNotifier(logg *logger.Logger, m *metrics.ReminderMetrics) *LogNotifier {
	return &LogNotifier{logg: logg, metrics: m}
}

func (n *LogNotifier) Notify(ctx context.Context, userID uuid.UUID, msg Message) error {
	n.metrics.IncNotification(string(msg.Kind), metrics.OutcomeSkipped)
	if n.logg == nil {
		return nil
	}
	logCtx := n.logg.WithFields(ctx, map[string]any{
		"user_id": userID.String(),
		"kind":    string(msg.Kind),
		"title":   msg.Title,
	})
	n.logg.Info(logCtx, "notifications.disabled")
	return nil
}

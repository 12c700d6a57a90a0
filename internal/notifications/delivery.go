package notifications

import (
	"fmt"

	"github.com/Dutta2005/Medi-Track/pkg/config"
	"github.com/Dutta2005/Medi-Track/pkg/logger"
	"github.com/Dutta2005/Medi-Track/pkg/metrics"
)

// DeliveryParams carry what each delivery mode may need. Only the fields of
// the selected mode are required.
type DeliveryParams struct {
	Mode          string
	Subscriptions subscriptionStore
	Sender        Sender
	Publisher     publisher
	Logger        *logger.Logger
	Metrics       *metrics.ReminderMetrics
}

// NewDeliveryNotifier picks the notifier for the configured delivery mode:
// direct web push, a pub/sub hand-off to the notification worker, or log only.
func NewDeliveryNotifier(params DeliveryParams) (Notifier, error) {
	switch params.Mode {
	case config.DeliveryPush:
		return NewPushNotifier(params.Subscriptions, params.Sender, params.Logger, params.Metrics)
	case config.DeliveryPubSub:
		return NewPubSubNotifier(params.Publisher, params.Logger)
	case config.DeliveryDisabled, "":
		return NewLogNotifier(params.Logger, params.Metrics), nil
	default:
		return nil, fmt.Errorf("unknown notification delivery mode %q", params.Mode)
	}
}

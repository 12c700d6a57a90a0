// Package bootstrap holds wiring shared by the api and cron-worker binaries.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Dutta2005/Medi-Track/internal/notifications"
	"github.com/Dutta2005/Medi-Track/internal/products"
	"github.com/Dutta2005/Medi-Track/internal/reminders"
	"github.com/Dutta2005/Medi-Track/pkg/config"
	"github.com/Dutta2005/Medi-Track/pkg/db"
	"github.com/Dutta2005/Medi-Track/pkg/logger"
	"github.com/Dutta2005/Medi-Track/pkg/metrics"
	"github.com/Dutta2005/Medi-Track/pkg/pubsub"
)

const pushTimeout = 10 * time.Second

// Notifier builds the configured delivery notifier. The returned cleanup
// releases any pub/sub resources and is always safe to call.
func Notifier(ctx context.Context, cfg *config.Config, dbClient *db.Client, logg *logger.Logger, m *metrics.ReminderMetrics) (notifications.Notifier, func(), error) {
	cleanup := func() {}
	params := notifications.DeliveryParams{
		Mode:          cfg.Push.Mode(),
		Subscriptions: notifications.NewRepository(dbClient.DB()),
		Logger:        logg,
		Metrics:       m,
	}

	switch params.Mode {
	case config.DeliveryPush:
		sender, err := notifications.NewWebPushSender(cfg.Push, &http.Client{Timeout: pushTimeout})
		if err != nil {
			return nil, cleanup, err
		}
		params.Sender = sender
	case config.DeliveryPubSub:
		client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return nil, cleanup, fmt.Errorf("bootstrap pubsub: %w", err)
		}
		if err := client.EnsureNotificationTopic(ctx); err != nil {
			_ = client.Close()
			return nil, cleanup, fmt.Errorf("ensure notification topic: %w", err)
		}
		pub := client.NotificationPublisher()
		params.Publisher = pub
		cleanup = func() {
			pub.Stop()
			if err := client.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}
	}

	notifier, err := notifications.NewDeliveryNotifier(params)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return notifier, cleanup, nil
}

// Reminders wires the product repository and the reminder service that
// both binaries run against.
func Reminders(cfg *config.Config, dbClient *db.Client, notifier notifications.Notifier, logg *logger.Logger, m *metrics.ReminderMetrics) (*products.Repository, *reminders.Service, error) {
	loc, err := cfg.App.Location()
	if err != nil {
		return nil, nil, err
	}
	productRepo := products.NewRepository(dbClient.DB(), loc, logg)
	svc, err := reminders.NewService(reminders.ServiceParams{
		Repo:              reminders.NewRepository(dbClient.DB()),
		Products:          productRepo,
		Notifier:          notifier,
		Logger:            logg,
		Metrics:           m,
		Location:          loc,
		SweepPageSize:     cfg.Cron.SweepPageSize,
		DispatchBatchSize: cfg.Cron.DispatchBatchSize,
	})
	if err != nil {
		return nil, nil, err
	}
	return productRepo, svc, nil
}

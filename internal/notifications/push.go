package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/Dutta2005/Medi-Track/pkg/config"
	"github.com/Dutta2005/Medi-Track/pkg/db/models"
)

// ErrExpired is returned when a push subscription is no longer valid.
var ErrExpired = errors.New("push subscription expired")

// Sender delivers one encrypted payload to one subscription.
type Sender interface {
	Send(ctx context.Context, sub models.PushSubscription, msg Message) error
}

// WebPushSender sends VAPID-signed web-push messages.
type WebPushSender struct {
	cfg    config.PushConfig
	client webpush.HTTPClient
}

// NewWebPushSender validates the VAPID configuration. client may be nil.
func NewWebPushSender(cfg config.PushConfig, client webpush.HTTPClient) (*WebPushSender, error) {
	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		return nil, fmt.Errorf("vapid key pair is required for push delivery")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &WebPushSender{cfg: cfg, client: client}, nil
}

// PublicKey is handed to clients when they subscribe.
func (s *WebPushSender) PublicKey() string {
	return s.cfg.VAPIDPublicKey
}

func (s *WebPushSender) Send(ctx context.Context, sub models.PushSubscription, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, data, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.cfg.Subscriber,
		VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
		TTL:             s.cfg.TTLSeconds,
		Urgency:         webpush.UrgencyHigh,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		return ErrExpired
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}
	return nil
}

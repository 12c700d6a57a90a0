package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/Dutta2005/Medi-Track/pkg/db/models"
	"github.com/Dutta2005/Medi-Track/pkg/enums"
	"github.com/Dutta2005/Medi-Track/pkg/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySubs struct {
	subs    []models.PushSubscription
	deleted []uuid.UUID
}

func (m *memorySubs) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PushSubscription, error) {
	var out []models.PushSubscription
	for _, s := range m.subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memorySubs) DeleteByID(ctx context.Context, id uuid.UUID) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type scriptedSender struct {
	results map[string]error
	sent    []string
}

func (s *scriptedSender) Send(ctx context.Context, sub models.PushSubscription, msg Message) error {
	s.sent = append(s.sent, sub.Endpoint)
	return s.results[sub.Endpoint]
}

func TestPushNotifierWithoutSubscriptionsDegrades(t *testing.T) {
	sender := &scriptedSender{}
	n, err := NewPushNotifier(&memorySubs{}, sender, nil, nil)
	require.NoError(t, err)

	err = n.Notify(context.Background(), uuid.New(), Message{Title: "Low Stock Alert", Kind: enums.AlertTypeLowStock})
	assert.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestPushNotifierPrunesExpiredAndAggregatesFailures(t *testing.T) {
	user := uuid.New()
	good := models.PushSubscription{ID: uuid.New(), UserID: user, Endpoint: "https://push/good"}
	gone := models.PushSubscription{ID: uuid.New(), UserID: user, Endpoint: "https://push/gone"}
	broken := models.PushSubscription{ID: uuid.New(), UserID: user, Endpoint: "https://push/broken"}
	subs := &memorySubs{subs: []models.PushSubscription{good, gone, broken}}
	sender := &scriptedSender{results: map[string]error{
		gone.Endpoint:   ErrExpired,
		broken.Endpoint: errors.New("boom"),
	}}
	reg := prometheus.NewRegistry()
	m := metrics.NewReminderMetrics(reg)

	n, err := NewPushNotifier(subs, sender, nil, m)
	require.NoError(t, err)
	err = n.Notify(context.Background(), user, Message{Title: "Expiry Alert", Kind: enums.AlertTypeExpiry})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Len(t, sender.sent, 3)
	assert.Equal(t, []uuid.UUID{gone.ID}, subs.deleted)

	outcomes := map[string]float64{}
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "meditrack_reminders_notifications_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "outcome" {
					outcomes[label.GetValue()] += metric.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, map[string]float64{
		metrics.OutcomeDelivered: 1,
		metrics.OutcomeSkipped:   1,
		metrics.OutcomeFailed:    1,
	}, outcomes)
}

func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier(nil, nil)
	assert.NoError(t, n.Notify(context.Background(), uuid.New(), Message{}))
}

func TestNotifierFunc(t *testing.T) {
	called := false
	var n Notifier = NotifierFunc(func(ctx context.Context, userID uuid.UUID, msg Message) error {
		called = true
		return nil
	})
	require.NoError(t, n.Notify(context.Background(), uuid.New(), Message{}))
	assert.True(t, called)
}

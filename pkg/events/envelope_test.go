package events

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeEncodeDecode(t *testing.T) {
	user := uuid.New()
	now := time.Date(2026, 2, 1, 8, 0, 0, 0, time.FixedZone("x", 3600))
	env, err := NewEnvelope(NotificationRequested, &ActorRef{UserID: user}, map[string]string{"title": "hi"}, now)
	require.NoError(t, err)
	assert.Equal(t, EnvelopeVersion, env.Version)
	assert.Equal(t, time.UTC, env.OccurredAt.Location())

	attrs := env.Attributes()
	assert.Equal(t, NotificationRequested, attrs[AttrEventType])
	assert.Equal(t, env.EventID, attrs[AttrEventID])

	raw := []byte(`{"version":1,"eventId":"` + env.EventID + `","eventType":"notification.requested","data":{"title":"hi"}}`)
	decoded, id, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, env.EventID, id.String())
	assert.JSONEq(t, `{"title":"hi"}`, string(decoded.Data))
}

func TestDecodeRejectsBadInput(t *testing.T) {
	_, _, err := Decode([]byte(`not json`))
	assert.Error(t, err)
	_, _, err = Decode([]byte(`{"eventId":"nope"}`))
	assert.Error(t, err)
}

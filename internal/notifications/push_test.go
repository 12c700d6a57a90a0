package notifications

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/Dutta2005/Medi-Track/pkg/config"
	"github.com/Dutta2005/Medi-Track/pkg/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSubscription(t *testing.T, endpoint string) models.PushSubscription {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	secret := make([]byte, 16)
	_, err = rand.Read(secret)
	require.NoError(t, err)
	return models.PushSubscription{
		Endpoint: endpoint,
		P256dh:   base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		Auth:     base64.RawURLEncoding.EncodeToString(secret),
	}
}

func testPushConfig(t *testing.T) config.PushConfig {
	t.Helper()
	private, public, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)
	return config.PushConfig{
		VAPIDPublicKey:  public,
		VAPIDPrivateKey: private,
		Subscriber:      "mailto:alerts@example.com",
		TTLSeconds:      60,
	}
}

func TestWebPushSenderStatusMapping(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		wantErr error
		fails   bool
	}{
		{"created", http.StatusCreated, nil, false},
		{"gone", http.StatusGone, ErrExpired, true},
		{"not found", http.StatusNotFound, ErrExpired, true},
		{"server error", http.StatusInternalServerError, nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var gotAuth, gotEncoding string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				gotEncoding = r.Header.Get("Content-Encoding")
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			sender, err := NewWebPushSender(testPushConfig(t), server.Client())
			require.NoError(t, err)

			err = sender.Send(context.Background(), testSubscription(t, server.URL), Message{Title: "Medication Reminder", Body: "Time to take Aspirin"})
			if !tc.fails {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				if tc.wantErr != nil {
					assert.ErrorIs(t, err, tc.wantErr)
				}
			}
			assert.Contains(t, gotAuth, "vapid")
			assert.Equal(t, "aes128gcm", gotEncoding)
		})
	}
}

func TestNewWebPushSenderRequiresKeys(t *testing.T) {
	_, err := NewWebPushSender(config.PushConfig{}, nil)
	assert.Error(t, err)

	sender, err := NewWebPushSender(config.PushConfig{VAPIDPublicKey: "pub", VAPIDPrivateKey: "priv"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "pub", sender.PublicKey())
}

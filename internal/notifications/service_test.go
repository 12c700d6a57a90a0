package notifications

import (
	"context"
	"testing"

	pkgerrors "github.com/Dutta2005/Medi-Track/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceSubscribeAndUnsubscribe(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService(NewRepository(newTestDB(t).DB()), "vapid-public")
	require.NoError(t, err)
	assert.Equal(t, "vapid-public", svc.VAPIDPublicKey())

	user := uuid.New()
	dto, err := svc.Subscribe(ctx, user, SubscribeRequest{
		Endpoint: "https://fcm.googleapis.com/fcm/send/abc",
		Keys:     SubscriptionKeys{P256dh: "key", Auth: "auth"},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, dto.ID)

	err = svc.Unsubscribe(ctx, uuid.New(), dto.Endpoint)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, svc.Unsubscribe(ctx, user, dto.Endpoint))
	err = svc.Unsubscribe(ctx, user, dto.Endpoint)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestServiceSubscribeValidation(t *testing.T) {
	svc, err := NewService(NewRepository(newTestDB(t).DB()), "")
	require.NoError(t, err)

	_, err = svc.Subscribe(context.Background(), uuid.Nil, SubscribeRequest{Endpoint: "https://x"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = svc.Subscribe(context.Background(), uuid.New(), SubscribeRequest{Endpoint: "http://insecure"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestServiceSubscribeSameEndpointTwice(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService(NewRepository(newTestDB(t).DB()), "")
	require.NoError(t, err)

	user := uuid.New()
	req := SubscribeRequest{
		Endpoint: "https://fcm.googleapis.com/fcm/send/repeat",
		Keys:     SubscriptionKeys{P256dh: "key", Auth: "auth"},
	}
	first, err := svc.Subscribe(ctx, user, req)
	require.NoError(t, err)

	req.Keys.Auth = "rotated"
	second, err := svc.Subscribe(ctx, user, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

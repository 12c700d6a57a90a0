package notifications

import (
	"context"
	"strings"

	"github.com/Dutta2005/Medi-Track/pkg/db/models"
	pkgerrors "github.com/Dutta2005/Medi-Track/pkg/errors"
	"github.com/google/uuid"
)

// SubscribeRequest mirrors the browser PushSubscription JSON.
type SubscribeRequest struct {
	Endpoint string           `json:"endpoint" validate:"required,url,max=2048"`
	Keys     SubscriptionKeys `json:"keys" validate:"required"`
}

type SubscriptionKeys struct {
	P256dh string `json:"p256dh" validate:"required,max=256"`
	Auth   string `json:"auth" validate:"required,max=64"`
}

// UnsubscribeRequest identifies the device to forget.
type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required"`
}

// SubscriptionDTO is returned after a successful subscribe.
type SubscriptionDTO struct {
	ID       uuid.UUID `json:"id"`
	Endpoint string    `json:"endpoint"`
}

// Service manages the device subscriptions that stand in for notification permission.
type Service interface {
	Subscribe(ctx context.Context, userID uuid.UUID, req SubscribeRequest) (*SubscriptionDTO, error)
	Unsubscribe(ctx context.Context, userID uuid.UUID, endpoint string) error
	VAPIDPublicKey() string
}

type service struct {
	repo      Repository
	publicKey string
}

// NewService wires subscription dependencies.
func NewService(repo Repository, vapidPublicKey string) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "subscriptions repository required")
	}
	return &service{repo: repo, publicKey: vapidPublicKey}, nil
}

func (s *service) Subscribe(ctx context.Context, userID uuid.UUID, req SubscribeRequest) (*SubscriptionDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	endpoint := strings.TrimSpace(req.Endpoint)
	if !strings.HasPrefix(endpoint, "https://") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "endpoint must use https")
	}
	sub := &models.PushSubscription{
		UserID:   userID,
		Endpoint: endpoint,
		P256dh:   strings.TrimSpace(req.Keys.P256dh),
		Auth:     strings.TrimSpace(req.Keys.Auth),
	}
	if err := s.repo.Upsert(ctx, sub); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save push subscription")
	}
	return &SubscriptionDTO{ID: sub.ID, Endpoint: sub.Endpoint}, nil
}

func (s *service) Unsubscribe(ctx context.Context, userID uuid.UUID, endpoint string) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	removed, err := s.repo.DeleteByEndpoint(ctx, userID, endpoint)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete push subscription")
	}
	if !removed {
		return pkgerrors.NotFound("subscription")
	}
	return nil
}

func (s *service) VAPIDPublicKey() string {
	return s.publicKey
}

package notifications

import (
	"context"

	"github.com/Dutta2005/Medi-Track/pkg/enums"
	"github.com/google/uuid"
)

// Message is the device notification rendered by the service worker.
type Message struct {
	Title     string          `json:"title"`
	Body      string          `json:"body"`
	Tag       string          `json:"tag,omitempty"`
	URL       string          `json:"url,omitempty"`
	Kind      enums.AlertType `json:"kind"`
	ProductID uuid.UUID       `json:"productId"`
}

// Notifier delivers a message to every device of a user. A user without
// devices is not an error.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, msg Message) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, userID uuid.UUID, msg Message) error

func (f NotifierFunc) Notify(ctx context.Context, userID uuid.UUID, msg Message) error {
	return f(ctx, userID, msg)
}

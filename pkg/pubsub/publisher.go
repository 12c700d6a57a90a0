package pubsub

import (
	"context"
	"errors"

	pubsub "cloud.google.com/go/pubsub/v2"
)

// TopicPublisher publishes a message and waits for the server-assigned id.
type TopicPublisher struct {
	pub *pubsub.Publisher
}

// NewTopicPublisher wraps an existing publisher handle.
func NewTopicPublisher(pub *pubsub.Publisher) *TopicPublisher {
	return &TopicPublisher{pub: pub}
}

// Publish sends data with attributes and blocks until the message is acknowledged by Pub/Sub.
func (p *TopicPublisher) Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error) {
	if p == nil || p.pub == nil {
		return "", errors.New("pubsub publisher not initialized")
	}
	res := p.pub.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	return res.Get(ctx)
}

// Stop flushes pending messages.
func (p *TopicPublisher) Stop() {
	if p == nil || p.pub == nil {
		return
	}
	p.pub.Stop()
}

package messaging

import "context"

// Broker publishes and subscribes to domain events. The API server only
// publishes (through the outbox); downstream consumers subscribe.
type Broker interface {
	Publish(ctx context.Context, topic string, message interface{}) error
	Subscribe(ctx context.Context, topic string) (<-chan []byte, error)
	Close() error
}

package interfaces

import "context"

const (
	TopicTransactionCreated       = "transaction.created"
	TopicTransactionStatusChanged = "transaction.status.changed"
	TopicCatalogGameChanged       = "catalog.game.changed"
)

// EventPublisher delivers domain events to the configured bus.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
	Close() error
}

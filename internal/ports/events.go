package ports

import "context"

// EventPublisher is the outbound guard-event publish port.
// The application uses this abstraction to keep broker/client concerns in adapters.
// PartitionKey preserves per-principal ordering on partitioned brokers.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error
}

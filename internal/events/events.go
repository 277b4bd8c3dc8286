// Package events connects the gateway to Kafka: placed orders go out, cart
// invalidations from the backend come in.
package events

import (
	"context"

	"github.com/segmentio/kafka-go"
)

const (
	OrdersTopic        = "storefront-orders"
	InvalidationsTopic = "cart-invalidations"
	ConsumerGroup      = "storefront-gateway"

	EventOrderPlaced = "order.placed"
	eventTypeHeader  = "event_type"
)

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// MessageReader is satisfied by *kafka.Reader.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

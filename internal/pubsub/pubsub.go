package pubsub

import (
	"context"
)

// Metadata keys set by the dialog outbox.
const (
	MetaTurnID   = "turn_id"
	MetaHop      = "hop"
	MetaProducer = "producer"
)

// Message is the structure passed between components on the outbox bus.
// It is intentionally simple to act as a wrapper for raw data.
type Message struct {
	// Topic identifies the channel the message belongs to (e.g., "sys_utterance").
	Topic string
	// UserID identifies the session the message belongs to.
	UserID string
	// Payload contains the JSON encoded topic value.
	Payload []byte
	// Metadata carries context such as the turn ID and the producing handler.
	Metadata map[string]string
}

// Handler defines the function signature for processing a received message.
type Handler func(ctx context.Context, msg Message) error

// Publisher defines the contract for sending messages to the Pub/Sub system.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber defines the contract for receiving messages from the Pub/Sub system.
type Subscriber interface {
	// Subscribe starts listening to the given topic, processing messages with the handler.
	// It returns once the subscription is active; messages are handled until ctx is canceled
	// or the subscriber is closed.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}

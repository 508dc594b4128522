package pubsub

import (
	"encoding/json"
	"fmt"
)

// Encode marshals a topic value into a message payload.
func Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return data, nil
}

// Decode unmarshals the payload of msg into T.
func Decode[T any](msg Message) (T, error) {
	var v T
	if err := json.Unmarshal(msg.Payload, &v); err != nil {
		return v, fmt.Errorf("failed to decode payload of topic %s: %w", msg.Topic, err)
	}
	return v, nil
}

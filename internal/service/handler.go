package service

import (
	"context"
	"slices"
)

// Inputs holds the values of a handler's consumed topics, keyed by topic.
type Inputs map[string]any

// Outputs holds the values a handler publishes, keyed by topic. Topics that
// are absent from the map are not published.
type Outputs map[string]any

// HandlerFunc is the signature of every handler. Outputs may only use topics
// declared with Produces; any other key is dropped and reported as
// dialog.ErrUndeclaredTopic in the turn's errors, while the declared outputs
// of the same call are still published.
type HandlerFunc func(ctx context.Context, userID string, in Inputs) (Outputs, error)

// Handler is a registered handler together with its topic declarations.
type Handler struct {
	Name     string
	Service  string
	Consumes []string
	Produces []string
	Fn       HandlerFunc
}

// QualifiedName returns "service.handler".
func (h Handler) QualifiedName() string {
	return h.Service + "." + h.Name
}

// ConsumesTopic reports whether the handler subscribes to topic.
func (h Handler) ConsumesTopic(topic string) bool {
	return slices.Contains(h.Consumes, topic)
}

// ProducesTopic reports whether the handler declared topic as an output.
func (h Handler) ProducesTopic(topic string) bool {
	return slices.Contains(h.Produces, topic)
}

// Get returns the value of topic converted to T. A missing topic or a value
// of another type reports false.
func Get[T any](in Inputs, topic string) (T, bool) {
	var zero T
	raw, ok := in[topic]
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// String returns the value of topic as a string, or "" when absent or not a string.
func (in Inputs) String(topic string) string {
	s, _ := Get[string](in, topic)
	return s
}

// Topics returns the topics present in the inputs, sorted.
func (in Inputs) Topics() []string {
	topics := make([]string, 0, len(in))
	for t := range in {
		topics = append(topics, t)
	}
	slices.Sort(topics)
	return topics
}

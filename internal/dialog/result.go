package dialog

import (
	"sort"
	"time"
)

// Seed is the set of (topic, value) pairs that starts a turn.
type Seed map[string]any

// topics returns the seed topics in the order they are enqueued.
func (s Seed) topics() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Emission is a message published by a handler during a turn.
type Emission struct {
	Topic    string `json:"topic"`
	Value    any    `json:"value"`
	Hop      int    `json:"hop"`
	Producer string `json:"producer"`
}

// Invocation records one handler call.
type Invocation struct {
	Handler string `json:"handler"`
	Trigger string `json:"trigger"`
	Hop     int    `json:"hop"`
	Error   string `json:"error,omitempty"`
}

// TurnResult describes a finished turn. It is returned even when the turn failed.
type TurnResult struct {
	TurnID      string          `json:"turn_id"`
	UserID      string          `json:"user_id"`
	Values      map[string]any  `json:"values"`
	Emitted     []Emission      `json:"emitted"`
	Invocations []Invocation    `json:"invocations"`
	Errors      []*HandlerError `json:"-"`
	Fallback    bool            `json:"fallback"`
	EndDialog   bool            `json:"end_dialog"`
	Duration    time.Duration   `json:"duration"`
}

// Value returns the latest value of topic in this turn.
func (r *TurnResult) Value(topic string) (any, bool) {
	v, ok := r.Values[topic]
	return v, ok
}

// EmittedTopics returns the topics of all emissions in order.
func (r *TurnResult) EmittedTopics() []string {
	topics := make([]string, 0, len(r.Emitted))
	for _, e := range r.Emitted {
		topics = append(topics, e.Topic)
	}
	return topics
}

package dialog

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/metrics"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/pubsub"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/sessionstore"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/topicmgr"
)

const (
	// DefaultMaxHops bounds the length of a propagation chain within one turn.
	DefaultMaxHops = 32

	// DefaultEndTopic signals the end of a conversation when published with a true value.
	DefaultEndTopic = "sys_end_dialog"

	// systemNamespace holds the orchestrator's own per-session markers.
	systemNamespace = "dialog_system"

	startedKey = "started"
)

// Option is a function that configures a System.
type Option func(*System)

// WithStore uses an existing session store. The system still shuts it down on Shutdown.
func WithStore(store *sessionstore.Store) Option {
	return func(s *System) {
		if store != nil {
			s.store = store
		}
	}
}

// WithTopics sets the topic catalogue consulted by the validator.
func WithTopics(topics *topicmgr.Manager) Option {
	return func(s *System) {
		if topics != nil {
			s.topics = topics
		}
	}
}

// WithPublisher sets the outbox every emitted message is published to.
func WithPublisher(p pubsub.Publisher) Option {
	return func(s *System) {
		s.publisher = p
	}
}

// WithTracer sets the tracer for turn and handler spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *System) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithMetrics sets the Prometheus instruments.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *System) {
		s.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *System) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxHops sets the propagation hop budget.
func WithMaxHops(n int) Option {
	return func(s *System) {
		if n > 0 {
			s.maxHops = n
		}
	}
}

// WithTurnTimeout sets the wall-clock budget of a turn. Zero disables it.
func WithTurnTimeout(d time.Duration) Option {
	return func(s *System) {
		s.turnTimeout = d
	}
}

// WithFallback publishes value on topic when a failed turn did not emit topic itself.
func WithFallback(topic string, value any) Option {
	return func(s *System) {
		s.fallbackTopic = topic
		s.fallbackValue = value
	}
}

// WithEndTopic sets the topic that ends a scripted dialog.
func WithEndTopic(topic string) Option {
	return func(s *System) {
		if topic != "" {
			s.endTopic = topic
		}
	}
}

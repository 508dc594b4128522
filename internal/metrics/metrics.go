package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Turn outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics groups all Prometheus instruments used by the dialog system.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Turns                 *prometheus.CounterVec
	TurnDuration          prometheus.Histogram
	ActiveTurns           prometheus.Gauge
	HandlerInvocations    *prometheus.CounterVec
	HandlerDuration       *prometheus.HistogramVec
	MessagesPublished     *prometheus.CounterVec
	StateEntriesReclaimed *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the instruments on a fresh registry.
func New(namespace string) *Metrics {
	return NewWithRegistry(namespace, prometheus.NewRegistry())
}

// NewWithRegistry registers the instruments on reg.
func NewWithRegistry(namespace string, reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Turns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Dialog turns by outcome.",
		}, []string{"outcome"}),
		TurnDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Wall-clock duration of a turn's propagation.",
			Buckets:   prometheus.DefBuckets,
		}),
		ActiveTurns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_turns",
			Help:      "Number of turns currently propagating.",
		}),
		HandlerInvocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_invocations_total",
			Help:      "Handler invocations by handler and outcome.",
		}, []string{"handler", "outcome"}),
		HandlerDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handler_duration_seconds",
			Help:      "Handler execution time.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"handler"}),
		MessagesPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_published_total",
			Help:      "Messages emitted on the bus by topic.",
		}, []string{"topic"}),
		StateEntriesReclaimed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_entries_reclaimed_total",
			Help:      "Session state entries evicted by the reclaimer, by namespace.",
		}, []string{"namespace"}),
		gatherer: reg,
	}
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}

// TurnStarted marks a turn as in flight.
func (m *Metrics) TurnStarted() {
	if m == nil {
		return
	}
	m.ActiveTurns.Inc()
}

// TurnFinished records a completed turn.
func (m *Metrics) TurnFinished(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.ActiveTurns.Dec()
	m.Turns.WithLabelValues(outcome(err)).Inc()
	m.TurnDuration.Observe(d.Seconds())
}

// ObserveHandler records one handler invocation.
func (m *Metrics) ObserveHandler(handler string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.HandlerInvocations.WithLabelValues(handler, outcome(err)).Inc()
	m.HandlerDuration.WithLabelValues(handler).Observe(d.Seconds())
}

// MessagePublished counts a message emitted on topic.
func (m *Metrics) MessagePublished(topic string) {
	if m == nil {
		return
	}
	m.MessagesPublished.WithLabelValues(topic).Inc()
}

// Reclaimed counts evicted state entries. Its signature matches the session store's reclaim hook.
func (m *Metrics) Reclaimed(namespace string, removed int) {
	if m == nil {
		return
	}
	m.StateEntriesReclaimed.WithLabelValues(namespace).Add(float64(removed))
}

// Handler serves the registry the instruments were registered on.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

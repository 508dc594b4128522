package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/pubsub"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/service"
)

// pending is a message waiting in the turn queue.
type pending struct {
	topic string
	value any
	hop   int
}

// propagate runs the turn queue until it is empty. Each dequeued message
// becomes live, then every subscriber whose consumed topics are all live runs
// once, in registration order. The returned error aborts the turn; handler
// failures are collected in res instead.
func (s *System) propagate(ctx context.Context, userID string, seed Seed, res *TurnResult, logger *slog.Logger) error {
	queue := make([]pending, 0, len(seed))
	for _, topic := range seed.topics() {
		queue = append(queue, pending{topic: topic, value: seed[topic]})
	}

	for len(queue) > 0 {
		msg := queue[0]
		queue = queue[1:]
		res.Values[msg.topic] = msg.value

		for _, h := range s.graph.Subscribers(msg.topic) {
			in, ready := inputs(h, res.Values)
			if !ready {
				continue
			}
			if msg.hop >= s.maxHops {
				logger.Error("Hop limit exceeded", "topic", msg.topic, "handler", h.QualifiedName(), "hops", msg.hop)
				return fmt.Errorf("%w: topic %s would trigger %s at hop %d", ErrHopLimitExceeded, msg.topic, h.QualifiedName(), msg.hop)
			}
			if err := ctx.Err(); err != nil {
				if errors.Is(err, context.DeadlineExceeded) && s.turnTimeout > 0 {
					return fmt.Errorf("%w after %s", ErrTurnTimeout, s.turnTimeout)
				}
				return err
			}

			out, err := s.invoke(ctx, h, userID, msg, in)
			inv := Invocation{Handler: h.QualifiedName(), Trigger: msg.topic, Hop: msg.hop}
			if err != nil {
				inv.Error = err.Error()
				s.fail(res, h, userID, msg.topic, err, logger)
			}
			res.Invocations = append(res.Invocations, inv)
			if err != nil {
				continue
			}

			for _, topic := range h.Produces {
				value, ok := out[topic]
				if !ok {
					continue
				}
				emission := Emission{Topic: topic, Value: value, Hop: msg.hop + 1, Producer: h.QualifiedName()}
				res.Emitted = append(res.Emitted, emission)
				queue = append(queue, pending{topic: topic, value: value, hop: msg.hop + 1})
				s.publish(ctx, res, emission, logger)
			}

			for _, topic := range undeclared(h, out) {
				s.fail(res, h, userID, msg.topic, fmt.Errorf("%w: %s", ErrUndeclaredTopic, topic), logger)
			}
		}
	}
	return nil
}

// inputs collects the consumed topic values of h. It reports false while any is missing.
func inputs(h service.Handler, live map[string]any) (service.Inputs, bool) {
	in := make(service.Inputs, len(h.Consumes))
	for _, topic := range h.Consumes {
		v, ok := live[topic]
		if !ok {
			return nil, false
		}
		in[topic] = v
	}
	return in, true
}

func undeclared(h service.Handler, out service.Outputs) []string {
	var topics []string
	for topic := range out {
		if !h.ProducesTopic(topic) {
			topics = append(topics, topic)
		}
	}
	sort.Strings(topics)
	return topics
}

func (s *System) invoke(ctx context.Context, h service.Handler, userID string, msg pending, in service.Inputs) (out service.Outputs, err error) {
	ctx, span := s.tracer.Start(ctx, "dialog.handler "+h.QualifiedName(), trace.WithAttributes(
		attribute.String("dialog.handler", h.QualifiedName()),
		attribute.String("dialog.trigger", msg.topic),
		attribute.Int("dialog.hop", msg.hop),
	))
	began := time.Now()

	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		s.metrics.ObserveHandler(h.QualifiedName(), time.Since(began), err)
	}()

	return h.Fn(ctx, userID, in)
}

func (s *System) fail(res *TurnResult, h service.Handler, userID, topic string, err error, logger *slog.Logger) {
	res.Errors = append(res.Errors, &HandlerError{UserID: userID, Topic: topic, Handler: h.QualifiedName(), Err: err})
	logger.Error("Handler failed", "topic", topic, "handler", h.QualifiedName(), "error", err)
}

// publish forwards an emission to the outbox. Outbox failures are logged and do not fail the turn.
func (s *System) publish(ctx context.Context, res *TurnResult, e Emission, logger *slog.Logger) {
	s.metrics.MessagePublished(e.Topic)
	if s.publisher == nil {
		return
	}

	payload, err := pubsub.Encode(e.Value)
	if err != nil {
		logger.Warn("Failed to encode outbox message", "topic", e.Topic, "error", err)
		return
	}

	err = s.publisher.Publish(ctx, pubsub.Message{
		Topic:   e.Topic,
		UserID:  res.UserID,
		Payload: payload,
		Metadata: map[string]string{
			pubsub.MetaTurnID:   res.TurnID,
			pubsub.MetaHop:      strconv.Itoa(e.Hop),
			pubsub.MetaProducer: e.Producer,
		},
	})
	if err != nil {
		logger.Warn("Failed to publish outbox message", "topic", e.Topic, "error", err)
	}
}

package pubsub

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const payloadPreviewLimit = 100

// TracingMiddleware creates a watermill middleware that records one span per
// processed outbox message, linked to the turn that emitted it.
func TracingMiddleware(tracer trace.Tracer) func(message.HandlerFunc) message.HandlerFunc {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			span := startSpan(tracer, "process", msg.Metadata.Get(metaKeyTopic), msg)
			defer span.End()

			produced, err := h(msg)
			if err != nil {
				fail(span, err)
				return nil, err
			}
			span.SetAttributes(attribute.Int("messaging.messages_produced", len(produced)))
			return produced, nil
		}
	}
}

// tracingPublisher records a publish span for every message it forwards.
type tracingPublisher struct {
	publisher message.Publisher
	tracer    trace.Tracer
}

func newTracingPublisher(publisher message.Publisher, tracer trace.Tracer) *tracingPublisher {
	return &tracingPublisher{publisher: publisher, tracer: tracer}
}

func (p *tracingPublisher) Publish(topic string, messages ...*message.Message) error {
	spans := make([]trace.Span, 0, len(messages))
	for _, msg := range messages {
		spans = append(spans, startSpan(p.tracer, "publish", topic, msg))
	}

	err := p.publisher.Publish(topic, messages...)
	for _, span := range spans {
		if err != nil {
			fail(span, err)
		}
		span.End()
	}
	return err
}

func (p *tracingPublisher) Close() error {
	return p.publisher.Close()
}

// startSpan opens a messaging span for msg and stores it in the message context.
func startSpan(tracer trace.Tracer, operation, topic string, msg *message.Message) trace.Span {
	ctx := msg.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	spanCtx, span := tracer.Start(ctx, "pubsub."+operation+"."+topic,
		trace.WithAttributes(
			attribute.String("messaging.system", "watermill"),
			attribute.String("messaging.operation", operation),
			attribute.String("messaging.destination", topic),
			attribute.String("messaging.message_id", msg.UUID),
			attribute.Int("messaging.message_payload_size_bytes", len(msg.Payload)),
		),
	)
	span.SetAttributes(dialogAttributes(msg)...)
	msg.SetContext(spanCtx)
	return span
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// dialogAttributes describes the session, turn and producer of an outbox message.
func dialogAttributes(msg *message.Message) []attribute.KeyValue {
	preview := string(msg.Payload)
	if len(preview) > payloadPreviewLimit {
		preview = preview[:payloadPreviewLimit] + "..."
	}
	return []attribute.KeyValue{
		attribute.String("dialog.user_id", msg.Metadata.Get(metaKeyUserID)),
		attribute.String("dialog.turn_id", msg.Metadata.Get(MetaTurnID)),
		attribute.String("dialog.producer", msg.Metadata.Get(MetaProducer)),
		attribute.String("messaging.message_payload_preview", preview),
	}
}

package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IgorGrieder/tempqr/internal/events"
	"github.com/IgorGrieder/tempqr/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// ResolutionPublisher emits a LinkResolved event per resolution, keyed by
// fingerprint so one identifier's events stay on one partition.
type ResolutionPublisher struct {
	writer       MessageWriter
	topic        string
	writeTimeout time.Duration
}

func NewWriter(brokers []string, topic string) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.LeastBytes{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

func NewResolutionPublisher(writer MessageWriter, topic string, writeTimeout time.Duration) *ResolutionPublisher {
	if writeTimeout <= 0 {
		writeTimeout = 2 * time.Second
	}
	return &ResolutionPublisher{
		writer:       writer,
		topic:        topic,
		writeTimeout: writeTimeout,
	}
}

func (p *ResolutionPublisher) PublishResolved(ctx context.Context, fingerprint string, at time.Time) error {
	event := events.LinkResolved{
		EventID:     uuid.NewString(),
		Fingerprint: fingerprint,
		OccurredAt:  at.UTC().Format(time.RFC3339Nano),
	}
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, span := telemetry.Tracer().Start(ctx,
		"kafka.publish.link_resolved",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", p.topic),
			attribute.String("messaging.operation", "publish"),
			attribute.String("messaging.message.id", event.EventID),
		),
	)
	defer span.End()

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	writeCtx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()

	err = p.writer.WriteMessages(writeCtx, kafkago.Message{
		Key:     []byte(fingerprint),
		Value:   value,
		Time:    at.UTC(),
		Headers: carrierToHeaders(carrier),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "kafka publish failed")
		return err
	}
	return nil
}

func (p *ResolutionPublisher) Close() error {
	return p.writer.Close()
}

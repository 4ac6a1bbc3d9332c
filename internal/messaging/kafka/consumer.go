package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/IgorGrieder/tempqr/internal/events"
	"github.com/IgorGrieder/tempqr/internal/infrastructure/logger"
	"github.com/IgorGrieder/tempqr/internal/infrastructure/metrics"
	"github.com/IgorGrieder/tempqr/internal/infrastructure/telemetry"
	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// EventProcessor applies one resolution event. It reports whether the
// event id had already been applied.
type EventProcessor interface {
	Process(ctx context.Context, eventID, fingerprint string, occurredAt time.Time) (bool, error)
}

type ConsumerOptions struct {
	OperationTimeout time.Duration
	Backoff          time.Duration
}

// Consumer folds LinkResolved events into the daily counters. Offsets are
// committed only after an event was applied or deliberately skipped.
type Consumer struct {
	reader    MessageReader
	processor EventProcessor
	opTTL     time.Duration
	backoff   time.Duration
}

func NewReader(brokers []string, topic, groupID string, maxWait time.Duration) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     maxWait,
		StartOffset: kafkago.FirstOffset,
	})
}

func NewConsumer(reader MessageReader, processor EventProcessor, opts ConsumerOptions) *Consumer {
	if opts.OperationTimeout <= 0 {
		opts.OperationTimeout = 5 * time.Second
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 500 * time.Millisecond
	}
	return &Consumer{
		reader:    reader,
		processor: processor,
		opTTL:     opts.OperationTimeout,
		backoff:   opts.Backoff,
	}
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			logger.Error("failed to fetch kafka message", zap.Error(err))
			if !sleep(ctx, c.backoff) {
				return nil
			}
			continue
		}

		if !c.consume(ctx, msg) && !sleep(ctx, c.backoff) {
			return nil
		}
	}
}

func (c *Consumer) consume(ctx context.Context, msg kafkago.Message) bool {
	consumeCtx := ContextFromHeaders(ctx, msg.Headers)
	consumeCtx, span := telemetry.Tracer().Start(
		consumeCtx,
		"kafka.consume.link_resolved",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", msg.Topic),
			attribute.String("messaging.operation", "process"),
			attribute.Int("messaging.kafka.partition", msg.Partition),
			attribute.Int64("messaging.kafka.offset", msg.Offset),
		),
	)
	defer span.End()

	fields := []zap.Field{
		zap.String("topic", msg.Topic),
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
	}

	result, err := c.handle(consumeCtx, msg)
	metrics.ResolutionEventsConsumed.WithLabelValues(result).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "process resolution event failed")
		logger.Error("failed to process resolution event", append(fields, zap.Error(err))...)
		return false
	}

	if err := c.reader.CommitMessages(consumeCtx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit kafka offset failed")
		logger.Error("failed to commit kafka offset", append(fields, zap.Error(err))...)
		return false
	}
	return true
}

const (
	resultApplied   = "applied"
	resultDuplicate = "duplicate"
	resultSkipped   = "skipped"
	resultError     = "error"
)

func (c *Consumer) handle(ctx context.Context, msg kafkago.Message) (string, error) {
	var event events.LinkResolved
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		logger.Warn("invalid resolution event payload, skipping", zap.Error(err))
		return resultSkipped, nil
	}
	if strings.TrimSpace(event.Fingerprint) == "" || strings.TrimSpace(event.EventID) == "" {
		logger.Warn("resolution event missing fields, skipping", zap.String("event_id", event.EventID))
		return resultSkipped, nil
	}

	occurredAt := msg.Time.UTC()
	if strings.TrimSpace(event.OccurredAt) != "" {
		parsed, err := time.Parse(time.RFC3339Nano, event.OccurredAt)
		if err != nil {
			logger.Warn("invalid event occurredAt, using kafka timestamp",
				zap.Error(err),
				zap.String("event_id", event.EventID),
			)
		} else {
			occurredAt = parsed.UTC()
		}
	}

	opCtx, cancel := context.WithTimeout(ctx, c.opTTL)
	defer cancel()

	dup, err := c.processor.Process(opCtx, event.EventID, event.Fingerprint, occurredAt)
	switch {
	case err != nil:
		return resultError, err
	case dup:
		return resultDuplicate, nil
	default:
		return resultApplied, nil
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

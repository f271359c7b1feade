package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cargo-logistics-service/internal/domain"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Writer is the subset of kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes domain events as JSON to one topic. The event key
// (shipment or invoice id) keeps events of one aggregate on one partition.
type KafkaPublisher struct {
	writer Writer
}

func NewKafkaPublisher(broker, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		// Events are best effort: one try, and no waiting for a batch to fill.
		MaxAttempts:  1,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 2 * time.Second,
	}}
}

// NewKafkaPublisherWithWriter allows injecting a test writer.
func NewKafkaPublisherWithWriter(w Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e domain.Event) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("publish %s: marshal: %w", e.Type, err)
	}

	msg := kafka.Message{
		Key:     []byte(e.Key),
		Value:   b,
		Headers: []kafka.Header{{Key: "type", Value: []byte(e.Type)}},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: kafka write: %w", e.Type, err)
	}
	zap.L().Debug("event published", zap.String("type", e.Type), zap.String("key", e.Key))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher discards events. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, e domain.Event) error {
	zap.L().Debug("event dropped, no broker configured", zap.String("type", e.Type), zap.String("key", e.Key))
	return nil
}

func (NoopPublisher) Close() error { return nil }

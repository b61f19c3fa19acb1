package event

import (
	"context"
	"encoding/json"
	"time"

	"lokapasar-be/internal/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher delivers engine events to the notification side. Publishing
// happens after the owning transaction commits, never inside it; a
// delivery failure therefore must not fail the business operation.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

type kafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher builds a Publisher over a kafka.Writer.
func NewKafkaPublisher(brokers []string, topic string) Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		Compression:  kafka.Snappy,
	}

	return &kafkaPublisher{writer: writer}
}

func (p *kafkaPublisher) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(Envelope{
			Type:       e.EventType(),
			OccurredAt: time.Now().UTC(),
			Payload:    e,
		})
		if err != nil {
			return err
		}

		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.Key()),
			Value: value,
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		logger.FromCtx(ctx).Error("failed to publish events",
			zap.Int("count", len(msgs)),
			zap.Error(err),
		)
		return err
	}

	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event. Used in tests and when no broker is
// configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, events ...Event) error { return nil }
func (NopPublisher) Close() error                                       { return nil }

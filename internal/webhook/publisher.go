package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"affiliate/internal/outbox"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is the part of *kafka.Writer the publisher needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher emits partner lifecycle events keyed by partner id, so one
// partner's events stay ordered within a partition.
type KafkaPublisher struct {
	writer MessageWriter
	topic  string
	log    *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	return NewPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.Hash{},
	}, topic, log), nil
}

func NewPublisher(writer MessageWriter, topic string, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, topic: topic, log: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event outbox.WebhookPayload) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: encode %s event: %v", outbox.ErrPermanent, event.Event, err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.Partner.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(event.Event)},
			{Key: "workspace_id", Value: []byte(event.WorkspaceID)},
		},
		Time: time.Now().UTC(),
	})
	if err != nil {
		p.log.Error("failed to publish partner event",
			zap.String("event", event.Event),
			zap.String("partner_id", event.Partner.ID),
			zap.Error(err))
		return fmt.Errorf("publish %s: %w", event.Event, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops events. Used when no broker is configured.
type NopPublisher struct {
	log *zap.Logger
}

func NewNopPublisher(log *zap.Logger) NopPublisher {
	return NopPublisher{log: log}
}

func (n NopPublisher) Publish(_ context.Context, event outbox.WebhookPayload) error {
	n.log.Debug("kafka not configured, partner event dropped", zap.String("event", event.Event))
	return nil
}

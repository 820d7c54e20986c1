// Package events announces completed orders to downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"julianmorley.ca/con-plar/storefront/pkg/models"
)

const EventOrderCompleted = "order.completed"

type Publisher interface {
	OrderCompleted(ctx context.Context, receipt models.Receipt) error
	Close() error
}

// OrderCompletedEvent is the message body written for every checkout.
type OrderCompletedEvent struct {
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Receipt    models.Receipt `json:"receipt"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(topic string, brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           5 * time.Second,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) OrderCompleted(ctx context.Context, receipt models.Receipt) error {
	msg, err := orderCompletedMessage(receipt)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s for %s: %w", EventOrderCompleted, receipt.OrderID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// orderCompletedMessage keys by order ID so every event for an order lands
// on the same partition.
func orderCompletedMessage(receipt models.Receipt) (kafka.Message, error) {
	body, err := json.Marshal(OrderCompletedEvent{
		Type:       EventOrderCompleted,
		OccurredAt: receipt.Timestamp,
		Receipt:    receipt,
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal event failed: %w", err)
	}
	return kafka.Message{
		Key:   []byte(receipt.OrderID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(EventOrderCompleted)},
		},
	}, nil
}

// Noop drops every event. Used when no brokers are configured.
type Noop struct{}

func (Noop) OrderCompleted(context.Context, models.Receipt) error { return nil }
func (Noop) Close() error                                        { return nil }

// Package events publishes domain events for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/anonto42/nano-midea/social/internal/models"
	kafkago "github.com/segmentio/kafka-go"
)

// NotificationCreatedType tags the event emitted for every persisted notification.
const NotificationCreatedType = "notification.created"

// NotificationEvent is the message value written to the notifications topic.
type NotificationEvent struct {
	Type         string              `json:"type"`
	Notification models.Notification `json:"notification"`
}

// Publisher emits notification events.
type Publisher interface {
	PublishNotifications(ctx context.Context, notifications ...models.Notification) error
	Close() error
}

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
	}}
}

// PublishNotifications writes one message per notification, keyed by receiver
// so every receiver's events stay ordered within a partition.
func (p *KafkaPublisher) PublishNotifications(ctx context.Context, notifications ...models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	msgs := make([]kafkago.Message, 0, len(notifications))
	for _, n := range notifications {
		value, err := json.Marshal(NotificationEvent{Type: NotificationCreatedType, Notification: n})
		if err != nil {
			return fmt.Errorf("encode notification %s: %w", n.ID, err)
		}
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(strconv.FormatUint(uint64(n.ReceiverID), 10)),
			Value: value,
			Time:  n.CreatedAt,
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d notification events: %w", len(msgs), err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Nop drops every event; used when no brokers are configured.
type Nop struct{}

func (Nop) PublishNotifications(context.Context, ...models.Notification) error { return nil }
func (Nop) Close() error                                                      { return nil }

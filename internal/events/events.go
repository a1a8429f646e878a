// Package events publishes domain events for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// Well-known event types.
const (
	DriverRegistered      = "driver.registered"
	DriverLocationUpdated = "driver.location_updated"
	CarSaved              = "car.saved"
)

// Event is the envelope written to the topic.
type Event struct {
	Type       string    `json:"type"`
	CompanyID  string    `json:"company_id"`
	DriverID   string    `json:"driver_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// KafkaPublisher writes every event to one topic, keyed by driver so a
// driver's events stay ordered within a partition.
type KafkaPublisher struct {
	w *kafkago.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafkago.Writer{
			Addr:                   kafkago.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafkago.Hash{},
			BatchTimeout:           50 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	msg, err := newMessage(ev)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

func newMessage(ev Event) (kafkago.Message, error) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, err
	}
	key := ev.DriverID
	if key == "" {
		key = ev.CompanyID
	}
	return kafkago.Message{
		Key:     []byte(key),
		Value:   data,
		Headers: []kafkago.Header{{Key: "event-type", Value: []byte(ev.Type)}},
	}, nil
}

// Nop drops every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Package kafka publishes profiling events to a Kafka topic. Events are
// keyed by session id so all events for one candidate land on the same
// partition in order.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/quietgrove/dossier/pkg/eventstream"
)

// Publisher implements eventstream.Publisher on top of a Kafka writer.
type Publisher struct {
	writer *kafkago.Writer
}

// NewPublisher creates a Publisher writing to the given brokers and topic.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkago.Hash{},
			RequiredAcks: kafkago.RequireOne,
		},
	}
}

// PublishObservation writes an observation-persisted event.
func (p *Publisher) PublishObservation(ctx context.Context, event *eventstream.ObservationPersistedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	return p.publish(ctx, event.SessionID, event)
}

// PublishDeadLetter writes a task-dead-lettered event.
func (p *Publisher) PublishDeadLetter(ctx context.Context, event *eventstream.TaskDeadLetteredEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	return p.publish(ctx, event.SessionID, event)
}

func (p *Publisher) publish(ctx context.Context, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(key),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

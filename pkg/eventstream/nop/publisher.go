package nop

import (
	"context"

	"github.com/quietgrove/dossier/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishObservation validates input and otherwise does nothing.
func (p *Publisher) PublishObservation(_ context.Context, event *eventstream.ObservationPersistedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	return nil
}

// PublishDeadLetter validates input and otherwise does nothing.
func (p *Publisher) PublishDeadLetter(_ context.Context, event *eventstream.TaskDeadLetteredEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}

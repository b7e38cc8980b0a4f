package eventstream

import "context"

// Publisher publishes profiling events to an event stream backend.
type Publisher interface {
	PublishObservation(ctx context.Context, event *ObservationPersistedEvent) error
	PublishDeadLetter(ctx context.Context, event *TaskDeadLetteredEvent) error
	Close() error
}

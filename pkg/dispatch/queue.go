package dispatch

import (
	"context"
	"errors"
)

// ErrQueueClosed indicates the queue has been closed and no further
// tasks will be delivered.
var ErrQueueClosed = errors.New("queue closed")

// ErrQueueFull indicates the queue rejected an enqueue because it is at
// capacity.
var ErrQueueFull = errors.New("queue full")

// AckFunc acknowledges a delivered task, removing it from the backend's
// in-flight set. Acking is deferred until the task reaches a terminal
// state so that a crashed worker's tasks are redelivered.
type AckFunc func(ctx context.Context) error

// Queue is the interface task queue backends implement.
type Queue interface {
	// Enqueue adds a task to the queue.
	Enqueue(ctx context.Context, task Task) error

	// Dequeue blocks until a task is available, the context is done, or
	// the queue is closed. The returned AckFunc must be called once the
	// task reaches a terminal state.
	Dequeue(ctx context.Context) (Task, AckFunc, error)

	// Close releases backend resources. Blocked Dequeue calls return
	// ErrQueueClosed.
	Close() error
}

// Package memory provides a channel-backed dispatch.Queue used for tests
// and single-process development runs. Tasks live in process memory only,
// so acks are no-ops and anything in flight is lost on restart.
package memory

import (
	"context"
	"sync"

	"github.com/quietgrove/dossier/pkg/dispatch"
)

// DefaultCapacity is the buffer size used when NewQueue is given a
// non-positive capacity.
const DefaultCapacity = 256

// Queue implements dispatch.Queue on a buffered channel.
type Queue struct {
	mu     sync.Mutex
	tasks  chan dispatch.Task
	closed bool
}

// NewQueue creates a queue holding at most capacity tasks.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Queue{tasks: make(chan dispatch.Task, capacity)}
}

// Enqueue adds a task. It returns dispatch.ErrQueueFull rather than
// blocking when the buffer is at capacity.
func (q *Queue) Enqueue(_ context.Context, task dispatch.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return dispatch.ErrQueueClosed
	}

	select {
	case q.tasks <- task:
		return nil
	default:
		return dispatch.ErrQueueFull
	}
}

// Dequeue blocks until a task is available, the context is done, or the
// queue is closed.
func (q *Queue) Dequeue(ctx context.Context) (dispatch.Task, dispatch.AckFunc, error) {
	select {
	case task, ok := <-q.tasks:
		if !ok {
			return dispatch.Task{}, nil, dispatch.ErrQueueClosed
		}
		return task, func(context.Context) error { return nil }, nil
	case <-ctx.Done():
		return dispatch.Task{}, nil, ctx.Err()
	}
}

// Len reports how many tasks are buffered. Test helper.
func (q *Queue) Len() int {
	return len(q.tasks)
}

// Close closes the queue. Pending tasks are still delivered; once drained,
// Dequeue returns dispatch.ErrQueueClosed.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	close(q.tasks)

	return nil
}

package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultWorkers is the number of concurrent workers draining the queue.
	DefaultWorkers = 4

	// DefaultMaxRetries is how many times a failed task is retried after
	// its first attempt.
	DefaultMaxRetries = 3

	// DefaultRetryBackoff is the fixed delay before a failed task is
	// requeued.
	DefaultRetryBackoff = 5 * time.Second

	// DefaultAttemptTimeout bounds a single handler invocation.
	DefaultAttemptTimeout = 30 * time.Second
)

// Handler processes one task. A nil return acknowledges the task; an
// error triggers a retry or, once retries are exhausted, dead-lettering.
type Handler func(ctx context.Context, task Task) error

// DeadLetterFunc is invoked when a task exhausts its retries. The error
// is the one returned by the final attempt.
type DeadLetterFunc func(ctx context.Context, task Task, err error)

// Dispatcher runs a worker pool over a task queue.
type Dispatcher struct {
	queue   Queue
	handler Handler
	logger  *slog.Logger

	workers        int
	maxRetries     int
	backoff        time.Duration
	attemptTimeout time.Duration
	deadLetter     DeadLetterFunc
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithWorkers sets the worker pool size.
func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithMaxRetries sets how many retries a failed task gets after its
// first attempt.
func WithMaxRetries(n int) Option {
	return func(d *Dispatcher) {
		if n >= 0 {
			d.maxRetries = n
		}
	}
}

// WithRetryBackoff sets the fixed delay before a failed task is requeued.
func WithRetryBackoff(backoff time.Duration) Option {
	return func(d *Dispatcher) {
		if backoff >= 0 {
			d.backoff = backoff
		}
	}
}

// WithAttemptTimeout bounds a single handler invocation.
func WithAttemptTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.attemptTimeout = timeout
		}
	}
}

// WithDeadLetterHook registers a callback for tasks that exhaust their
// retries.
func WithDeadLetterHook(fn DeadLetterFunc) Option {
	return func(d *Dispatcher) {
		d.deadLetter = fn
	}
}

// WithLogger sets the dispatcher's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher creates a Dispatcher draining queue with handler.
func NewDispatcher(queue Queue, handler Handler, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		queue:          queue,
		handler:        handler,
		logger:         slog.Default(),
		workers:        DefaultWorkers,
		maxRetries:     DefaultMaxRetries,
		backoff:        DefaultRetryBackoff,
		attemptTimeout: DefaultAttemptTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Run starts the worker pool and blocks until the context is cancelled
// or the queue is closed.
func (d *Dispatcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.work(ctx)
		}()
	}
	wg.Wait()
}

func (d *Dispatcher) work(ctx context.Context) {
	for {
		task, ack, err := d.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) || ctx.Err() != nil {
				return
			}
			d.logger.Warn("dequeue failed", "error", err)
			continue
		}

		d.process(ctx, task, ack)
	}
}

func (d *Dispatcher) process(ctx context.Context, task Task, ack AckFunc) {
	log := d.logger.With(
		"task", task.ID,
		"fingerprint", task.Fingerprint(),
		"session", task.SessionID,
		"attempt", task.Attempt,
	)
	log.Debug("task running", "state", StateRunning)

	attemptCtx, cancel := context.WithTimeout(ctx, d.attemptTimeout)
	err := d.handler(attemptCtx, task)
	cancel()

	if err == nil {
		log.Debug("task succeeded", "state", StateSucceeded)
		d.ack(ctx, task, ack)
		return
	}

	if task.Attempt < d.maxRetries {
		log.Warn("task failed, retrying", "state", StateRetrying, "error", err)
		if !d.wait(ctx) {
			// Shutting down before the requeue: leave the task unacked so
			// the backend redelivers it.
			return
		}

		retry := task
		retry.Attempt++
		if enqErr := d.queue.Enqueue(ctx, retry); enqErr != nil {
			log.Error("requeue failed, leaving task in flight", "error", enqErr)
			return
		}
		d.ack(ctx, task, ack)
		return
	}

	log.Error("task dead-lettered", "state", StateDeadLettered, "error", err)
	if d.deadLetter != nil {
		d.deadLetter(ctx, task, err)
	}
	d.ack(ctx, task, ack)
}

func (d *Dispatcher) wait(ctx context.Context) bool {
	if d.backoff == 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d.backoff)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (d *Dispatcher) ack(ctx context.Context, task Task, ack AckFunc) {
	if ack == nil {
		return
	}
	if err := ack(ctx); err != nil {
		d.logger.Warn("ack failed", "task", task.ID, "error", err)
	}
}

package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quietgrove/dossier/pkg/dispatch"
	"github.com/quietgrove/dossier/pkg/dispatch/memory"
)

var _ = Describe("Dispatcher", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
		queue  *memory.Queue
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
		queue = memory.NewQueue(16)
	})

	AfterEach(func() {
		cancel()
		queue.Close()
	})

	It("processes an enqueued task", func() {
		handled := make(chan dispatch.Task, 1)
		d := dispatch.NewDispatcher(queue, func(_ context.Context, task dispatch.Task) error {
			handled <- task
			return nil
		}, dispatch.WithWorkers(1), dispatch.WithRetryBackoff(0))

		go d.Run(ctx)

		task := dispatch.NewTask("session-1", "the candidate said a thing")
		Expect(queue.Enqueue(ctx, task)).To(Succeed())

		var got dispatch.Task
		Eventually(handled).Should(Receive(&got))
		Expect(got.ID).To(Equal(task.ID))
		Expect(got.SessionID).To(Equal("session-1"))
	})

	It("retries a failing task and dead-letters it after retries are exhausted", func() {
		var (
			mu       sync.Mutex
			attempts []int
		)
		dead := make(chan dispatch.Task, 1)

		d := dispatch.NewDispatcher(queue, func(_ context.Context, task dispatch.Task) error {
			mu.Lock()
			attempts = append(attempts, task.Attempt)
			mu.Unlock()
			return errors.New("oracle unreachable")
		},
			dispatch.WithWorkers(1),
			dispatch.WithRetryBackoff(0),
			dispatch.WithDeadLetterHook(func(_ context.Context, task dispatch.Task, _ error) {
				dead <- task
			}),
		)

		go d.Run(ctx)

		Expect(queue.Enqueue(ctx, dispatch.NewTask("session-1", "text"))).To(Succeed())

		var parked dispatch.Task
		Eventually(dead).Should(Receive(&parked))
		Expect(parked.Attempt).To(Equal(dispatch.DefaultMaxRetries))

		mu.Lock()
		defer mu.Unlock()
		Expect(attempts).To(Equal([]int{0, 1, 2, 3}))
	})

	It("passes the final attempt's error to the dead-letter hook", func() {
		finalErr := errors.New("still failing")
		errs := make(chan error, 1)

		d := dispatch.NewDispatcher(queue, func(_ context.Context, _ dispatch.Task) error {
			return finalErr
		},
			dispatch.WithWorkers(1),
			dispatch.WithRetryBackoff(0),
			dispatch.WithMaxRetries(0),
			dispatch.WithDeadLetterHook(func(_ context.Context, _ dispatch.Task, err error) {
				errs <- err
			}),
		)

		go d.Run(ctx)

		Expect(queue.Enqueue(ctx, dispatch.NewTask("session-1", "text"))).To(Succeed())

		var got error
		Eventually(errs).Should(Receive(&got))
		Expect(got).To(MatchError(finalErr))
	})

	It("recovers after one failed attempt when later attempts succeed", func() {
		var calls atomic.Int32
		handled := make(chan struct{}, 1)

		d := dispatch.NewDispatcher(queue, func(_ context.Context, _ dispatch.Task) error {
			if calls.Add(1) == 1 {
				return errors.New("transient")
			}
			handled <- struct{}{}
			return nil
		}, dispatch.WithWorkers(1), dispatch.WithRetryBackoff(0))

		go d.Run(ctx)

		Expect(queue.Enqueue(ctx, dispatch.NewTask("session-1", "text"))).To(Succeed())

		Eventually(handled).Should(Receive())
		Expect(calls.Load()).To(Equal(int32(2)))
	})

	It("stops when the queue is closed", func() {
		d := dispatch.NewDispatcher(queue, func(_ context.Context, _ dispatch.Task) error {
			return nil
		}, dispatch.WithWorkers(2), dispatch.WithRetryBackoff(0))

		done := make(chan struct{})
		go func() {
			d.Run(ctx)
			close(done)
		}()

		Expect(queue.Close()).To(Succeed())
		Eventually(done).Should(BeClosed())
	})

	It("stops when the context is cancelled", func() {
		d := dispatch.NewDispatcher(queue, func(_ context.Context, _ dispatch.Task) error {
			return nil
		}, dispatch.WithWorkers(2), dispatch.WithRetryBackoff(0))

		done := make(chan struct{})
		go func() {
			d.Run(ctx)
			close(done)
		}()

		cancel()
		Eventually(done).Should(BeClosed())
	})
})

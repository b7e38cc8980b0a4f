// Package redis provides a Redis-backed dispatch.Queue using the reliable
// list pattern: tasks are pushed to a pending list, moved atomically to a
// per-consumer processing list on dequeue, and removed on ack. Tasks left
// on the processing list by a crashed worker can be recovered out of band.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/quietgrove/dossier/pkg/dispatch"
)

const (
	pendingKey    = "tasks:pending"
	processingKey = "tasks:processing"
)

// Queue implements dispatch.Queue on a pair of Redis lists.
type Queue struct {
	client *redis.Client
}

// NewQueue connects to Redis at addr and verifies the connection is
// reachable.
func NewQueue(ctx context.Context, addr string, db int) (*Queue, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return &Queue{client: client}, nil
}

// NewQueueFromClient wraps an existing client. The caller keeps ownership
// of the client's lifecycle when constructed this way.
func NewQueueFromClient(client *redis.Client) *Queue {
	return &Queue{client: client}
}

func (q *Queue) Enqueue(ctx context.Context, task dispatch.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshaling task: %w", err)
	}

	if err := q.client.LPush(ctx, pendingKey, data).Err(); err != nil {
		return fmt.Errorf("enqueueing task: %w", err)
	}

	return nil
}

// Dequeue blocks until a task is available or the context is done. The
// returned ack removes the task from the processing list.
func (q *Queue) Dequeue(ctx context.Context) (dispatch.Task, dispatch.AckFunc, error) {
	raw, err := q.client.BLMove(ctx, pendingKey, processingKey, "RIGHT", "LEFT", 0).Result()
	if err != nil {
		return dispatch.Task{}, nil, fmt.Errorf("dequeueing task: %w", err)
	}

	var task dispatch.Task
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		// Drop the malformed payload so it cannot wedge the queue.
		q.client.LRem(ctx, processingKey, 1, raw)
		return dispatch.Task{}, nil, fmt.Errorf("unmarshaling task: %w", err)
	}

	ack := func(ctx context.Context) error {
		if err := q.client.LRem(ctx, processingKey, 1, raw).Err(); err != nil {
			return fmt.Errorf("acking task: %w", err)
		}
		return nil
	}

	return task, ack, nil
}

// PendingLen reports how many tasks are waiting. Used by health reporting.
func (q *Queue) PendingLen(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, pendingKey).Result()
	if err != nil {
		return 0, fmt.Errorf("reading queue length: %w", err)
	}
	return n, nil
}

func (q *Queue) Close() error {
	return q.client.Close()
}

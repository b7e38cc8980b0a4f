// Package dispatch moves extraction tasks from the hot path to background
// workers. A queue backend holds serialized tasks; the Dispatcher runs a
// worker pool that drains it, retrying failed tasks a bounded number of
// times before dead-lettering them. Delivery is at-least-once: a task may
// run twice if a worker dies between handling and acking, and downstream
// writes tolerate the duplicate.
package dispatch

import (
	"time"

	"github.com/google/uuid"
)

// State labels where a task is in its lifecycle. States are carried in
// logs and events, not persisted on the task itself.
type State string

const (
	StateQueued       State = "queued"
	StateRunning      State = "running"
	StateSucceeded    State = "succeeded"
	StateRetrying     State = "retrying"
	StateDeadLettered State = "deadlettered"
)

// Task is one unit of extraction work: a single candidate message to
// analyze. Attempt counts completed tries, starting at zero.
type Task struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Text       string    `json:"text"`
	Attempt    int       `json:"attempt"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewTask creates a task for a session message.
func NewTask(sessionID, text string) Task {
	return Task{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		Text:       text,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Fingerprint returns a stable v5 UUID over the session and text, so
// retries and redeliveries of the same turn correlate in logs even when
// their task IDs differ.
func (t Task) Fingerprint() string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(t.SessionID+"\x00"+t.Text)).String()
}

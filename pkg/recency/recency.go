// Package recency holds the short-term conversational memory: a per-session
// bounded, time-limited buffer of recent turns. This is the hot path: every
// conversational request reads and appends here synchronously.
package recency

import (
	"context"
	"time"
)

const (
	// MaxTurns is the cap on buffered turns per session. Appending beyond
	// the cap evicts the oldest turn.
	MaxTurns = 20

	// TTL is the rolling expiry for a session's buffer, refreshed on every
	// append. Reads never refresh it.
	TTL = 24 * time.Hour
)

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single conversational message. Immutable once stored.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Info describes the state of a session's buffer. TTL is the remaining time
// before expiry, or zero when the session does not exist or carries no expiry.
type Info struct {
	Count  int           `json:"count"`
	TTL    time.Duration `json:"ttl"`
	Exists bool          `json:"exists"`
}

// Store is the interface for recency buffer backends.
type Store interface {
	// Append pushes a turn onto the session's buffer, trims it to MaxTurns
	// and resets the session expiry to TTL.
	Append(ctx context.Context, sessionID, role, content string) error

	// Read returns up to limit turns in chronological order (oldest first).
	// A non-positive limit defaults to MaxTurns. A missing session reads as
	// empty.
	Read(ctx context.Context, sessionID string, limit int) ([]Turn, error)

	// Info reports the turn count and remaining TTL for a session.
	Info(ctx context.Context, sessionID string) (Info, error)

	// Clear deletes the session's buffer, reporting whether anything existed.
	Clear(ctx context.Context, sessionID string) (bool, error)

	// Close releases backend resources.
	Close() error
}

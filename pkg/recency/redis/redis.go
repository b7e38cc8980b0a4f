// Package redis provides a Redis-backed recency.Store using list operations
// with a rolling key expiry. This is the production hot-path backend.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/quietgrove/dossier/pkg/recency"
)

const keyPrefix = "chat:"

// Store implements recency.Store on top of a Redis list per session.
type Store struct {
	client *redis.Client
}

// NewStore connects to Redis at addr (e.g. "localhost:6379") and verifies the
// connection is reachable.
func NewStore(ctx context.Context, addr string, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return &Store{client: client}, nil
}

// NewStoreFromClient wraps an existing client. The caller keeps ownership of
// the client's lifecycle when constructed this way.
func NewStoreFromClient(client *redis.Client) *Store {
	return &Store{client: client}
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}

func (s *Store) Append(ctx context.Context, sessionID, role, content string) error {
	data, err := json.Marshal(recency.Turn{Role: role, Content: content})
	if err != nil {
		return fmt.Errorf("marshaling turn: %w", err)
	}

	k := key(sessionID)

	// Push newest-first, trim to the cap, refresh the rolling expiry.
	// Pipelined so an append costs a single round trip.
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, k, data)
	pipe.LTrim(ctx, k, 0, recency.MaxTurns-1)
	pipe.Expire(ctx, k, recency.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("appending turn: %w", err)
	}

	return nil
}

func (s *Store) Read(ctx context.Context, sessionID string, limit int) ([]recency.Turn, error) {
	if limit <= 0 {
		limit = recency.MaxTurns
	}

	// LRANGE returns newest-first (LPUSH order), so reverse for chronology.
	raw, err := s.client.LRange(ctx, key(sessionID), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading turns: %w", err)
	}

	turns := make([]recency.Turn, len(raw))
	for i, item := range raw {
		var t recency.Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			return nil, fmt.Errorf("unmarshaling turn: %w", err)
		}
		turns[len(raw)-1-i] = t
	}

	return turns, nil
}

func (s *Store) Info(ctx context.Context, sessionID string) (recency.Info, error) {
	k := key(sessionID)

	count, err := s.client.LLen(ctx, k).Result()
	if err != nil {
		return recency.Info{}, fmt.Errorf("reading length: %w", err)
	}

	ttl, err := s.client.TTL(ctx, k).Result()
	if err != nil {
		return recency.Info{}, fmt.Errorf("reading ttl: %w", err)
	}
	if ttl < 0 {
		// -2 key missing, -1 no expiry set
		ttl = 0
	}

	return recency.Info{
		Count:  int(count),
		TTL:    ttl,
		Exists: count > 0,
	}, nil
}

func (s *Store) Clear(ctx context.Context, sessionID string) (bool, error) {
	deleted, err := s.client.Del(ctx, key(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("clearing session: %w", err)
	}
	return deleted > 0, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

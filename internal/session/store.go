package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned for a session id that is missing or expired.
// Callers treat both the same: not authenticated.
var ErrNotFound = errors.New("session not found")

// Store persists session payloads in Redis. Expiry is handled by Redis TTL:
// an expired session is simply absent. The TTL is absolute (set once at
// creation, no sliding refresh on reads).
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// sessionKey generates the Redis key for a session id
func sessionKey(sid string) string {
	return fmt.Sprintf("session:%s", sid)
}

// Create stores the payload under a freshly generated session id and returns it
func (s *Store) Create(ctx context.Context, payload *Payload) (string, error) {
	sid, err := newSessionID()
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session payload: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(sid), data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	return sid, nil
}

// Get loads the payload for a session id. Missing or expired sessions
// return ErrNotFound.
func (s *Store) Get(ctx context.Context, sid string) (*Payload, error) {
	data, err := s.client.Get(ctx, sessionKey(sid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	payload := new(Payload)
	if err := json.Unmarshal(data, payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session payload: %w", err)
	}

	return payload, nil
}

// Update rewrites the payload of an existing session, keeping its remaining
// TTL. Updating an absent session returns ErrNotFound.
func (s *Store) Update(ctx context.Context, sid string, payload *Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal session payload: %w", err)
	}

	err = s.client.SetArgs(ctx, sessionKey(sid), data, redis.SetArgs{
		Mode:    "XX", // only if it still exists
		KeepTTL: true,
	}).Err()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	return nil
}

// Destroy removes a session. Destroying an absent or already-destroyed
// session is not an error.
func (s *Store) Destroy(ctx context.Context, sid string) error {
	if err := s.client.Del(ctx, sessionKey(sid)).Err(); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

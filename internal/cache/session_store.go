package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jackson0tr/lerko-backend/internal/domain"
)

// SessionStore holds the serialized principal for each active session in
// Redis. It is the source of truth for session liveness: a refresh token with
// no matching entry here is dead regardless of its signature. Keys are the
// raw decimal principal id; TTL enforcement is left to Redis.
type SessionStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewSessionStore constructs a store with the configured session TTL.
func NewSessionStore(client redis.UniversalClient, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func sessionKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Put overwrites the principal snapshot unconditionally (last-write-wins) and
// resets the TTL to the full session window.
func (s *SessionStore) Put(ctx context.Context, user domain.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(user.ID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Get loads the principal snapshot. Absence (expired or never created) is a
// valid outcome, reported via ok=false, not an error.
func (s *SessionStore) Get(ctx context.Context, id int64) (domain.User, bool, error) {
	payload, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, fmt.Errorf("load session: %w", err)
	}
	var user domain.User
	if err := json.Unmarshal(payload, &user); err != nil {
		return domain.User{}, false, fmt.Errorf("decode session: %w", err)
	}
	return user, true, nil
}

// Delete removes the session record. Deleting an absent key is a no-op
// success.
func (s *SessionStore) Delete(ctx context.Context, id int64) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

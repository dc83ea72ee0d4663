package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"easyservice/models"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps sessions in Redis with a per-key TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, identity string) (*models.SessionState, error) {
	data, err := s.client.Get(ctx, key(identity)).Bytes()
	if err == redis.Nil {
		return &models.SessionState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session for %s: %w", identity, err)
	}
	var state models.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode session for %s: %w", identity, err)
	}
	return &state, nil
}

func (s *RedisStore) Save(ctx context.Context, identity string, state *models.SessionState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session for %s: %w", identity, err)
	}
	if err := s.client.Set(ctx, key(identity), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session for %s: %w", identity, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, identity string) error {
	if err := s.client.Del(ctx, key(identity)).Err(); err != nil {
		return fmt.Errorf("failed to clear session for %s: %w", identity, err)
	}
	return nil
}

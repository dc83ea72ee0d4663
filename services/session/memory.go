package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"easyservice/models"

	"github.com/allegro/bigcache/v3"
)

// MemoryStore keeps sessions in process memory. bigcache evicts entries older
// than the TTL on every clean window, which bounds the footprint of abandoned
// conversations.
type MemoryStore struct {
	cache *bigcache.BigCache
}

// NewMemoryStore builds a store whose entries live for ttl. Close stops the
// background cleaner.
func NewMemoryStore(ttl time.Duration) (*MemoryStore, error) {
	cfg := bigcache.DefaultConfig(ttl)
	cfg.CleanWindow = ttl / 2
	if cfg.CleanWindow < time.Second {
		cfg.CleanWindow = time.Second
	}
	cfg.Verbose = false

	cache, err := bigcache.NewBigCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}
	return &MemoryStore{cache: cache}, nil
}

func (s *MemoryStore) Get(_ context.Context, identity string) (*models.SessionState, error) {
	data, err := s.cache.Get(key(identity))
	if errors.Is(err, bigcache.ErrEntryNotFound) {
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

func (s *MemoryStore) Save(_ context.Context, identity string, state *models.SessionState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session for %s: %w", identity, err)
	}
	return s.cache.Set(key(identity), b)
}

func (s *MemoryStore) Clear(_ context.Context, identity string) error {
	err := s.cache.Delete(key(identity))
	if err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return fmt.Errorf("failed to clear session for %s: %w", identity, err)
	}
	return nil
}

// Close stops the cleaner and releases the shards.
func (s *MemoryStore) Close() error {
	return s.cache.Close()
}

// Package onboarding persists the one-time "onboarding completed" flag.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

var ErrInvalidUser = errors.New("onboarding: user id required")

type Store interface {
	Completed(ctx context.Context, userID string) (bool, error)
	MarkCompleted(ctx context.Context, userID string) error
}

// RedisStore keeps the flag as a plain key with no TTL. The flag only ever
// goes from false to true.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: "onboarding:completed:"}
}

func (s *RedisStore) key(userID string) string { return s.prefix + userID }

func (s *RedisStore) Completed(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, ErrInvalidUser
	}
	n, err := s.rdb.Exists(ctx, s.key(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("onboarding: read flag: %w", err)
	}
	return n == 1, nil
}

func (s *RedisStore) MarkCompleted(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrInvalidUser
	}
	if err := s.rdb.SetNX(ctx, s.key(userID), "1", 0).Err(); err != nil {
		return fmt.Errorf("onboarding: write flag: %w", err)
	}
	return nil
}

// MemoryStore is a simple in-memory store useful for tests.
type MemoryStore struct {
	mu   sync.Mutex
	done map[string]bool
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{done: make(map[string]bool)} }

func (s *MemoryStore) Completed(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, ErrInvalidUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done[userID], nil
}

func (s *MemoryStore) MarkCompleted(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrInvalidUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done[userID] = true
	return nil
}

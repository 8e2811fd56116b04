package onboarding

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()

	mr := miniredis.NewMiniRedis()
	if err := mr.Start(); err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisStore(client)
}

func TestRedisStore_MarkCompleted(t *testing.T) {
	mr, store := setupMiniRedis(t)
	ctx := context.Background()

	done, err := store.Completed(ctx, "u1")
	if err != nil {
		t.Fatalf("Completed: %v", err)
	}
	if done {
		t.Fatalf("expected fresh user to be not onboarded")
	}

	if err := store.MarkCompleted(ctx, "u1"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if err := store.MarkCompleted(ctx, "u1"); err != nil {
		t.Fatalf("MarkCompleted twice: %v", err)
	}

	done, _ = store.Completed(ctx, "u1")
	if !done {
		t.Fatalf("expected flag to be set")
	}
	if got, _ := mr.Get("onboarding:completed:u1"); got != "1" {
		t.Fatalf("unexpected stored value %q", got)
	}
	if mr.TTL("onboarding:completed:u1") != 0 {
		t.Fatalf("flag must not expire")
	}

	other, _ := store.Completed(ctx, "u2")
	if other {
		t.Fatalf("flag leaked to another user")
	}
}

func TestRedisStore_Unavailable(t *testing.T) {
	mr := miniredis.NewMiniRedis()
	if err := mr.Start(); err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	store := NewRedisStore(client)
	mr.Close()

	if _, err := store.Completed(context.Background(), "u1"); err == nil {
		t.Fatalf("expected error when redis is down")
	}
}

func TestStores_RequireUser(t *testing.T) {
	_, rs := setupMiniRedis(t)
	for _, s := range []Store{rs, NewMemoryStore()} {
		if _, err := s.Completed(context.Background(), ""); !errors.Is(err, ErrInvalidUser) {
			t.Fatalf("expected ErrInvalidUser, got %v", err)
		}
		if err := s.MarkCompleted(context.Background(), ""); !errors.Is(err, ErrInvalidUser) {
			t.Fatalf("expected ErrInvalidUser, got %v", err)
		}
	}
}

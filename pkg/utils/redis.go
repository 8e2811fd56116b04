package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrRedisAddrRequired = errors.New("utils: redis addr required")

// RedisConfig holds the client settings this service tunes. Redis only backs
// small per-user flags, so the pool stays small.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	PoolSize    int
	OpTimeout   time.Duration // dial, read and write
	PingTimeout time.Duration
}

func (c RedisConfig) options() *redis.Options {
	if c.PoolSize <= 0 {
		c.PoolSize = 10
	}
	if c.OpTimeout <= 0 {
		c.OpTimeout = 2 * time.Second
	}
	return &redis.Options{
		Addr:            c.Addr,
		Password:        c.Password,
		DB:              c.DB,
		DialTimeout:     c.OpTimeout,
		ReadTimeout:     c.OpTimeout,
		WriteTimeout:    c.OpTimeout,
		PoolSize:        c.PoolSize,
		PoolTimeout:     2 * c.OpTimeout,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// OpenRedis returns a client that has answered PING.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, ErrRedisAddrRequired
	}
	rdb := redis.NewClient(cfg.options())
	if err := PingRedis(ctx, rdb, cfg.PingTimeout); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// PingRedis is the readiness check for the flag store.
func PingRedis(ctx context.Context, rdb *redis.Client, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

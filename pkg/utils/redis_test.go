package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestOpenRedis_PingsServer(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := OpenRedis(context.Background(), RedisConfig{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("OpenRedis: %v", err)
	}
	defer rdb.Close()

	if err := rdb.Set(context.Background(), "k", "v", time.Minute).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := mr.Get("k"); got != "v" {
		t.Fatalf("expected v, got %q", got)
	}
	if err := PingRedis(context.Background(), rdb, 0); err != nil {
		t.Fatalf("PingRedis: %v", err)
	}
}

func TestOpenRedis_RequiresAddr(t *testing.T) {
	if _, err := OpenRedis(context.Background(), RedisConfig{}); !errors.Is(err, ErrRedisAddrRequired) {
		t.Fatalf("expected ErrRedisAddrRequired, got %v", err)
	}
}

func TestOpenRedis_FailsWhenUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	addr := mr.Addr()
	mr.Close()

	if _, err := OpenRedis(context.Background(), RedisConfig{Addr: addr, OpTimeout: 200 * time.Millisecond, PingTimeout: time.Second}); err == nil {
		t.Fatalf("expected ping failure")
	}
}

func TestRedisConfig_Options(t *testing.T) {
	o := RedisConfig{Addr: "x:1", DB: 2}.options()
	if o.PoolSize != 10 || o.ReadTimeout != 2*time.Second || o.PoolTimeout != 4*time.Second || o.DB != 2 {
		t.Fatalf("unexpected options %+v", o)
	}
}

package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func skipIfNoRedis(t *testing.T) {
	if os.Getenv("REDIS_TEST_ADDR") == "" {
		t.Skip("REDIS_TEST_ADDR not set, skipping Redis tests")
	}
}

func newRedisTestLimiter(t *testing.T, requests int) *RedisLimiter {
	t.Helper()
	skipIfNoRedis(t)

	limiter, err := NewRedisLimiter(&Config{
		Requests:      requests,
		Window:        time.Minute,
		Strategy:      StrategySlidingWindow,
		Backend:       BackendRedis,
		KeyPrefix:     "routefinder:test",
		RedisAddr:     os.Getenv("REDIS_TEST_ADDR"),
		RedisPassword: os.Getenv("REDIS_TEST_PASSWORD"),
	})
	if err != nil {
		t.Fatalf("NewRedisLimiter() error = %v", err)
	}
	t.Cleanup(func() { limiter.Close() })
	return limiter
}

// resetKey удаляет ключ до и после теста
func resetKey(t *testing.T, l *RedisLimiter, key string) {
	t.Helper()
	ctx := context.Background()
	l.client.Del(ctx, l.key(key))
	t.Cleanup(func() { l.client.Del(ctx, l.key(key)) })
}

func TestRedisLimiter_Allow(t *testing.T) {
	limiter := newRedisTestLimiter(t, 2)
	ctx := context.Background()
	key := "allow-" + t.Name()

	resetKey(t, limiter, key)

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, key)
		if err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
		if !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	allowed, err := limiter.Allow(ctx, key)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if allowed {
		t.Error("3rd request should be denied")
	}
}

func TestRedisLimiter_GetInfo(t *testing.T) {
	limiter := newRedisTestLimiter(t, 5)
	ctx := context.Background()
	key := "info-" + t.Name()

	resetKey(t, limiter, key)

	for i := 0; i < 3; i++ {
		limiter.Allow(ctx, key)
	}

	info, err := limiter.GetInfo(ctx, key)
	if err != nil {
		t.Fatalf("GetInfo() error = %v", err)
	}
	if info.Limit != 5 {
		t.Errorf("Limit = %d, want 5", info.Limit)
	}
	if info.Remaining != 2 {
		t.Errorf("Remaining = %d, want 2", info.Remaining)
	}
}

func TestNewRedisLimiter_Unreachable(t *testing.T) {
	_, err := NewRedisLimiter(&Config{RedisAddr: "127.0.0.1:1", Requests: 1, Window: time.Second})
	if err == nil {
		t.Fatal("expected ping error for unreachable redis")
	}
}

func TestRedisLimiter_ClientError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer client.Close()

	limiter := NewRedisLimiterWithClient(client, &Config{Requests: 1, Window: time.Second})

	if _, err := limiter.Allow(context.Background(), "k"); err == nil {
		t.Error("Allow() should surface the redis error")
	}
	if _, err := limiter.GetInfo(context.Background(), "k"); err == nil {
		t.Error("GetInfo() should surface the redis error")
	}
	if err := limiter.Close(); err != nil {
		t.Errorf("Close() on borrowed client error = %v", err)
	}
}

func TestRedisLimiter_Key(t *testing.T) {
	l := NewRedisLimiterWithClient(nil, &Config{})
	if got := l.key("10.0.0.1"); got != "ratelimit:10.0.0.1" {
		t.Errorf("key = %q", got)
	}

	l = NewRedisLimiterWithClient(nil, DefaultConfig())
	if got := l.key("c"); got != "routefinder:ratelimit:c" {
		t.Errorf("key = %q", got)
	}
}

func TestParseScriptResult(t *testing.T) {
	if allowed, err := parseScriptResult([]int64{1, 4}); err != nil || !allowed {
		t.Errorf("parseScriptResult({1,4}) = %v, %v", allowed, err)
	}
	if allowed, err := parseScriptResult([]int64{0, 0}); err != nil || allowed {
		t.Errorf("parseScriptResult({0,0}) = %v, %v", allowed, err)
	}
	if _, err := parseScriptResult(nil); err == nil {
		t.Error("empty result should fail")
	}
}

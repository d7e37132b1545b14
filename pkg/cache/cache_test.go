package cache

import (
	"context"
	"testing"
	"time"

	"routefinder/pkg/config"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.Backend != BackendMemory {
		t.Errorf("expected backend 'memory', got %s", opts.Backend)
	}
	if opts.DefaultTTL != 10*time.Minute {
		t.Errorf("expected default TTL 10m, got %v", opts.DefaultTTL)
	}
	if opts.MaxEntries != 10000 {
		t.Errorf("expected max entries 10000, got %d", opts.MaxEntries)
	}
	if opts.KeyPrefix == "" {
		t.Error("expected a redis key prefix")
	}
}

func TestFromConfig(t *testing.T) {
	opts := FromConfig(
		config.CacheConfig{Driver: "redis", DefaultTTL: time.Minute, MaxEntries: 50},
		config.RedisConfig{Host: "redis.local", Port: 6380, Password: "secret", DB: 1},
	)

	if opts.Backend != BackendRedis {
		t.Errorf("expected backend 'redis', got %s", opts.Backend)
	}
	if opts.DefaultTTL != time.Minute {
		t.Errorf("expected TTL 1m, got %v", opts.DefaultTTL)
	}
	if opts.MaxEntries != 50 {
		t.Errorf("expected max entries 50, got %d", opts.MaxEntries)
	}
	if opts.RedisAddr != "redis.local:6380" {
		t.Errorf("expected addr 'redis.local:6380', got %s", opts.RedisAddr)
	}
	if opts.RedisPassword != "secret" || opts.RedisDB != 1 {
		t.Errorf("redis credentials not copied: %+v", opts)
	}
}

func TestFromConfig_KeepsDefaults(t *testing.T) {
	opts := FromConfig(config.CacheConfig{}, config.RedisConfig{Host: "localhost", Port: 6379})

	if opts.Backend != BackendMemory {
		t.Errorf("expected memory backend, got %s", opts.Backend)
	}
	if opts.DefaultTTL != 10*time.Minute {
		t.Errorf("expected default TTL, got %v", opts.DefaultTTL)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		opts *Options
	}{
		{name: "nil options", opts: nil},
		{name: "memory", opts: &Options{Backend: BackendMemory}},
		{name: "unknown backend", opts: &Options{Backend: "memcached"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.opts)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer c.Close()

			if _, ok := c.(*MemoryCache); !ok {
				t.Errorf("expected *MemoryCache, got %T", c)
			}
		})
	}
}

func TestNew_RedisUnavailable(t *testing.T) {
	_, err := New(&Options{Backend: BackendRedis, RedisAddr: "127.0.0.1:1"})
	if err == nil {
		t.Fatal("expected error for unreachable redis")
	}
}

func TestCache_ClosedErrors(t *testing.T) {
	c := NewMemoryCache(nil)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := c.Get(ctx, "k"); err != ErrCacheClosed {
		t.Errorf("Get() error = %v, want ErrCacheClosed", err)
	}
	if err := c.Set(ctx, "k", nil, 0); err != ErrCacheClosed {
		t.Errorf("Set() error = %v, want ErrCacheClosed", err)
	}
	if err := c.Delete(ctx, "k"); err != ErrCacheClosed {
		t.Errorf("Delete() error = %v, want ErrCacheClosed", err)
	}
	if err := c.Clear(ctx); err != ErrCacheClosed {
		t.Errorf("Clear() error = %v, want ErrCacheClosed", err)
	}
	if _, err := c.Stats(ctx); err != ErrCacheClosed {
		t.Errorf("Stats() error = %v, want ErrCacheClosed", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

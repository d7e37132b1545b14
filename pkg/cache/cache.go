// Package cache stores FindRoutes results keyed by matrix content, source
// vertex and length limit, in process memory or in Redis.
package cache

import (
	"context"
	"errors"
	"time"

	"routefinder/pkg/config"
)

// Backend types for cache implementations.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Standard errors returned by cache operations.
var (
	// ErrKeyNotFound is returned when a key is absent or expired.
	ErrKeyNotFound = errors.New("key not found")
	// ErrCacheClosed is returned after Close.
	ErrCacheClosed = errors.New("cache is closed")
)

// Cache is a byte-oriented key-value store with per-entry TTL.
type Cache interface {
	// Get returns ErrKeyNotFound if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value; ttl <= 0 means the cache default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Clear removes every key this cache owns.
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (*Stats, error)
	Close() error
}

// Stats is a snapshot of cache usage.
type Stats struct {
	TotalKeys   int64
	Hits        int64
	Misses      int64
	HitRate     float64
	MemoryBytes int64
	Backend     string
}

// Options contains configuration parameters for creating a Cache instance.
type Options struct {
	Backend    string
	DefaultTTL time.Duration

	// memory
	MaxEntries      int
	CleanupInterval time.Duration

	// redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int
	KeyPrefix     string
}

// DefaultOptions returns a new Options struct with sensible default values.
func DefaultOptions() *Options {
	return &Options{
		Backend:         BackendMemory,
		DefaultTTL:      10 * time.Minute,
		MaxEntries:      10000,
		CleanupInterval: time.Minute,
		RedisAddr:       "localhost:6379",
		RedisPoolSize:   10,
		KeyPrefix:       "routefinder:routes:",
	}
}

// FromConfig собирает опции из секций cache и redis
func FromConfig(cc config.CacheConfig, rd config.RedisConfig) *Options {
	opts := DefaultOptions()
	if cc.Driver != "" {
		opts.Backend = cc.Driver
	}
	if cc.DefaultTTL > 0 {
		opts.DefaultTTL = cc.DefaultTTL
	}
	if cc.MaxEntries > 0 {
		opts.MaxEntries = cc.MaxEntries
	}
	opts.RedisAddr = rd.Address()
	opts.RedisPassword = rd.Password
	opts.RedisDB = rd.DB
	return opts
}

// New создаёт кэш на основе опций
func New(opts *Options) (Cache, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	switch opts.Backend {
	case BackendRedis:
		return NewRedisCache(opts)
	default:
		return NewMemoryCache(opts), nil
	}
}

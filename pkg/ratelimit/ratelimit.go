// Package ratelimit ограничивает частоту запросов на клиента.
// In-memory лимитер поддерживает скользящее окно и token bucket,
// Redis лимитер делит скользящее окно между репликами.
package ratelimit

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"google.golang.org/grpc/peer"

	"routefinder/pkg/config"
)

var ErrLimiterClosed = errors.New("limiter is closed")

const (
	StrategySlidingWindow = "sliding_window"
	StrategyTokenBucket   = "token_bucket"

	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// ClientIDHeader явный идентификатор клиента, важнее адреса
const ClientIDHeader = "x-client-id"

// Limiter решает, пропустить ли очередной запрос клиента key
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	// GetInfo состояние лимита для заголовков ответа
	GetInfo(ctx context.Context, key string) (*LimitInfo, error)
	Close() error
}

// LimitInfo остаток лимита и время до следующего разрешённого запроса
type LimitInfo struct {
	Limit      int           `json:"limit"`
	Remaining  int           `json:"remaining"`
	ResetAt    time.Time     `json:"reset_at"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

// Config параметры лимитера. Requests запросов за Window;
// для token bucket ёмкость равна Requests+BurstSize.
type Config struct {
	Requests        int
	Window          time.Duration
	Strategy        string
	Backend         string
	BurstSize       int
	CleanupInterval time.Duration // in-memory: как часто забывать неактивных клиентов
	KeyPrefix       string        // redis

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// DefaultConfig 100 запросов в минуту, скользящее окно, память
func DefaultConfig() *Config {
	return &Config{
		Requests:        100,
		Window:          time.Minute,
		Strategy:        StrategySlidingWindow,
		Backend:         BackendMemory,
		BurstSize:       10,
		CleanupInterval: 5 * time.Minute,
		KeyPrefix:       "routefinder:ratelimit",
	}
}

// FromConfig накладывает секции rate_limit и redis на DefaultConfig.
// Нулевые значения rate_limit оставляют умолчания.
func FromConfig(rl config.RateLimitConfig, rd config.RedisConfig) *Config {
	cfg := DefaultConfig()
	if rl.Requests > 0 {
		cfg.Requests = rl.Requests
	}
	if rl.Window > 0 {
		cfg.Window = rl.Window
	}
	if rl.Strategy != "" {
		cfg.Strategy = rl.Strategy
	}
	if rl.Backend != "" {
		cfg.Backend = rl.Backend
	}
	if rl.BurstSize >= 0 {
		cfg.BurstSize = rl.BurstSize
	}
	if rl.CleanupInterval > 0 {
		cfg.CleanupInterval = rl.CleanupInterval
	}
	cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB = rd.Address(), rd.Password, rd.DB
	return cfg
}

// New выбирает реализацию по cfg.Backend; неизвестное значение даёт память
func New(cfg *Config) (Limiter, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Backend == BackendRedis {
		return NewRedisLimiter(cfg)
	}
	return NewMemoryLimiter(cfg), nil
}

// KeyExtractor строит ключ клиента по контексту, методу и входящим заголовкам
type KeyExtractor func(ctx context.Context, method string, metadata map[string]string) string

// DefaultKeyExtractor x-client-id, иначе адрес клиента
func DefaultKeyExtractor(ctx context.Context, method string, metadata map[string]string) string {
	if id := metadata[ClientIDHeader]; id != "" {
		return id
	}
	return PeerKeyExtractor(ctx, method, metadata)
}

// PeerKeyExtractor первый адрес X-Forwarded-For, затем X-Real-IP, затем host peer
func PeerKeyExtractor(ctx context.Context, _ string, metadata map[string]string) string {
	if xff := metadata["x-forwarded-for"]; xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if ip := metadata["x-real-ip"]; ip != "" {
		return ip
	}

	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "unknown"
	}
	addr := p.Addr.String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

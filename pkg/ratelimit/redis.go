package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindowScript атомарно чистит окно, считает запросы и добавляет n новых.
// Возвращает {allowed, remaining}.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local count = tonumber(ARGV[4])
	local nonce = ARGV[5]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)

	local current = redis.call('ZCARD', key)

	if current + count <= limit then
		for i = 1, count do
			redis.call('ZADD', key, now, now .. ':' .. nonce .. ':' .. i)
		end
		redis.call('PEXPIRE', key, window)
		return {1, limit - current - count}
	end

	return {0, limit - current}
`)

// RedisLimiter Redis-based rate limiter (sliding window на sorted set)
type RedisLimiter struct {
	client redis.UniversalClient
	config *Config
	owned  bool
}

// NewRedisLimiter создаёт Redis rate limiter и проверяет соединение
func NewRedisLimiter(cfg *Config) (*RedisLimiter, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	l := NewRedisLimiterWithClient(client, cfg)
	l.owned = true
	return l, nil
}

// NewRedisLimiterWithClient использует готовый клиент; Close его не закрывает
func NewRedisLimiterWithClient(client redis.UniversalClient, cfg *Config) *RedisLimiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &RedisLimiter{client: client, config: cfg}
}

func (l *RedisLimiter) key(key string) string {
	prefix := l.config.KeyPrefix
	if prefix == "" {
		prefix = "ratelimit"
	}
	return prefix + ":" + key
}

// Allow один запрос через Lua скрипт, атомарно для всех реплик
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now()
	nonce := strconv.FormatInt(now.UnixNano(), 36)

	result, err := slidingWindowScript.Run(ctx, l.client, []string{l.key(key)},
		l.config.Requests, l.config.Window.Milliseconds(), now.UnixMilli(), 1, nonce).Int64Slice()
	if err != nil {
		return false, fmt.Errorf("redis script error: %w", err)
	}
	return parseScriptResult(result)
}

func parseScriptResult(result []int64) (bool, error) {
	if len(result) == 0 {
		return false, errors.New("unexpected empty result from redis script")
	}
	return result[0] == 1, nil
}

func (l *RedisLimiter) GetInfo(ctx context.Context, key string) (*LimitInfo, error) {
	redisKey := l.key(key)
	now := time.Now()
	windowStart := strconv.FormatInt(now.Add(-l.config.Window).UnixMilli(), 10)

	count, err := l.client.ZCount(ctx, redisKey, "("+windowStart, "+inf").Result()
	if err != nil {
		return nil, err
	}

	info := &LimitInfo{
		Limit:     l.config.Requests,
		Remaining: l.config.Requests - int(count),
		ResetAt:   now.Add(l.config.Window),
	}

	oldest, err := l.client.ZRangeByScoreWithScores(ctx, redisKey, &redis.ZRangeBy{
		Min:   "(" + windowStart,
		Max:   "+inf",
		Count: 1,
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(oldest) > 0 {
		info.ResetAt = time.UnixMilli(int64(oldest[0].Score)).Add(l.config.Window)
	}

	if info.Remaining <= 0 {
		info.Remaining = 0
		info.RetryAfter = info.ResetAt.Sub(now)
	}
	return info, nil
}

func (l *RedisLimiter) Close() error {
	if !l.owned {
		return nil
	}
	return l.client.Close()
}

package interceptors

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"routefinder/pkg/apperror"
	"routefinder/pkg/logger"
	"routefinder/pkg/metrics"
	"routefinder/pkg/ratelimit"
)

// RateLimitInterceptor создаёт интерсептор для rate limiting
func RateLimitInterceptor(limiter ratelimit.Limiter, keyExtractor ratelimit.KeyExtractor, m *metrics.Metrics) grpc.UnaryServerInterceptor {
	if keyExtractor == nil {
		keyExtractor = ratelimit.DefaultKeyExtractor
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		key := keyExtractor(ctx, info.FullMethod, incomingMap(ctx))

		if err := checkLimit(ctx, limiter, key, info.FullMethod, m); err != nil {
			return nil, err
		}

		return handler(ctx, req)
	}
}

// StreamRateLimitInterceptor для streaming
func StreamRateLimitInterceptor(limiter ratelimit.Limiter, keyExtractor ratelimit.KeyExtractor, m *metrics.Metrics) grpc.StreamServerInterceptor {
	if keyExtractor == nil {
		keyExtractor = ratelimit.DefaultKeyExtractor
	}

	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx := ss.Context()
		key := keyExtractor(ctx, info.FullMethod, incomingMap(ctx))

		if err := checkLimit(ctx, limiter, key, info.FullMethod, m); err != nil {
			return err
		}

		return handler(srv, ss)
	}
}

func checkLimit(ctx context.Context, limiter ratelimit.Limiter, key, method string, m *metrics.Metrics) error {
	allowed, err := limiter.Allow(ctx, key)
	if err != nil {
		// при недоступном хранилище пропускаем (fail open)
		logger.WithContext(ctx).Warn("Rate limit check failed", "error", err, "key", key)
		return nil
	}
	if allowed {
		return nil
	}

	info, infoErr := limiter.GetInfo(ctx, key)
	if infoErr != nil {
		logger.WithContext(ctx).Warn("Failed to get rate limit info", "error", infoErr, "key", key)
		info = &ratelimit.LimitInfo{ResetAt: time.Now().Add(time.Minute)}
	}

	logger.WithContext(ctx).Warn("Rate limit exceeded",
		"key", key,
		"method", method,
		"limit", info.Limit,
	)
	if m != nil {
		m.RecordRateLimited(method)
	}

	header := metadata.Pairs(
		"x-ratelimit-limit", strconv.Itoa(info.Limit),
		"x-ratelimit-remaining", "0",
		"x-ratelimit-reset", info.ResetAt.Format(time.RFC3339),
	)
	if err := grpc.SetHeader(ctx, header); err != nil {
		logger.Log.Debug("Failed to set rate limit headers", "error", err)
	}

	return apperror.ToGRPC(apperror.New(apperror.CodeRateLimited,
		fmt.Sprintf("rate limit exceeded: %d requests, retry after %s", info.Limit, info.RetryAfter.Round(time.Second))).
		WithDetails("retry_after_ms", info.RetryAfter.Milliseconds()))
}

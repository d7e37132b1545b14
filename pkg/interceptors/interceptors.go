// Package interceptors собирает серверные gRPC интерсепторы route-svc.
package interceptors

import (
	"google.golang.org/grpc"

	"routefinder/pkg/audit"
	"routefinder/pkg/metrics"
	"routefinder/pkg/ratelimit"
	"routefinder/pkg/telemetry"
)

// ServerConfig что включить в цепочку. Nil RateLimiter или AuditLogger выключают свой шаг.
type ServerConfig struct {
	ServiceName   string
	EnableTracing bool
	EnableAudit   bool
	Metrics       *metrics.Metrics
	RateLimiter   ratelimit.Limiter
	KeyExtractor  ratelimit.KeyExtractor
	AuditLogger   audit.Logger
	AuditExclude  map[string]bool
}

// UnaryServerInterceptors порядок: recovery, request id, rate limit, tracing,
// metrics, logging, validation, audit. Аудит ближе всех к обработчику и видит его результат.
func UnaryServerInterceptors(cfg *ServerConfig) grpc.UnaryServerInterceptor {
	chain := []grpc.UnaryServerInterceptor{RecoveryInterceptor(), RequestIDInterceptor()}
	add := func(on bool, i grpc.UnaryServerInterceptor) {
		if on {
			chain = append(chain, i)
		}
	}

	add(cfg.RateLimiter != nil, RateLimitInterceptor(cfg.RateLimiter, cfg.KeyExtractor, cfg.Metrics))
	add(cfg.EnableTracing, telemetry.UnaryServerInterceptor())
	chain = append(chain, MetricsInterceptor(cfg.Metrics), LoggingInterceptor(), ValidationInterceptor())
	if cfg.EnableAudit && cfg.AuditLogger != nil {
		chain = append(chain, AuditInterceptor(&AuditConfig{
			ServiceName:    cfg.ServiceName,
			ExcludeMethods: cfg.AuditExclude,
			Logger:         cfg.AuditLogger,
		}))
	}
	return chainUnary(chain)
}

// StreamServerInterceptors без валидации и аудита: единственный stream метод это health Watch
func StreamServerInterceptors(cfg *ServerConfig) grpc.StreamServerInterceptor {
	chain := []grpc.StreamServerInterceptor{StreamRecoveryInterceptor()}
	if cfg.RateLimiter != nil {
		chain = append(chain, StreamRateLimitInterceptor(cfg.RateLimiter, cfg.KeyExtractor, cfg.Metrics))
	}
	if cfg.EnableTracing {
		chain = append(chain, telemetry.StreamServerInterceptor())
	}
	chain = append(chain, StreamMetricsInterceptor(cfg.Metrics), StreamLoggingInterceptor())
	return chainStream(chain)
}

// ExcludeSet список методов из конфигурации как множество
func ExcludeSet(methods []string) map[string]bool {
	set := make(map[string]bool, len(methods))
	for _, m := range methods {
		set[m] = true
	}
	return set
}

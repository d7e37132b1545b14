package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"

	"routefinder/pkg/logger"
	"routefinder/pkg/metrics"
	"routefinder/pkg/ratelimit"
)

// RequestIDHeader заголовок с идентификатором запроса
const RequestIDHeader = "X-Request-Id"

// ConnectConfig настройки Connect обработчиков
type ConnectConfig struct {
	Metrics     *metrics.Metrics
	RateLimiter ratelimit.Limiter
}

// ConnectOptions собирает interceptors в том же порядке, что и gRPC цепочка:
// request id, rate limit, metrics, logging
func ConnectOptions(cfg ConnectConfig) []connect.HandlerOption {
	interceptors := []connect.Interceptor{NewRequestIDInterceptor()}
	if cfg.RateLimiter != nil {
		interceptors = append(interceptors, NewRateLimitInterceptor(cfg.RateLimiter, cfg.Metrics))
	}
	interceptors = append(interceptors,
		NewMetricsInterceptor(cfg.Metrics),
		NewLoggingInterceptor(),
	)

	return []connect.HandlerOption{
		connect.WithInterceptors(interceptors...),
		connect.WithRecover(recoverHandler),
	}
}

func recoverHandler(ctx context.Context, spec connect.Spec, _ http.Header, p any) error {
	logger.WithContext(ctx).Error("Panic recovered",
		"procedure", spec.Procedure,
		"panic", fmt.Sprint(p),
		"stack", string(debug.Stack()),
	)
	return connect.NewError(connect.CodeInternal, errors.New("internal server error"))
}

// NewRequestIDInterceptor берёт X-Request-Id из заголовков или генерирует новый
func NewRequestIDInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			id := req.Header().Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			ctx = logger.ContextWithRequestID(ctx, id)

			resp, err := next(ctx, req)
			if resp != nil {
				resp.Header().Set(RequestIDHeader, id)
			}
			var cerr *connect.Error
			if errors.As(err, &cerr) {
				cerr.Meta().Set(RequestIDHeader, id)
			}
			return resp, err
		}
	}
}

// NewLoggingInterceptor логирует завершение запроса
func NewLoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()

			resp, err := next(ctx, req)

			log := logger.WithContext(ctx,
				"procedure", req.Spec().Procedure,
				"protocol", req.Peer().Protocol,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			if err != nil {
				log.Warn("Connect request failed", "code", connect.CodeOf(err).String(), "error", err)
			} else {
				log.Info("Connect request completed")
			}
			return resp, err
		}
	}
}

// NewMetricsInterceptor пишет те же метрики, что и gRPC interceptor.
// Статус берётся в нотации gRPC кодов.
func NewMetricsInterceptor(m *metrics.Metrics) connect.UnaryInterceptorFunc {
	if m == nil {
		m = metrics.Get()
	}

	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			procedure := req.Spec().Procedure
			defer m.TrackInFlight()()

			start := time.Now()
			resp, err := next(ctx, req)

			code := codes.OK
			if err != nil {
				code = codes.Code(connect.CodeOf(err))
			}
			m.RecordGRPCRequest(procedure, code.String(), time.Since(start))

			return resp, err
		}
	}
}

// NewRateLimitInterceptor ограничивает частоту запросов по клиенту.
// Ошибка лимитера пропускает запрос.
func NewRateLimitInterceptor(limiter ratelimit.Limiter, m *metrics.Metrics) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			key := clientKey(req)

			allowed, err := limiter.Allow(ctx, key)
			if err != nil {
				logger.WithContext(ctx).Warn("Rate limit check failed", "error", err)
				return next(ctx, req)
			}
			if allowed {
				return next(ctx, req)
			}

			if m != nil {
				m.RecordRateLimited(req.Spec().Procedure)
			}

			cerr := connect.NewError(connect.CodeResourceExhausted, errors.New("rate limit exceeded"))
			cerr.Meta().Set(ErrorCodeHeader, "RATE_LIMITED")
			if info, err := limiter.GetInfo(ctx, key); err == nil {
				cerr.Meta().Set("X-Ratelimit-Limit", strconv.Itoa(info.Limit))
				cerr.Meta().Set("Retry-After", strconv.Itoa(int(info.RetryAfter.Seconds())))
			}
			return nil, cerr
		}
	}
}

// clientKey совпадает с ключами gRPC лимитера, так что оба транспорта
// расходуют общий лимит клиента
func clientKey(req connect.AnyRequest) string {
	if id := req.Header().Get(ratelimit.ClientIDHeader); id != "" {
		return id
	}
	if xff := req.Header().Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if ip := req.Header().Get("X-Real-Ip"); ip != "" {
		return ip
	}

	addr := req.Peer().Addr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	if addr == "" {
		return "unknown"
	}
	return addr
}

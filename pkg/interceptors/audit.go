package interceptors

import (
	"context"
	"net"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"routefinder/pkg/audit"
	"routefinder/pkg/logger"
)

// AuditConfig конфигурация аудит интерсептора
type AuditConfig struct {
	ServiceName    string
	ExcludeMethods map[string]bool
	Logger         audit.Logger
}

// AuditInterceptor пишет запись аудита на каждый вызов.
// Обработчик дополняет запись через audit.Scope из контекста.
func AuditInterceptor(cfg *AuditConfig) grpc.UnaryServerInterceptor {
	if cfg.Logger == nil {
		cfg.Logger = audit.Get()
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if cfg.ExcludeMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		start := time.Now()
		ctx, scope := audit.WithScope(ctx)

		resp, err := handler(ctx, req)

		entry := buildEntry(ctx, cfg.ServiceName, info.FullMethod, scope, start, err)

		// Асинхронно логируем
		go func() {
			if logErr := cfg.Logger.Log(context.Background(), entry); logErr != nil {
				logger.Log.Warn("Failed to write audit log", "error", logErr)
			}
		}()

		return resp, err
	}
}

func buildEntry(ctx context.Context, service, method string, scope *audit.Scope, start time.Time, err error) *audit.Entry {
	action := scope.Action()
	if action == "" {
		action = methodToAction(method)
	}

	builder := audit.NewEntry().
		Service(service).
		Method(method).
		Action(action).
		Client(extractClientIP(ctx)).
		RequestID(extractRequestID(ctx)).
		StartedAt(start).
		Duration(time.Since(start))

	for k, v := range scope.Metadata() {
		builder.Meta(k, v)
	}

	if err != nil {
		st, _ := status.FromError(err)
		builder.Outcome(audit.OutcomeFailure).Error(st.Code().String(), st.Message())
	} else {
		builder.Outcome(audit.OutcomeSuccess)
	}

	return builder.Build()
}

func extractClientIP(ctx context.Context) string {
	if xff := incomingValue(ctx, "x-forwarded-for"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			xff = xff[:i]
		}
		return strings.TrimSpace(xff)
	}
	if xri := incomingValue(ctx, "x-real-ip"); xri != "" {
		return xri
	}

	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		if host, _, err := net.SplitHostPort(p.Addr.String()); err == nil {
			return host
		}
		return p.Addr.String()
	}

	return ""
}

func extractRequestID(ctx context.Context) string {
	if id := logger.RequestIDFromContext(ctx); id != "" {
		return id
	}
	return incomingValue(ctx, RequestIDHeader)
}

// methodToAction определяет действие по имени RPC метода
func methodToAction(method string) audit.Action {
	name := method[strings.LastIndexByte(method, '/')+1:]

	switch {
	case strings.HasPrefix(name, "Classify"):
		return audit.ActionClassify
	case strings.HasSuffix(name, "Stats"):
		return audit.ActionStats
	case strings.HasPrefix(name, "Export"):
		return audit.ActionExport
	default:
		return audit.ActionSolve
	}
}

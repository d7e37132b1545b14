package interceptors

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"routefinder/pkg/logger"
)

// RequestIDHeader заголовок с идентификатором запроса
const RequestIDHeader = "x-request-id"

// RequestIDInterceptor берёт x-request-id из metadata или генерирует новый,
// кладёт его в контекст и возвращает клиенту в заголовке
func RequestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		id := incomingValue(ctx, RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		ctx = logger.ContextWithRequestID(ctx, id)
		if err := grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, id)); err != nil {
			logger.Log.Debug("Failed to set request id header", "error", err)
		}

		return handler(ctx, req)
	}
}

// incomingValue первое значение ключа во входящих metadata
func incomingValue(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if v := md.Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

// incomingMap входящие metadata в виде key -> первое значение
func incomingMap(ctx context.Context) map[string]string {
	md, _ := metadata.FromIncomingContext(ctx)
	out := make(map[string]string, len(md))
	for k, v := range md {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

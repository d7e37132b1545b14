package interceptors

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"routefinder/pkg/apperror"
	"routefinder/pkg/logger"
)

// LoggingInterceptor пишет по одной строке на unary вызов
func LoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logCall(ctx, "gRPC request", info.FullMethod, start, err)
		return resp, err
	}
}

// StreamLoggingInterceptor то же для streaming вызовов
func StreamLoggingInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		logCall(ss.Context(), "gRPC stream", info.FullMethod, start, err)
		return err
	}
}

func logCall(ctx context.Context, kind, method string, start time.Time, err error) {
	log := logger.WithContext(ctx,
		"method", method,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if err == nil {
		log.Info(kind+" completed", "code", codes.OK.String())
		return
	}

	st, _ := status.FromError(err)
	log.Log(ctx, callLevel(st.Code()), kind+" failed",
		"code", st.Code().String(),
		"error_code", string(apperror.FromGRPC(err).Code),
		"error", st.Message(),
	)
}

// callLevel: ошибки клиента не должны засорять уровень error
func callLevel(c codes.Code) slog.Level {
	switch c {
	case codes.InvalidArgument, codes.OutOfRange, codes.NotFound,
		codes.ResourceExhausted, codes.Canceled, codes.Unimplemented:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

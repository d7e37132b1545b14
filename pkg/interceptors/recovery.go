package interceptors

import (
	"context"
	"runtime/debug"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"google.golang.org/grpc"

	"routefinder/pkg/apperror"
	"routefinder/pkg/logger"
)

// onPanic пишет стек и отдаёт клиенту INTERNAL без подробностей
func onPanic(ctx context.Context, p any) error {
	method, _ := grpc.Method(ctx)
	logger.WithContext(ctx).Error("Panic recovered",
		"method", method,
		"panic", p,
		"stack", string(debug.Stack()),
	)
	return apperror.ToGRPC(apperror.New(apperror.CodeInternal, "internal server error"))
}

// RecoveryInterceptor превращает панику обработчика в codes.Internal
func RecoveryInterceptor() grpc.UnaryServerInterceptor {
	return recovery.UnaryServerInterceptor(recovery.WithRecoveryHandlerContext(onPanic))
}

// StreamRecoveryInterceptor то же для streaming
func StreamRecoveryInterceptor() grpc.StreamServerInterceptor {
	return recovery.StreamServerInterceptor(recovery.WithRecoveryHandlerContext(onPanic))
}

package interceptors

import (
	"context"
	"errors"

	"google.golang.org/grpc"

	"routefinder/pkg/apperror"
)

// Validator реализуют запросы с собственной проверкой полей
type Validator interface {
	Validate() error
}

// ValidationInterceptor отклоняет запрос до вызова обработчика, если Validate вернул ошибку
func ValidationInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if err := validate(req); err != nil {
			return nil, apperror.ToGRPC(err)
		}
		return handler(ctx, req)
	}
}

// validate приводит ошибку проверки к *apperror.Error.
// Ошибки без кода получают INVALID_ARGUMENT.
func validate(req any) error {
	v, ok := req.(Validator)
	if !ok {
		return nil
	}
	err := v.Validate()
	if err == nil {
		return nil
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.Wrap(err, apperror.CodeInvalidArgument, "validation error: "+err.Error())
}

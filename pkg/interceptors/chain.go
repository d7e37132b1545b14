package interceptors

import (
	"context"

	"google.golang.org/grpc"
)

// chainUnary собирает цепочку: первый интерсептор внешний
func chainUnary(chain []grpc.UnaryServerInterceptor) grpc.UnaryServerInterceptor {
	if len(chain) == 1 {
		return chain[0]
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		return chain[0](ctx, req, info, unaryStep(chain, 0, info, handler))
	}
}

// unaryStep возвращает обработчик, вызывающий chain[i+1] или конечный handler
func unaryStep(chain []grpc.UnaryServerInterceptor, i int, info *grpc.UnaryServerInfo, final grpc.UnaryHandler) grpc.UnaryHandler {
	if i == len(chain)-1 {
		return final
	}
	return func(ctx context.Context, req any) (any, error) {
		return chain[i+1](ctx, req, info, unaryStep(chain, i+1, info, final))
	}
}

// chainStream то же для stream вызовов
func chainStream(chain []grpc.StreamServerInterceptor) grpc.StreamServerInterceptor {
	if len(chain) == 1 {
		return chain[0]
	}
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		return chain[0](srv, ss, info, streamStep(chain, 0, info, handler))
	}
}

func streamStep(chain []grpc.StreamServerInterceptor, i int, info *grpc.StreamServerInfo, final grpc.StreamHandler) grpc.StreamHandler {
	if i == len(chain)-1 {
		return final
	}
	return func(srv any, ss grpc.ServerStream) error {
		return chain[i+1](srv, ss, info, streamStep(chain, i+1, info, final))
	}
}

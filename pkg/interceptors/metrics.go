package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"routefinder/pkg/metrics"
)

// observe оборачивает вызов: in-flight, счётчик и гистограмма по методу и коду
func observe(m *metrics.Metrics, method string, call func() error) error {
	if m == nil {
		m = metrics.Get()
	}
	defer m.TrackInFlight()()

	start := time.Now()
	err := call()
	m.RecordGRPCRequest(method, status.Code(err).String(), time.Since(start))
	return err
}

// MetricsInterceptor считает запросы, их длительность и число активных
func MetricsInterceptor(m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		err = observe(m, info.FullMethod, func() error {
			resp, err = handler(ctx, req)
			return err
		})
		return resp, err
	}
}

// StreamMetricsInterceptor то же для stream
func StreamMetricsInterceptor(m *metrics.Metrics) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		return observe(m, info.FullMethod, func() error { return handler(srv, ss) })
	}
}

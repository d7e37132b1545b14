package telemetry

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"routefinder/pkg/apperror"
)

// AttrErrorCode код apperror, который вернул обработчик
const AttrErrorCode = "error.code"

// UnaryServerInterceptor открывает server span на вызов. Контекст трассы
// клиента берётся из metadata (traceparent).
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, span := startServerSpan(ctx, info.FullMethod)
		defer span.End()

		resp, err := handler(ctx, req)
		finishServerSpan(span, err)
		return resp, err
	}
}

// StreamServerInterceptor то же для stream вызовов
func StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, span := startServerSpan(ss.Context(), info.FullMethod, attribute.Bool("rpc.stream", true))
		defer span.End()

		err := handler(srv, &tracedServerStream{ServerStream: ss, ctx: ctx})
		finishServerSpan(span, err)
		return err
	}
}

func startServerSpan(ctx context.Context, fullMethod string, extra ...attribute.KeyValue) (context.Context, trace.Span) {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		ctx = otel.GetTextMapPropagator().Extract(ctx, metadataCarrier(md))
	}

	svc, method := splitMethod(fullMethod)
	attrs := append([]attribute.KeyValue{
		attribute.String("rpc.system", "grpc"),
		attribute.String("rpc.service", svc),
		attribute.String("rpc.method", method),
	}, extra...)

	return StartSpan(ctx, fullMethod,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attrs...),
	)
}

func finishServerSpan(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}

	st := status.Convert(err)
	span.SetAttributes(
		attribute.String("rpc.grpc.status_code", st.Code().String()),
		attribute.String(AttrErrorCode, string(apperror.FromGRPC(err).Code)),
	)
	span.RecordError(err)
	span.SetStatus(codes.Error, st.Message())
}

// splitMethod "/pkg.Service/Method" -> ("pkg.Service", "Method")
func splitMethod(fullMethod string) (string, string) {
	name := strings.TrimPrefix(fullMethod, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// metadataCarrier адаптирует gRPC metadata к propagation.TextMapCarrier
type metadataCarrier metadata.MD

func (c metadataCarrier) Get(key string) string {
	if v := metadata.MD(c).Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c metadataCarrier) Set(key, value string) {
	metadata.MD(c).Set(key, value)
}

func (c metadataCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

type tracedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *tracedServerStream) Context() context.Context {
	return s.ctx
}

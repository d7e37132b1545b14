package client

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"routefinder/pkg/apperror"
	"routefinder/pkg/domain"
	"routefinder/pkg/wire"
)

// RouteClient клиент для route-svc
type RouteClient struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

// DefaultClientConfig возвращает конфигурацию по умолчанию
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Address:      "localhost:50051",
		Timeout:      30 * time.Second,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
	}
}

// NewRouteClient создаёт клиента. Соединение ленивое: ctx не используется для dial.
func NewRouteClient(_ context.Context, cfg ClientConfig, extra ...grpc.DialOption) (*RouteClient, error) {
	conn, err := dial(cfg, extra...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to route service: %w", err)
	}
	return &RouteClient{conn: conn, timeout: cfg.Timeout}, nil
}

// Close закрывает соединение
func (c *RouteClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// FindRoutes ищет маршруты от source. maxRouteLength = nil берёт значение сервера.
func (c *RouteClient) FindRoutes(ctx context.Context, m *domain.Matrix, source int, maxRouteLength *int64) (*wire.FindRoutesResponse, error) {
	out, err := c.invoke(ctx, wire.FindRoutesProcedure, wire.EncodeFindRoutesRequest(&wire.FindRoutesRequest{
		Matrix:         m,
		Source:         source,
		MaxRouteLength: maxRouteLength,
	}))
	if err != nil {
		return nil, err
	}
	return wire.DecodeFindRoutesResponse(out)
}

// ClassifyMatrix возвращает флаги классификации и выбранный алгоритм
func (c *RouteClient) ClassifyMatrix(ctx context.Context, m *domain.Matrix) (*wire.ClassifyResponse, error) {
	out, err := c.invoke(ctx, wire.ClassifyMatrixProcedure, wire.EncodeMatrixRequest(&wire.MatrixRequest{Matrix: m}))
	if err != nil {
		return nil, err
	}
	return wire.DecodeClassifyResponse(out), nil
}

// GetMatrixStats возвращает статистику матрицы
func (c *RouteClient) GetMatrixStats(ctx context.Context, m *domain.Matrix) (domain.MatrixStats, error) {
	out, err := c.invoke(ctx, wire.GetMatrixStatsProcedure, wire.EncodeMatrixRequest(&wire.MatrixRequest{Matrix: m}))
	if err != nil {
		return domain.MatrixStats{}, err
	}
	return wire.DecodeStats(out), nil
}

// invoke вызывает процедуру; ошибки сервера возвращаются как *apperror.Error
func (c *RouteClient) invoke(ctx context.Context, method string, in *structpb.Struct) (*structpb.Struct, error) {
	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, in, out); err != nil {
		return nil, apperror.FromGRPC(err)
	}
	return out, nil
}

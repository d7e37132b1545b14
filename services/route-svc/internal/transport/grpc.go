package transport

import (
	"context"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"routefinder/pkg/apperror"
	"routefinder/pkg/wire"
	"routefinder/services/route-svc/internal/service"
)

// RouteServiceServer обработчики RouteService
type RouteServiceServer interface {
	FindRoutes(context.Context, *FindRoutesRequest) (*structpb.Struct, error)
	ClassifyMatrix(context.Context, *MatrixRequest) (*structpb.Struct, error)
	GetMatrixStats(context.Context, *MatrixRequest) (*structpb.Struct, error)
}

// FindRoutesRequest тело запроса FindRoutes. Validate разбирает тело один раз,
// так что ошибки кодека видит ValidationInterceptor.
type FindRoutesRequest struct {
	Body *structpb.Struct

	once    sync.Once
	decoded *wire.FindRoutesRequest
	err     error
}

// Validate разбирает и проверяет тело запроса
func (r *FindRoutesRequest) Validate() error {
	r.once.Do(func() {
		r.decoded, r.err = wire.DecodeFindRoutesRequest(r.Body)
	})
	return r.err
}

// MatrixRequest тело запросов ClassifyMatrix и GetMatrixStats
type MatrixRequest struct {
	Body *structpb.Struct

	once    sync.Once
	decoded *wire.MatrixRequest
	err     error
}

// Validate разбирает и проверяет тело запроса
func (r *MatrixRequest) Validate() error {
	r.once.Do(func() {
		r.decoded, r.err = wire.DecodeMatrixRequest(r.Body)
	})
	return r.err
}

// RouteServer адаптирует service.RouteService к wire-сообщениям
type RouteServer struct {
	svc              *service.RouteService
	defaultMaxLength int64
}

// NewRouteServer создаёт сервер. defaultMaxLength подставляется,
// если запрос не задаёт max_route_length.
func NewRouteServer(svc *service.RouteService, defaultMaxLength int64) *RouteServer {
	return &RouteServer{svc: svc, defaultMaxLength: defaultMaxLength}
}

// FindRoutes ищет маршруты от источника
func (s *RouteServer) FindRoutes(ctx context.Context, req *FindRoutesRequest) (*structpb.Struct, error) {
	resp, err := s.findRoutes(ctx, req)
	if err != nil {
		return nil, apperror.ToGRPC(err)
	}
	return resp, nil
}

// ClassifyMatrix возвращает флаги и выбранный алгоритм
func (s *RouteServer) ClassifyMatrix(ctx context.Context, req *MatrixRequest) (*structpb.Struct, error) {
	resp, err := s.classify(ctx, req)
	if err != nil {
		return nil, apperror.ToGRPC(err)
	}
	return resp, nil
}

// GetMatrixStats возвращает статистику матрицы
func (s *RouteServer) GetMatrixStats(ctx context.Context, req *MatrixRequest) (*structpb.Struct, error) {
	resp, err := s.stats(ctx, req)
	if err != nil {
		return nil, apperror.ToGRPC(err)
	}
	return resp, nil
}

func (s *RouteServer) findRoutes(ctx context.Context, req *FindRoutesRequest) (*structpb.Struct, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	maxLength := s.defaultMaxLength
	if req.decoded.MaxRouteLength != nil {
		maxLength = *req.decoded.MaxRouteLength
	}

	report, err := s.svc.FindRoutes(ctx, service.Query{
		Matrix:         req.decoded.Matrix,
		Source:         req.decoded.Source,
		MaxRouteLength: maxLength,
	})
	if err != nil {
		return nil, err
	}

	return wire.EncodeFindRoutesResponse(&wire.FindRoutesResponse{
		Algorithm:  report.Algorithm.String(),
		Flags:      wire.Flags(report.Flags),
		Routes:     report.Routes,
		Poisoned:   report.Poisoned,
		Stats:      report.Stats,
		DurationMs: report.Duration.Milliseconds(),
	}), nil
}

func (s *RouteServer) classify(ctx context.Context, req *MatrixRequest) (*structpb.Struct, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c, err := s.svc.Classify(ctx, req.decoded.Matrix)
	if err != nil {
		return nil, err
	}

	return wire.EncodeClassifyResponse(&wire.ClassifyResponse{
		Algorithm: c.Algorithm.String(),
		Flags:     wire.Flags(c.Flags),
	}), nil
}

func (s *RouteServer) stats(ctx context.Context, req *MatrixRequest) (*structpb.Struct, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	stats, err := s.svc.Stats(ctx, req.decoded.Matrix)
	if err != nil {
		return nil, err
	}
	return wire.EncodeStats(stats), nil
}

// RegisterRouteServiceServer регистрирует сервис на gRPC сервере
func RegisterRouteServiceServer(s grpc.ServiceRegistrar, srv RouteServiceServer) {
	s.RegisterService(&RouteServiceDesc, srv)
}

// RouteServiceDesc описание сервиса для grpc.ServiceRegistrar
var RouteServiceDesc = grpc.ServiceDesc{
	ServiceName: wire.ServiceName,
	HandlerType: (*RouteServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "FindRoutes", Handler: findRoutesHandler},
		{MethodName: "ClassifyMatrix", Handler: classifyMatrixHandler},
		{MethodName: "GetMatrixStats", Handler: getMatrixStatsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "routefinder/route/v1/route.proto",
}

func findRoutesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	body := new(structpb.Struct)
	if err := dec(body); err != nil {
		return nil, err
	}
	req := &FindRoutesRequest{Body: body}

	if interceptor == nil {
		return srv.(RouteServiceServer).FindRoutes(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: wire.FindRoutesProcedure}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RouteServiceServer).FindRoutes(ctx, req.(*FindRoutesRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func classifyMatrixHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return matrixHandler(srv, ctx, dec, interceptor, wire.ClassifyMatrixProcedure, RouteServiceServer.ClassifyMatrix)
}

func getMatrixStatsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return matrixHandler(srv, ctx, dec, interceptor, wire.GetMatrixStatsProcedure, RouteServiceServer.GetMatrixStats)
}

func matrixHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
	method string,
	call func(RouteServiceServer, context.Context, *MatrixRequest) (*structpb.Struct, error),
) (any, error) {
	body := new(structpb.Struct)
	if err := dec(body); err != nil {
		return nil, err
	}
	req := &MatrixRequest{Body: body}

	if interceptor == nil {
		return call(srv.(RouteServiceServer), ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
	handler := func(ctx context.Context, req any) (any, error) {
		return call(srv.(RouteServiceServer), ctx, req.(*MatrixRequest))
	}
	return interceptor(ctx, req, info, handler)
}

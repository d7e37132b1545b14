package transport

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"routefinder/pkg/apperror"
	"routefinder/pkg/wire"
)

// NewConnectHandler возвращает путь сервиса и HTTP обработчик Connect
// для всех процедур RouteService. Запросы принимаются в JSON и protobuf.
func NewConnectHandler(srv *RouteServer, opts ...connect.HandlerOption) (string, http.Handler) {
	findRoutes := connect.NewUnaryHandler(
		wire.FindRoutesProcedure,
		func(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
			resp, err := srv.findRoutes(ctx, &FindRoutesRequest{Body: req.Msg})
			return connectResponse(resp, err)
		},
		opts...,
	)
	classify := connect.NewUnaryHandler(
		wire.ClassifyMatrixProcedure,
		func(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
			resp, err := srv.classify(ctx, &MatrixRequest{Body: req.Msg})
			return connectResponse(resp, err)
		},
		opts...,
	)
	stats := connect.NewUnaryHandler(
		wire.GetMatrixStatsProcedure,
		func(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
			resp, err := srv.stats(ctx, &MatrixRequest{Body: req.Msg})
			return connectResponse(resp, err)
		},
		opts...,
	)

	return "/" + wire.ServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case wire.FindRoutesProcedure:
			findRoutes.ServeHTTP(w, r)
		case wire.ClassifyMatrixProcedure:
			classify.ServeHTTP(w, r)
		case wire.GetMatrixStatsProcedure:
			stats.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

func connectResponse(resp *structpb.Struct, err error) (*connect.Response[structpb.Struct], error) {
	if err != nil {
		return nil, ToConnectError(err)
	}
	return connect.NewResponse(resp), nil
}

// ToConnectError переводит ошибку приложения в connect.Error с тем же кодом,
// что и у gRPC статуса. Код apperror передаётся в метаданных.
func ToConnectError(err error) *connect.Error {
	var ce *connect.Error
	if errors.As(err, &ce) {
		return ce
	}

	st, _ := status.FromError(apperror.ToGRPC(err))
	cerr := connect.NewError(connect.Code(st.Code()), errors.New(st.Message()))
	cerr.Meta().Set(ErrorCodeHeader, string(apperror.Code(err)))
	return cerr
}

// ErrorCodeHeader заголовок с кодом apperror в ответах Connect
const ErrorCodeHeader = "X-Error-Code"

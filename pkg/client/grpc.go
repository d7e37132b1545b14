package client

import (
	"time"

	grpc_retry "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/retry"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"

	"routefinder/pkg/config"
)

// ClientConfig адрес, таймаут вызова и политика повторов
type ClientConfig struct {
	Address      string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// FromRetryConfig переносит секцию retry в ClientConfig
func FromRetryConfig(addr string, rc config.RetryConfig) ClientConfig {
	return ClientConfig{
		Address:      addr,
		Timeout:      rc.Timeout,
		MaxRetries:   rc.MaxAttempts,
		RetryBackoff: rc.InitialBackoff,
	}
}

// RetryCodes повторяются только транспортные сбои, ошибки валидации нет
var RetryCodes = []codes.Code{codes.Unavailable, codes.Aborted, codes.DeadlineExceeded}

func (c ClientConfig) retryOptions() []grpc_retry.CallOption {
	return []grpc_retry.CallOption{
		grpc_retry.WithMax(uint(max(c.MaxRetries, 0))),
		grpc_retry.WithCodes(RetryCodes...),
		grpc_retry.WithBackoff(grpc_retry.BackoffExponential(c.RetryBackoff)),
	}
}

// dial открывает незашифрованное соединение; extra идут после стандартных опций
func dial(cfg ClientConfig, extra ...grpc.DialOption) (*grpc.ClientConn, error) {
	retry := cfg.retryOptions()
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(grpc_retry.UnaryClientInterceptor(retry...)),
		grpc.WithChainStreamInterceptor(grpc_retry.StreamClientInterceptor(retry...)),
	}, extra...)
	return grpc.NewClient(cfg.Address, opts...)
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"routefinder/gen/openapi"
	"routefinder/pkg/audit"
	"routefinder/pkg/config"
	"routefinder/pkg/database"
	"routefinder/pkg/interceptors"
	"routefinder/pkg/logger"
	"routefinder/pkg/metrics"
	"routefinder/pkg/ratelimit"
	"routefinder/pkg/swagger"
	"routefinder/pkg/telemetry"
)

const defaultShutdownTimeout = 30 * time.Second

// Server gRPC сервер и HTTP сервер (Connect, OpenAPI) одного сервиса
type Server struct {
	grpc        *grpc.Server
	health      *health.Server
	mux         *http.ServeMux
	serviceName string
	config      *config.Config
	metrics     *metrics.Metrics
	gatherer    prometheus.Gatherer
	telemetry   *telemetry.Provider
	rateLimiter ratelimit.Limiter
	auditLogger audit.Logger
}

// Options дополнительные опции сервера
type Options struct {
	RateLimiter         ratelimit.Limiter
	AuditLogger         audit.Logger
	AuditDB             database.DB
	AuditExcludeMethods []string
	KeyExtractor        ratelimit.KeyExtractor
	Metrics             *metrics.Metrics
	Gatherer            prometheus.Gatherer
}

// New создаёт сервер по конфигурации
func New(cfg *config.Config) *Server {
	return NewWithOptions(cfg, nil)
}

// NewWithOptions создаёт сервер с дополнительными опциями
func NewWithOptions(cfg *config.Config, opts *Options) *Server {
	if opts == nil {
		opts = &Options{}
	}

	m := opts.Metrics
	if m == nil {
		m = metrics.Get()
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	limiter := opts.RateLimiter
	if limiter == nil && cfg.RateLimit.Enabled {
		limiter = newLimiter(cfg)
	}
	auditLog := opts.AuditLogger
	if auditLog == nil && cfg.Audit.Enabled {
		auditLog = newAuditLogger(cfg, opts.AuditDB)
	}
	if auditLog != nil {
		audit.SetGlobal(auditLog)
	}

	skip := interceptors.ExcludeSet(append(opts.AuditExcludeMethods, cfg.Audit.ExcludeMethods...))
	for _, method := range healthMethods {
		skip[method] = true
	}

	chain := &interceptors.ServerConfig{
		ServiceName:   cfg.App.Name,
		EnableTracing: cfg.Tracing.Enabled,
		EnableAudit:   auditLog != nil,
		Metrics:       m,
		RateLimiter:   limiter,
		KeyExtractor:  opts.KeyExtractor,
		AuditLogger:   auditLog,
		AuditExclude:  skip,
	}

	g := grpc.NewServer(grpcOptions(cfg.GRPC, chain)...)
	h := health.NewServer()
	grpc_health_v1.RegisterHealthServer(g, h)
	if cfg.IsDevelopment() {
		reflection.Register(g)
		logger.Log.Debug("gRPC reflection enabled")
	}

	srv := &Server{
		grpc:        g,
		health:      h,
		mux:         http.NewServeMux(),
		serviceName: cfg.App.Name,
		config:      cfg,
		metrics:     m,
		gatherer:    gatherer,
		rateLimiter: limiter,
		auditLogger: auditLog,
	}
	srv.mux.HandleFunc("/health", srv.handleHealth)
	if cfg.HTTP.Swagger {
		srv.mountSwagger()
	}
	return srv
}

// health пробы не попадают в аудит
var healthMethods = []string{
	"/grpc.health.v1.Health/Check",
	"/grpc.health.v1.Health/Watch",
}

func newLimiter(cfg *config.Config) ratelimit.Limiter {
	l, err := ratelimit.New(ratelimit.FromConfig(cfg.RateLimit, cfg.Redis))
	if err != nil {
		logger.Log.Warn("Rate limiter unavailable, requests are not limited", "error", err)
		return nil
	}
	logger.Log.Info("Rate limiter ready",
		"backend", cfg.RateLimit.Backend,
		"strategy", cfg.RateLimit.Strategy,
		"requests", cfg.RateLimit.Requests,
		"window", cfg.RateLimit.Window,
	)
	return l
}

func newAuditLogger(cfg *config.Config, db database.DB) audit.Logger {
	a := cfg.Audit
	l, err := audit.New(&audit.Config{
		Enabled:        a.Enabled,
		Backend:        a.Backend,
		FilePath:       a.FilePath,
		BufferSize:     a.BufferSize,
		FlushPeriod:    a.FlushPeriod,
		ExcludeMethods: a.ExcludeMethods,
	}, audit.WithDB(db))
	if err != nil {
		logger.Log.Warn("Audit log unavailable, calls are not audited", "error", err)
		return nil
	}
	logger.Log.Info("Audit log ready", "backend", a.Backend)
	return l
}

func grpcOptions(c config.GRPCConfig, chain *interceptors.ServerConfig) []grpc.ServerOption {
	ka := c.KeepAlive
	opts := []grpc.ServerOption{
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle:     ka.MaxConnectionIdle,
			MaxConnectionAge:      ka.MaxConnectionAge,
			MaxConnectionAgeGrace: ka.MaxConnectionAgeGrace,
			Time:                  ka.Time,
			Timeout:               ka.Timeout,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.UnaryInterceptor(interceptors.UnaryServerInterceptors(chain)),
		grpc.StreamInterceptor(interceptors.StreamServerInterceptors(chain)),
	}
	if c.MaxRecvMsgSize > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(c.MaxRecvMsgSize))
	}
	if c.MaxSendMsgSize > 0 {
		opts = append(opts, grpc.MaxSendMsgSize(c.MaxSendMsgSize))
	}
	return opts
}

func (s *Server) mountSwagger() {
	doc, err := openapi.GetSpec()
	if err != nil {
		logger.Log.Error("OpenAPI document missing, swagger disabled", "error", err)
		return
	}
	sc := swagger.DefaultConfig()
	sc.Title = s.config.App.Name + " API"
	sc.Version = s.config.App.Version
	swagger.RegisterRoutes(s.mux, sc, doc)
}

// GetEngine возвращает *grpc.Server для регистрации сервисов
func (s *Server) GetEngine() *grpc.Server {
	return s.grpc
}

// GetAuditLogger возвращает audit logger
func (s *Server) GetAuditLogger() audit.Logger {
	return s.auditLogger
}

// RateLimiter возвращает лимитер, общий для gRPC и HTTP
func (s *Server) RateLimiter() ratelimit.Limiter {
	return s.rateLimiter
}

// Metrics возвращает метрики сервера
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// Mount регистрирует HTTP обработчик (например, Connect) на HTTP сервере
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}

// Handler возвращает HTTP обработчик с поддержкой HTTP/2 без TLS
func (s *Server) Handler() http.Handler {
	return h2c.NewHandler(s.mux, &http2.Server{})
}

// Run слушает порты из конфигурации и обслуживает запросы до отмены ctx
// или SIGINT/SIGTERM
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lc := net.ListenConfig{}
	grpcLis, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", s.config.GRPC.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	var httpLis net.Listener
	if s.config.HTTP.Enabled {
		httpLis, err = lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", s.config.HTTP.Port))
		if err != nil {
			grpcLis.Close()
			return fmt.Errorf("failed to listen http: %w", err)
		}
	}

	return s.Serve(ctx, grpcLis, httpLis)
}

// Serve обслуживает уже открытые listener'ы. httpLis может быть nil.
// Возвращает nil после штатной остановки по ctx.
func (s *Server) Serve(ctx context.Context, grpcLis, httpLis net.Listener) error {
	s.initTelemetry(ctx)

	var metricsSrv *http.Server
	if s.config.Metrics.Enabled {
		metricsSrv = metrics.NewServer(s.config.Metrics.Port, s.config.Metrics.Path, s.gatherer)
		go func() {
			logger.Log.Info("Starting metrics server",
				"port", s.config.Metrics.Port,
				"path", s.config.Metrics.Path,
			)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Log.Error("Metrics server failed", "error", err)
			}
		}()
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Log.Info("Starting gRPC server",
			"service", s.serviceName,
			"addr", grpcLis.Addr().String(),
			"environment", s.config.App.Environment,
			"version", s.config.App.Version,
		)
		if err := s.grpc.Serve(grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	var httpSrv *http.Server
	if httpLis != nil {
		httpSrv = &http.Server{
			Handler:      s.Handler(),
			ReadTimeout:  s.config.HTTP.ReadTimeout,
			WriteTimeout: s.config.HTTP.WriteTimeout,
		}
		go func() {
			logger.Log.Info("Starting HTTP server",
				"addr", httpLis.Addr().String(),
				"protocol", "HTTP/1.1 + H2C (Connect)",
				"swagger", s.config.HTTP.Swagger,
			)
			if err := httpSrv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("http server: %w", err)
			}
		}()
	}

	s.health.SetServingStatus(s.serviceName, grpc_health_v1.HealthCheckResponse_SERVING)
	s.metrics.SetServiceInfo(s.config.App.Version, s.config.App.Environment)

	var serveErr error
	select {
	case serveErr = <-errCh:
		logger.Log.Error("Server failed", "error", serveErr)
	case <-ctx.Done():
		logger.Log.Info("Shutdown requested", "reason", context.Cause(ctx))
	}

	s.shutdown(httpSrv, metricsSrv)
	return serveErr
}

func (s *Server) initTelemetry(ctx context.Context) {
	if !s.config.Tracing.Enabled {
		return
	}

	tp, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:     s.config.Tracing.Enabled,
		Endpoint:    s.config.Tracing.Endpoint,
		ServiceName: s.config.Tracing.ServiceName,
		Version:     s.config.App.Version,
		Environment: s.config.App.Environment,
		SampleRate:  s.config.Tracing.SampleRate,
	})
	if err != nil {
		logger.Log.Warn("Failed to init telemetry", "error", err)
		return
	}

	s.telemetry = tp
	logger.Log.Info("Telemetry initialized",
		"endpoint", s.config.Tracing.Endpoint,
		"sample_rate", s.config.Tracing.SampleRate,
	)
}

func (s *Server) shutdown(httpSrv, metricsSrv *http.Server) {
	timeout := s.config.HTTP.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.health.SetServingStatus(s.serviceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	for _, srv := range []*http.Server{httpSrv, metricsSrv} {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(ctx); err != nil {
			logger.Log.Warn("HTTP server shutdown error", "error", err)
		}
	}

	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		logger.Log.Info("Server stopped gracefully")
	case <-ctx.Done():
		logger.Log.Warn("Forcing server stop")
		s.grpc.Stop()
	}

	if s.telemetry != nil {
		if err := s.telemetry.Shutdown(ctx); err != nil {
			logger.Log.Warn("Failed to shutdown telemetry", "error", err)
		}
	}

	closers := []struct {
		name string
		c    interface{ Close() error }
	}{
		{"rate limiter", s.rateLimiter},
		{"audit log", s.auditLogger},
	}
	for _, cl := range closers {
		if cl.c == nil {
			continue
		}
		if err := cl.c.Close(); err != nil {
			logger.Log.Warn("Close failed", "component", cl.name, "error", err)
		}
	}
}

// handleHealth HTTP проба для k8s
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp, err := s.health.Check(r.Context(), &grpc_health_v1.HealthCheckRequest{Service: s.serviceName})
	w.Header().Set("Content-Type", "application/json")
	if err != nil || resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"not_serving"}`))
		return
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// SetServingStatus устанавливает статус сервиса
func (s *Server) SetServingStatus(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus(s.serviceName, status)
}

// Stop останавливает сервер немедленно
func (s *Server) Stop() {
	s.grpc.Stop()
}

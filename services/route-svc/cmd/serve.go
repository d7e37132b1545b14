package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"routefinder/migrations"
	"routefinder/pkg/audit"
	"routefinder/pkg/cache"
	"routefinder/pkg/config"
	"routefinder/pkg/database"
	"routefinder/pkg/logger"
	"routefinder/pkg/metrics"
	"routefinder/pkg/server"
	"routefinder/services/route-svc/internal/service"
	"routefinder/services/route-svc/internal/transport"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gRPC and HTTP servers",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	// =========================================================================
	// Configuration and logging
	// =========================================================================
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	initLogger(cfg, cfg.Log.Output)

	// =========================================================================
	// Metrics (Prometheus)
	// =========================================================================
	//
	// Глобальные метрики в default registry; сервер отдаёт их на metrics.port.
	metrics.InitMetrics(cfg.Metrics.Namespace, "")

	// =========================================================================
	// Audit database (only for audit.backend=postgres)
	// =========================================================================
	auditDB, closeDB, err := openAuditDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	// =========================================================================
	// Server and service registration
	// =========================================================================
	srv := server.NewWithOptions(cfg, &server.Options{AuditDB: auditDB})

	opts := []service.Option{
		service.WithServiceName(cfg.App.Name),
		service.WithMetrics(srv.Metrics()),
	}
	if routeCache := openRouteCache(ctx, cfg); routeCache != nil {
		defer routeCache.Close()
		opts = append(opts, service.WithCache(routeCache))
	}

	routes := service.NewRouteService(cfg.Routing, opts...)
	routeServer := transport.NewRouteServer(routes, cfg.Routing.DefaultMaxRouteLength)
	transport.RegisterRouteServiceServer(srv.GetEngine(), routeServer)

	path, handler := transport.NewConnectHandler(routeServer, transport.ConnectOptions(transport.ConnectConfig{
		Metrics:     srv.Metrics(),
		RateLimiter: srv.RateLimiter(),
	})...)
	srv.Mount(path, handler)

	logger.Info("Starting route service",
		"grpc_port", cfg.GRPC.Port,
		"http_port", cfg.HTTP.Port,
		"environment", cfg.App.Environment,
		"version", cfg.App.Version,
		"max_vertices", cfg.Routing.MaxVertices,
	)

	// Блокирует до сигнала; завершение graceful
	return srv.Run(ctx)
}

// openAuditDB подключается к PostgreSQL, если аудит пишется туда.
// Миграции применяются при database.auto_migrate.
func openAuditDB(ctx context.Context, cfg *config.Config) (database.DB, func(), error) {
	if !cfg.Audit.Enabled || cfg.Audit.Backend != "postgres" {
		return nil, func() {}, nil
	}

	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to audit database: %w", err)
	}
	if err := database.RunMigrations(ctx, db.Pool, &cfg.Database, migrations.Postgres()); err != nil {
		db.Close()
		return nil, nil, err
	}

	return db, db.Close, nil
}

// openRouteCache создаёт кэш результатов при cache.enabled.
// Недоступный Redis не мешает старту: сервис работает без кэша.
func openRouteCache(ctx context.Context, cfg *config.Config) *cache.RouteCache {
	if !cfg.Cache.Enabled {
		return nil
	}

	c, err := cache.New(cache.FromConfig(cfg.Cache, cfg.Redis))
	if err != nil {
		logger.WithContext(ctx).Warn("Route cache disabled", "driver", cfg.Cache.Driver, "error", err)
		return nil
	}
	rc := cache.NewRouteCache(c, cfg.Cache.DefaultTTL)

	collector := metrics.NewCacheCollector(cfg.Metrics.Namespace, cfg.Cache.Driver,
		func(ctx context.Context) (metrics.CacheSnapshot, error) {
			s, err := rc.Stats(ctx)
			if err != nil {
				return metrics.CacheSnapshot{}, err
			}
			return metrics.CacheSnapshot{Entries: s.TotalKeys, MemoryBytes: s.MemoryBytes}, nil
		})
	if err := prometheus.Register(collector); err != nil {
		logger.WithContext(ctx).Warn("Failed to register cache collector", "error", err)
	}

	logger.WithContext(ctx).Info("Route cache enabled", "driver", cfg.Cache.Driver, "ttl", cfg.Cache.DefaultTTL)
	return rc
}

// auditConfig переводит секцию audit в конфигурацию логгера
func auditConfig(cfg *config.Config) *audit.Config {
	return &audit.Config{
		Enabled:        cfg.Audit.Enabled,
		Backend:        cfg.Audit.Backend,
		FilePath:       cfg.Audit.FilePath,
		BufferSize:     cfg.Audit.BufferSize,
		FlushPeriod:    cfg.Audit.FlushPeriod,
		ExcludeMethods: cfg.Audit.ExcludeMethods,
	}
}

// Package main is the entry point for route-svc.
//
// route-svc finds single-source shortest routes in a dense adjacency matrix.
// The matrix is classified first and exactly one algorithm runs per query:
// BFS when every off-diagonal weight is 0 or 1, Dijkstra when no edge is
// negative, Bellman-Ford otherwise. Vertices affected by a negative cycle are
// reported with distance -INF.
//
// # Commands
//
//	route-svc console <input> <output> <errors>
//	    Interactive menu over a matrix file. Errors are appended to <errors>.
//
//	route-svc serve
//	    gRPC server plus a Connect/HTTP endpoint, health, OpenAPI and metrics.
//
//	route-svc query --matrix m.txt --source 1 [--max 10] [--addr host:port]
//	    Calls a running server and prints the routes the way the console does.
//
//	route-svc migrate [up|down|status]
//	    Applies the audit_logs migrations to PostgreSQL.
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────┐
//	│          gRPC (structpb)         │     Connect / HTTP      │
//	│  Interceptors: recovery, logging, metrics, tracing,        │
//	│  rate-limit, validation, audit                             │
//	├─────────────────────────────────────────────────────────────┤
//	│                      Service Layer                          │
//	│  (internal/service/routes.go - RouteService)                │
//	│  - Matrix validation and size limit                         │
//	│  - Spans, metrics, audit entries                            │
//	├─────────────────────────────────────────────────────────────┤
//	│                      Algorithm Layer                        │
//	│  (internal/algorithms/*.go)                                 │
//	│  - Classification and selection                             │
//	│  - BFS, Dijkstra, Bellman-Ford with poisoning               │
//	├─────────────────────────────────────────────────────────────┤
//	│                       Domain Layer                          │
//	│  (pkg/domain)                                               │
//	│  - Matrix, Distance with ±INF, route reconstruction         │
//	└─────────────────────────────────────────────────────────────┘
//
// # Configuration
//
// Configuration is loaded with the following priority (highest to lowest):
//  1. Environment variables (prefix: ROUTEFINDER_)
//  2. YAML file: --config, else CONFIG_PATH, else the first existing of
//     config.yaml, config/config.yaml, /etc/routefinder/config.yaml
//  3. Default values
//
// Routing options:
//
//	ROUTEFINDER_ROUTING_DEFAULT_MAX_ROUTE_LENGTH - Used when a request omits max_route_length
//	ROUTEFINDER_ROUTING_MAX_VERTICES             - Largest accepted matrix (0 = unlimited)
//	ROUTEFINDER_ROUTING_EXPORT_FORMAT            - Console report format: txt, xlsx, pdf
//
// # Error Handling
//
// The service returns standard gRPC status codes:
//
//	INVALID_ARGUMENT (3)   - Malformed or empty matrix, bad source or max length
//	DEADLINE_EXCEEDED (4)  - Query timeout
//	NOT_FOUND (5)          - Matrix file not found
//	RESOURCE_EXHAUSTED (8) - Rate limit exceeded or matrix too large
//	OUT_OF_RANGE (11)      - Source vertex outside [0, n)
//	INTERNAL (13)          - Unexpected failure
//
// The application code (for example OUT_OF_RANGE_VERTEX) travels in the
// status details and in the X-Error-Code header on the Connect endpoint.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"routefinder/pkg/config"
	"routefinder/pkg/logger"
	"routefinder/services/route-svc/internal/service"
)

// defaultPort порт gRPC по умолчанию
const defaultPort = 50051

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "route-svc",
		Short:         "Single-source shortest routes over an adjacency matrix",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file (overrides CONFIG_PATH)")

	root.AddCommand(
		newConsoleCmd(),
		newServeCmd(),
		newQueryCmd(),
		newMigrateCmd(),
	)
	return root
}

// configFile значение глобального флага --config
var configFile string

// loadConfig загружает конфигурацию с умолчаниями route-svc
func loadConfig() (*config.Config, error) {
	l := config.NewLoader(
		config.ForService(service.ServiceName, defaultPort),
		config.WithFile(configFile),
	)
	cfg, err := l.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if src := l.Source(); src != "" {
		logger.Debug("config file loaded", "path", src)
	}
	return cfg, nil
}

func initLogger(cfg *config.Config, output string) {
	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix    = "ROUTEFINDER_"
	configEnvVar = "CONFIG_PATH"

	defaultAppName  = "routefinder"
	defaultGRPCPort = 50051
)

var defaultSearchPaths = []string{
	"config.yaml",
	"config/config.yaml",
	"/etc/routefinder/config.yaml",
}

// Loader собирает Config из трёх слоёв: defaults < yaml < env.
type Loader struct {
	k         *koanf.Koanf
	paths     []string
	explicit  string
	prefix    string
	overrides map[string]any
	envKeys   map[string]string
	source    string
}

// LoaderOption настраивает Loader
type LoaderOption func(*Loader)

// WithConfigPaths заменяет список путей поиска yaml
func WithConfigPaths(paths ...string) LoaderOption {
	return func(l *Loader) { l.paths = paths }
}

// WithFile обязательный yaml, важнее CONFIG_PATH
func WithFile(path string) LoaderOption {
	return func(l *Loader) { l.explicit = path }
}

// WithEnvPrefix префикс переменных окружения
func WithEnvPrefix(prefix string) LoaderOption {
	return func(l *Loader) { l.prefix = prefix }
}

// ForService подменяет имя и порт сервиса в слое defaults,
// поэтому yaml и env по-прежнему их перекрывают.
func ForService(name string, port int) LoaderOption {
	return func(l *Loader) {
		if name != "" {
			l.overrides["app.name"] = name
			l.overrides["tracing.service_name"] = name
		}
		if port != 0 {
			l.overrides["grpc.port"] = port
		}
	}
}

// NewLoader создаёт загрузчик со стандартными путями и префиксом ROUTEFINDER_
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		paths:     defaultSearchPaths,
		prefix:    envPrefix,
		overrides: map[string]any{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load читает все слои и валидирует результат
func (l *Loader) Load() (*Config, error) {
	if err := l.loadDefaults(); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if err := l.loadFile(); err != nil {
		return nil, err
	}
	if err := l.loadEnv(); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := new(Config)
	if err := l.k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Source путь прочитанного yaml или пустая строка, если файла не было
func (l *Loader) Source() string {
	return l.source
}

// Load загружает конфигурацию с настройками по умолчанию
func Load(opts ...LoaderOption) (*Config, error) {
	return NewLoader(opts...).Load()
}

func defaults() map[string]any {
	return map[string]any{
		"app.name":        defaultAppName,
		"app.version":     "1.0.0",
		"app.environment": "development",
		"app.debug":       false,

		// gRPC
		"grpc.port":                               defaultGRPCPort,
		"grpc.max_recv_msg_size":                  16 * 1024 * 1024,
		"grpc.max_send_msg_size":                  16 * 1024 * 1024,
		"grpc.keepalive.max_connection_idle":      15 * time.Minute,
		"grpc.keepalive.max_connection_age":       30 * time.Minute,
		"grpc.keepalive.max_connection_age_grace": 5 * time.Minute,
		"grpc.keepalive.time":                     5 * time.Minute,
		"grpc.keepalive.timeout":                  20 * time.Second,

		// HTTP
		"http.enabled":          true,
		"http.port":             8080,
		"http.read_timeout":     30 * time.Second,
		"http.write_timeout":    30 * time.Second,
		"http.shutdown_timeout": 10 * time.Second,
		"http.swagger":          true,

		// Log
		"log.level":       "info",
		"log.format":      "json",
		"log.output":      "stdout",
		"log.file_path":   "",
		"log.max_size":    100,
		"log.max_backups": 3,
		"log.max_age":     7,
		"log.compress":    true,

		// Error log
		"error_log.path":          "",
		"error_log.fallback_path": "errors.txt",
		"error_log.max_size":      10,
		"error_log.max_backups":   3,

		// Metrics
		"metrics.enabled":   true,
		"metrics.port":      9090,
		"metrics.path":      "/metrics",
		"metrics.namespace": "routefinder",

		// Tracing
		"tracing.enabled":      false,
		"tracing.endpoint":     "localhost:4317",
		"tracing.service_name": defaultAppName,
		"tracing.sample_rate":  0.1,

		// Database
		"database.host":               "localhost",
		"database.port":               5432,
		"database.database":           "routefinder",
		"database.username":           "postgres",
		"database.password":           "",
		"database.ssl_mode":           "disable",
		"database.max_open_conns":     10,
		"database.max_idle_conns":     2,
		"database.conn_max_lifetime":  5 * time.Minute,
		"database.conn_max_idle_time": 5 * time.Minute,
		"database.auto_migrate":       true,

		// Redis
		"redis.host":     "localhost",
		"redis.port":     6379,
		"redis.password": "",
		"redis.db":       0,

		// Cache
		"cache.enabled":     false,
		"cache.driver":      "memory",
		"cache.default_ttl": 10 * time.Minute,
		"cache.max_entries": 10000,

		// Rate Limit
		"rate_limit.enabled":          true,
		"rate_limit.requests":         100,
		"rate_limit.window":           time.Minute,
		"rate_limit.strategy":         "sliding_window",
		"rate_limit.backend":          "memory",
		"rate_limit.burst_size":       10,
		"rate_limit.cleanup_interval": 5 * time.Minute,

		// Audit
		"audit.enabled":         true,
		"audit.backend":         "stdout",
		"audit.file_path":       "logs/audit.log",
		"audit.buffer_size":     1000,
		"audit.flush_period":    5 * time.Second,
		"audit.exclude_methods": []string{"/grpc.health.v1.Health/Check", "/grpc.health.v1.Health/Watch"},

		// Retry
		"retry.max_attempts":    3,
		"retry.initial_backoff": 100 * time.Millisecond,
		"retry.timeout":         30 * time.Second,

		// Routing
		"routing.default_max_route_length": int64(1) << 62,
		"routing.max_vertices":             2000,
		"routing.export_format":            "xlsx",
	}
}

func (l *Loader) loadDefaults() error {
	d := defaults()
	for k, v := range l.overrides {
		d[k] = v
	}

	// ROUTEFINDER_RATE_LIMIT_BURST_SIZE -> rate_limit.burst_size
	l.envKeys = make(map[string]string, len(d))
	for key := range d {
		l.envKeys[strings.ReplaceAll(key, ".", "_")] = key
	}
	return l.k.Load(confmap.Provider(d, "."), nil)
}

// loadFile: явно заданный файл (WithFile или CONFIG_PATH) обязан существовать,
// файлы из путей поиска необязательны.
func (l *Loader) loadFile() error {
	explicit := l.explicit
	if explicit == "" {
		explicit = os.Getenv(configEnvVar)
	}
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return fmt.Errorf("config file: %w", err)
		}
		return l.loadYAML(explicit)
	}

	for _, p := range l.paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		if _, err := os.Stat(abs); err != nil {
			continue
		}
		return l.loadYAML(abs)
	}
	return nil
}

func (l *Loader) loadYAML(path string) error {
	if err := l.k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	l.source = path
	return nil
}

func (l *Loader) loadEnv() error {
	return l.k.Load(env.ProviderWithValue(l.prefix, ".", func(name, value string) (string, any) {
		key := l.keyFor(name)
		if listKeys[key] {
			return key, splitAndTrim(value)
		}
		return key, value
	}), nil)
}

// keyFor ищет ключ среди defaults, иначе каждое "_" становится "."
func (l *Loader) keyFor(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, l.prefix))
	if mapped, ok := l.envKeys[key]; ok {
		return mapped
	}
	return strings.ReplaceAll(key, "_", ".")
}

// listKeys значения через запятую
var listKeys = map[string]bool{
	"audit.exclude_methods": true,
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

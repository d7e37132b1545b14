// Package config собирает настройки route-svc из defaults, YAML и env.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Config корневая структура, ключи koanf совпадают с YAML
type Config struct {
	App       AppConfig       `koanf:"app"`
	GRPC      GRPCConfig      `koanf:"grpc"`
	HTTP      HTTPConfig      `koanf:"http"`
	Log       LogConfig       `koanf:"log"`
	ErrorLog  ErrorLogConfig  `koanf:"error_log"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Tracing   TracingConfig   `koanf:"tracing"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Cache     CacheConfig     `koanf:"cache"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Audit     AuditConfig     `koanf:"audit"`
	Retry     RetryConfig     `koanf:"retry"`
	Routing   RoutingConfig   `koanf:"routing"`
}

// AppConfig имя, версия и окружение
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
	Debug       bool   `koanf:"debug"`
}

// GRPCConfig порт и лимиты gRPC сервера
type GRPCConfig struct {
	Port           int             `koanf:"port"`
	MaxRecvMsgSize int             `koanf:"max_recv_msg_size"` // bytes
	MaxSendMsgSize int             `koanf:"max_send_msg_size"` // bytes
	KeepAlive      KeepAliveConfig `koanf:"keepalive"`
}

// KeepAliveConfig соответствует keepalive.ServerParameters
type KeepAliveConfig struct {
	MaxConnectionIdle     time.Duration `koanf:"max_connection_idle"`
	MaxConnectionAge      time.Duration `koanf:"max_connection_age"`
	MaxConnectionAgeGrace time.Duration `koanf:"max_connection_age_grace"`
	Time                  time.Duration `koanf:"time"`
	Timeout               time.Duration `koanf:"timeout"`
}

// HTTPConfig Connect endpoint, swagger и health на одном порту
type HTTPConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Swagger         bool          `koanf:"swagger"`
}

// LogConfig параметры logger.Config
type LogConfig struct {
	Level      string `koanf:"level"`       // debug, info, warn, error
	Format     string `koanf:"format"`      // json, text
	Output     string `koanf:"output"`      // stdout, stderr, file
	FilePath   string `koanf:"file_path"`   // путь к файлу логов
	MaxSize    int    `koanf:"max_size"`    // MB
	MaxBackups int    `koanf:"max_backups"` // количество бэкапов
	MaxAge     int    `koanf:"max_age"`     // дней
	Compress   bool   `koanf:"compress"`
}

// ErrorLogConfig файл ошибок консольного режима
type ErrorLogConfig struct {
	Path         string `koanf:"path"`
	FallbackPath string `koanf:"fallback_path"`
	MaxSize      int    `koanf:"max_size"` // MB
	MaxBackups   int    `koanf:"max_backups"`
}

// MetricsConfig отдельный порт для /metrics
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Port      int    `koanf:"port"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
}

// TracingConfig OTLP/gRPC экспорт спанов
type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// DatabaseConfig PostgreSQL для журнала аудита
type DatabaseConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Database        string        `koanf:"database"`
	Username        string        `koanf:"username"`
	Password        string        `koanf:"password"`
	SSLMode         string        `koanf:"ssl_mode"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

// RedisConfig общий Redis для rate limiting и кэша маршрутов
type RedisConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// Address host:port
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// CacheConfig - кэш результатов FindRoutes
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Driver     string        `koanf:"driver"` // memory, redis
	DefaultTTL time.Duration `koanf:"default_ttl"`
	MaxEntries int           `koanf:"max_entries"` // для in-memory
}

// RateLimitConfig лимит запросов на клиента
type RateLimitConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Requests        int           `koanf:"requests"`
	Window          time.Duration `koanf:"window"`
	Strategy        string        `koanf:"strategy"` // token_bucket, sliding_window
	Backend         string        `koanf:"backend"`  // memory, redis
	BurstSize       int           `koanf:"burst_size"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// AuditConfig куда и как буферизуется аудит
type AuditConfig struct {
	Enabled        bool          `koanf:"enabled"`
	Backend        string        `koanf:"backend"` // stdout, file, postgres, noop
	FilePath       string        `koanf:"file_path"`
	BufferSize     int           `koanf:"buffer_size"`
	FlushPeriod    time.Duration `koanf:"flush_period"`
	ExcludeMethods []string      `koanf:"exclude_methods"`
}

// RetryConfig политика повторов клиента (команда query)
type RetryConfig struct {
	MaxAttempts    int           `koanf:"max_attempts"`
	InitialBackoff time.Duration `koanf:"initial_backoff"`
	Timeout        time.Duration `koanf:"timeout"`
}

// RoutingConfig параметры поиска маршрутов
type RoutingConfig struct {
	DefaultMaxRouteLength int64  `koanf:"default_max_route_length"`
	MaxVertices           int    `koanf:"max_vertices"`
	ExportFormat          string `koanf:"export_format"` // txt, xlsx, pdf
}

var (
	logLevels     = []string{"debug", "info", "warn", "error"}
	exportFormats = []string{"txt", "xlsx", "pdf"}
	auditBackends = []string{"stdout", "file", "postgres", "noop"}
	storeBackends = []string{"memory", "redis"}
)

// problems накапливает все ошибки валидации, чтобы вернуть их одним сообщением
type problems []string

func (p *problems) check(ok bool, format string, args ...any) {
	if !ok {
		*p = append(*p, fmt.Sprintf(format, args...))
	}
}

func (p *problems) oneOf(key, value string, allowed []string) {
	p.check(slices.Contains(allowed, value), "%s must be one of: %s, got %q",
		key, strings.Join(allowed, ", "), value)
}

// Validate проверяет конфигурацию. Пустой log.level заменяется на info.
func (c *Config) Validate() error {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	var p problems
	p.check(c.App.Name != "", "app.name is required")
	p.check(c.GRPC.Port > 0 && c.GRPC.Port <= 65535, "grpc.port must be between 1 and 65535, got %d", c.GRPC.Port)
	p.oneOf("log.level", strings.ToLower(c.Log.Level), logLevels)
	p.check(c.Routing.MaxVertices >= 0, "routing.max_vertices must be non-negative, got %d", c.Routing.MaxVertices)
	if c.Routing.ExportFormat != "" {
		p.oneOf("routing.export_format", c.Routing.ExportFormat, exportFormats)
	}
	if c.Audit.Enabled {
		p.oneOf("audit.backend", c.Audit.Backend, auditBackends)
	}
	if c.Cache.Enabled {
		p.oneOf("cache.driver", c.Cache.Driver, storeBackends)
	}
	if c.RateLimit.Enabled {
		p.check(c.RateLimit.Requests > 0, "rate_limit.requests must be positive")
		p.oneOf("rate_limit.backend", c.RateLimit.Backend, storeBackends)
	}

	if len(p) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(p, "; "))
	}
	return nil
}

// IsDevelopment development или dev
func (c *Config) IsDevelopment() bool {
	switch c.App.Environment {
	case "development", "dev":
		return true
	}
	return false
}

package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultLogFile = "logs/route-svc.log"

// Log глобальный логгер. До вызова Init пишет текст в stderr.
var Log = slog.New(slog.NewTextHandler(os.Stderr, nil))

// Config конфигурация логгера
type Config struct {
	Level      string
	Format     string // json | text
	Output     string // stdout | stderr | file | discard
	FilePath   string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // дни
	Compress   bool
}

// Init JSON в stdout с заданным уровнем
func Init(level string) {
	InitWithConfig(Config{Level: level, Format: "json", Output: "stdout"})
}

// ParseLevel неизвестные значения дают info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// InitWithConfig пересоздаёт глобальный логгер
func InitWithConfig(cfg Config) {
	Log = slog.New(newHandler(cfg))
}

func newHandler(cfg Config) slog.Handler {
	lvl := ParseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: lvl, AddSource: lvl == slog.LevelDebug}

	w := newWriter(cfg)
	if cfg.Format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// newWriter при ошибке создания каталога откатывается на stdout
func newWriter(cfg Config) io.Writer {
	switch cfg.Output {
	case "stderr":
		return os.Stderr
	case "discard":
		return io.Discard
	case "file":
	default:
		return os.Stdout
	}

	path := cfg.FilePath
	if path == "" {
		path = defaultLogFile
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return os.Stdout
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
}

type requestIDKey struct{}

// ContextWithRequestID кладёт request ID в контекст
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext пустая строка, если ID нет
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithContext добавляет request_id и, при активном спане, trace_id/span_id
func WithContext(ctx context.Context, args ...any) *slog.Logger {
	attrs := make([]any, 0, len(args)+6)
	if id := RequestIDFromContext(ctx); id != "" {
		attrs = append(attrs, "request_id", id)
	}
	if ctx != nil {
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			attrs = append(attrs, "trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
		}
	}
	attrs = append(attrs, args...)
	if len(attrs) == 0 {
		return Log
	}
	return Log.With(attrs...)
}

func Debug(msg string, args ...any) { Log.Debug(msg, args...) }
func Info(msg string, args ...any)  { Log.Info(msg, args...) }
func Warn(msg string, args ...any)  { Log.Warn(msg, args...) }
func Error(msg string, args ...any) { Log.Error(msg, args...) }

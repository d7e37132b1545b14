package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sync"

	"routefinder/pkg/database"
	"routefinder/pkg/logger"
)

const stdoutPrefix = "[AUDIT] "

func encodeLine(entry *Entry) ([]byte, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// StdoutLogger prints each entry as one "[AUDIT] {json}" line.
type StdoutLogger struct {
	config *Config
	mu     sync.Mutex
	out    io.Writer
}

// NewStdoutLogger writes to os.Stdout.
func NewStdoutLogger(cfg *Config) *StdoutLogger {
	return NewWriterLogger(cfg, os.Stdout)
}

// NewWriterLogger writes to w.
func NewWriterLogger(cfg *Config, w io.Writer) *StdoutLogger {
	return &StdoutLogger{config: cfg, out: w}
}

func (l *StdoutLogger) Log(_ context.Context, entry *Entry) error {
	if !l.config.Enabled {
		return nil
	}
	line, err := encodeLine(entry)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := io.WriteString(l.out, stdoutPrefix); err != nil {
		return err
	}
	_, err = l.out.Write(line)
	return err
}

func (l *StdoutLogger) Close() error { return nil }

// NoopLogger discards entries.
type NoopLogger struct{}

func (NoopLogger) Log(context.Context, *Entry) error { return nil }
func (NoopLogger) Close() error                      { return nil }

// Option configures New.
type Option func(*options)

type options struct {
	db     database.DB
	writer io.Writer
}

// WithDB supplies the pool for the postgres backend.
func WithDB(db database.DB) Option {
	return func(o *options) { o.db = db }
}

// WithWriter redirects the stdout backend.
func WithWriter(w io.Writer) Option {
	return func(o *options) { o.writer = w }
}

var errNoDB = errors.New("audit backend postgres requires a database connection")

// New builds the backend named by cfg.Backend.
// nil cfg means DefaultConfig, a disabled cfg gives NoopLogger,
// an unknown backend falls back to stdout with a warning.
func New(cfg *Config, opts ...Option) (Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if !cfg.Enabled {
		return &NoopLogger{}, nil
	}

	o := options{writer: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	switch cfg.Backend {
	case "noop":
		return &NoopLogger{}, nil
	case "file":
		return NewFileLogger(cfg)
	case "postgres":
		if o.db == nil {
			return nil, errNoDB
		}
		return NewPostgresLogger(cfg, o.db), nil
	case "", "stdout":
	default:
		logger.Warn("Unknown audit backend, using stdout", "backend", cfg.Backend)
	}
	return NewWriterLogger(cfg, o.writer), nil
}

var (
	globalMu sync.RWMutex
	global   Logger = &NoopLogger{}
)

// SetGlobal replaces the package-level logger used by Log.
func SetGlobal(l Logger) {
	globalMu.Lock()
	global = l
	globalMu.Unlock()
}

// Get returns the package-level logger.
func Get() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// Log records through the package-level logger.
func Log(ctx context.Context, entry *Entry) error {
	return Get().Log(ctx, entry)
}

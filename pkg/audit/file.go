package audit

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"routefinder/pkg/logger"
)

const (
	defaultAuditFile   = "audit.log"
	defaultBufferSize  = 1000
	defaultFlushPeriod = 5 * time.Second
)

// ErrClosed is returned by Log after Close.
var ErrClosed = errors.New("audit: logger closed")

// FileLogger appends JSON lines to a size-rotated file.
// A single goroutine owns the buffered writer; Log only enqueues encoded lines
// and blocks while the queue is full.
type FileLogger struct {
	config *Config
	file   io.WriteCloser
	queue  chan []byte
	stop   chan struct{}
	done   chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// NewFileLogger opens cfg.FilePath (audit.log when empty) and starts the writer goroutine.
func NewFileLogger(cfg *Config) (*FileLogger, error) {
	if cfg.FilePath == "" {
		cfg.FilePath = defaultAuditFile
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, fmt.Errorf("audit: create log directory: %w", err)
	}

	size := cfg.BufferSize
	if size <= 0 {
		size = defaultBufferSize
	}

	l := &FileLogger{
		config: cfg,
		file:   &lumberjack.Logger{Filename: cfg.FilePath, MaxSize: 100, MaxBackups: 5},
		queue:  make(chan []byte, size),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go l.run()
	return l, nil
}

// Log encodes the entry and hands it to the writer goroutine.
func (l *FileLogger) Log(ctx context.Context, entry *Entry) error {
	if !l.config.Enabled {
		return nil
	}
	line, err := encodeLine(entry)
	if err != nil {
		return err
	}

	select {
	case <-l.stop:
		return ErrClosed
	default:
	}

	select {
	case l.queue <- line:
		return nil
	case <-l.stop:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains queued lines, flushes and closes the file. Safe to call twice.
func (l *FileLogger) Close() error {
	l.closeOnce.Do(func() {
		close(l.stop)
		<-l.done
		l.closeErr = l.file.Close()
	})
	return l.closeErr
}

func (l *FileLogger) run() {
	defer close(l.done)

	period := l.config.FlushPeriod
	if period <= 0 {
		period = defaultFlushPeriod
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	w := bufio.NewWriter(l.file)
	write := func(line []byte) {
		if _, err := w.Write(line); err != nil {
			logger.Warn("Failed to write audit entry", "error", err)
		}
	}
	flush := func() {
		if err := w.Flush(); err != nil {
			logger.Warn("Failed to flush audit log", "error", err)
		}
	}

	for {
		select {
		case line := <-l.queue:
			write(line)
		case <-ticker.C:
			flush()
		case <-l.stop:
			for {
				select {
				case line := <-l.queue:
					write(line)
				default:
					flush()
					return
				}
			}
		}
	}
}

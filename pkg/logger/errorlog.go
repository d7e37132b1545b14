package logger

import (
	"io"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ErrorLogTimeFormat формат метки времени в журнале ошибок
const ErrorLogTimeFormat = "2006-01-02 15:04:05"

// DefaultErrorLogFallback файл, куда пишется журнал, если основной недоступен
const DefaultErrorLogFallback = "errors.txt"

// ErrorLogConfig конфигурация журнала ошибок
type ErrorLogConfig struct {
	Path         string
	FallbackPath string
	MaxSize      int // MB
	MaxBackups   int
}

// ErrorLog журнал ошибок только на дозапись.
// Каждая запись — строка "YYYY-MM-DD HH:MM:SS\t<сообщение>".
type ErrorLog struct {
	mu       sync.Mutex
	primary  io.WriteCloser
	fallback io.WriteCloser
	now      func() time.Time
}

// NewErrorLog создаёт журнал ошибок. Файлы открываются при первой записи.
func NewErrorLog(cfg ErrorLogConfig) *ErrorLog {
	if cfg.FallbackPath == "" {
		cfg.FallbackPath = DefaultErrorLogFallback
	}
	return &ErrorLog{
		primary: &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
		},
		fallback: &lumberjack.Logger{
			Filename:   cfg.FallbackPath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
		},
		now: time.Now,
	}
}

// Write записывает сообщение с меткой времени.
// Если основной файл недоступен, запись уходит в резервный.
func (l *ErrorLog) Write(msg string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := l.now().Format(ErrorLogTimeFormat) + "\t" + msg + "\n"
	if _, err := io.WriteString(l.primary, line); err == nil {
		return nil
	}
	_, err := io.WriteString(l.fallback, line)
	return err
}

// WriteError записывает текст ошибки и дублирует его в основной логгер
func (l *ErrorLog) WriteError(err error) {
	if err == nil {
		return
	}
	if werr := l.Write(err.Error()); werr != nil {
		Log.Error("Failed to write error log", "error", werr)
	}
	Log.Warn("Operation failed", "error", err)
}

// Close закрывает оба файла
func (l *ErrorLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.primary.Close()
	if ferr := l.fallback.Close(); err == nil {
		err = ferr
	}
	return err
}

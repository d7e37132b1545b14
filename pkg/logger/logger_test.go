package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
)

func TestInit(t *testing.T) {
	levels := []string{"debug", "info", "warn", "error", "unknown"}
	for _, level := range levels {
		Init(level)
		if Log == nil {
			t.Errorf("Init(%s) should set Log", level)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitWithConfig(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"json format stdout", Config{Level: "info", Format: "json", Output: "stdout"}},
		{"text format stderr", Config{Level: "debug", Format: "text", Output: "stderr"}},
		{"discard", Config{Level: "info", Output: "discard"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitWithConfig(tt.config)
			if Log == nil {
				t.Error("Log should not be nil")
			}
		})
	}
}

func TestInitWithConfig_FileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "test.log")

	InitWithConfig(Config{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logPath,
	})
	Log.Info("test message", "vertices", 3)

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "test message" {
		t.Errorf("msg = %v", entry["msg"])
	}
}

func TestInitWithConfig_FileOutputInvalidDir(t *testing.T) {
	// A regular file where a directory is expected: falls back to stdout
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	InitWithConfig(Config{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: filepath.Join(blocker, "test.log"),
	})

	if Log == nil {
		t.Error("Log should not be nil even with invalid path")
	}
}

func TestLoggingFunctions(t *testing.T) {
	InitWithConfig(Config{Level: "debug", Output: "discard"})

	// These should not panic
	Debug("debug message", "key", "value")
	Info("info message", "key", "value")
	Warn("warn message", "key", "value")
	Error("error message", "key", "value")
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	Log = slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := ContextWithRequestID(context.Background(), "req-42")
	WithContext(ctx, "key1", "value1").Info("hello")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-42"`) {
		t.Errorf("request_id missing: %s", out)
	}
	if !strings.Contains(out, `"key1":"value1"`) {
		t.Errorf("extra args missing: %s", out)
	}

	if RequestIDFromContext(context.Background()) != "" {
		t.Error("empty context should have no request id")
	}
}

func TestWithContext_TraceIDs(t *testing.T) {
	var buf bytes.Buffer
	Log = slog.New(slog.NewJSONHandler(&buf, nil))

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	WithContext(ctx).Info("traced")

	out := buf.String()
	if !strings.Contains(out, `"trace_id":"4bf92f3577b34da6a3ce929d0e0e4736"`) {
		t.Errorf("trace_id missing: %s", out)
	}
	if !strings.Contains(out, `"span_id":"00f067aa0ba902b7"`) {
		t.Errorf("span_id missing: %s", out)
	}
}

func TestErrorLog_Format(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "error.txt")

	l := NewErrorLog(ErrorLogConfig{Path: path, FallbackPath: filepath.Join(dir, "fallback.txt")})
	l.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local) }
	defer l.Close()

	if err := l.Write("no numbers found"); err != nil {
		t.Fatal(err)
	}
	if err := l.Write("second"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "2024-05-06 07:08:09\tno numbers found\n2024-05-06 07:08:09\tsecond\n"
	if string(data) != want {
		t.Errorf("error log = %q, want %q", data, want)
	}
}

func TestErrorLog_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "error.txt")
	if err := os.WriteFile(path, []byte("existing\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewErrorLog(ErrorLogConfig{Path: path})
	if err := l.Write("new"); err != nil {
		t.Fatal(err)
	}
	l.Close()

	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "existing\n") || !strings.HasSuffix(string(data), "\tnew\n") {
		t.Errorf("error log not appended: %q", data)
	}
}

func TestErrorLog_Fallback(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	fallback := filepath.Join(dir, "errors.txt")

	l := NewErrorLog(ErrorLogConfig{
		Path:         filepath.Join(blocker, "error.txt"),
		FallbackPath: fallback,
	})
	defer l.Close()

	InitWithConfig(Config{Output: "discard"})
	l.WriteError(os.ErrNotExist)

	data, err := os.ReadFile(fallback)
	if err != nil {
		t.Fatalf("fallback not written: %v", err)
	}
	if !strings.Contains(string(data), "\t"+os.ErrNotExist.Error()+"\n") {
		t.Errorf("fallback content = %q", data)
	}
}

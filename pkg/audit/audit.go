// Package audit records who asked the route service for what and how it ended.
// It defines the audit entry, its actions and outcomes, and the interface that
// the stdout, file, postgres and no-op backends implement.
//
// Entries carry request metadata only: matrix size, chosen algorithm, route and
// poisoned counts. Distance and predecessor vectors are never stored.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Action represents the type of operation recorded in an audit entry.
type Action string

const (
	// ActionSolve indicates a route query (classification, solving, reconstruction).
	ActionSolve Action = "SOLVE"
	// ActionClassify indicates a matrix classification request.
	ActionClassify Action = "CLASSIFY"
	// ActionStats indicates a matrix statistics request.
	ActionStats Action = "STATS"
	// ActionExport indicates a route report written to a file.
	ActionExport Action = "EXPORT"
	// ActionReadMatrix indicates a matrix loaded from a file.
	ActionReadMatrix Action = "READ_MATRIX"
	// ActionWriteMatrix indicates a matrix written to a file.
	ActionWriteMatrix Action = "WRITE_MATRIX"
)

// Outcome represents the result of an audited operation.
type Outcome string

const (
	// OutcomeSuccess indicates that the operation completed successfully.
	OutcomeSuccess Outcome = "SUCCESS"
	// OutcomeFailure indicates that the operation failed with an error.
	OutcomeFailure Outcome = "FAILURE"
	// OutcomeDenied indicates that the operation was rejected before it ran (rate limit).
	OutcomeDenied Outcome = "DENIED"
)

// Well-known metadata keys.
const (
	MetaVertices  = "vertices"
	MetaSource    = "source"
	MetaAlgorithm = "algorithm"
	MetaRoutes    = "routes"
	MetaPoisoned  = "poisoned"
	MetaPath      = "path"
	MetaFormat    = "format"
)

// Entry represents a single audit log record.
type Entry struct {
	ID           string         `json:"id"`                      // Unique identifier (UUID v4).
	Timestamp    time.Time      `json:"timestamp"`               // Time when the operation started.
	Service      string         `json:"service"`                 // Name of the service that produced the entry.
	Method       string         `json:"method"`                  // RPC method or console command.
	Action       Action         `json:"action"`                  // Type of operation.
	Outcome      Outcome        `json:"outcome"`                 // Result of the operation.
	ClientIP     string         `json:"client_ip,omitempty"`     // Peer address, if known.
	RequestID    string         `json:"request_id,omitempty"`    // Request correlation ID.
	DurationMs   int64          `json:"duration_ms"`             // Duration of the operation in milliseconds.
	ErrorCode    string         `json:"error_code,omitempty"`    // apperror code when the outcome is FAILURE.
	ErrorMessage string         `json:"error_message,omitempty"` // Human-readable error message.
	Metadata     map[string]any `json:"metadata,omitempty"`      // Request metadata, see Meta* keys.
}

// Logger is the interface that audit backends implement.
type Logger interface {
	// Log records an audit entry.
	Log(ctx context.Context, entry *Entry) error

	// Close flushes pending entries and releases resources.
	Close() error
}

// QueryFilter defines criteria for reading audit entries back from a queryable backend.
type QueryFilter struct {
	StartTime *time.Time // Inclusive lower bound on Timestamp.
	EndTime   *time.Time // Exclusive upper bound on Timestamp.
	Service   string
	Method    string
	Action    Action
	Outcome   Outcome
	Limit     int
	Offset    int
}

// Config holds configuration parameters for the audit logger.
type Config struct {
	Enabled     bool          // If false, New returns a NoopLogger.
	Backend     string        // stdout, file, postgres or noop.
	FilePath    string        // Path to the log file for the file backend.
	BufferSize  int           // Capacity of the async buffer for the file backend.
	FlushPeriod time.Duration // Flush interval for the file backend.

	// ExcludeMethods lists RPC methods that are never audited.
	ExcludeMethods []string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Enabled:     true,
		Backend:     "stdout",
		BufferSize:  1000,
		FlushPeriod: 5 * time.Second,
	}
}

// IsExcluded reports whether the method should be skipped.
func (c *Config) IsExcluded(method string) bool {
	for _, m := range c.ExcludeMethods {
		if m == method {
			return true
		}
	}
	return false
}

// Builder provides a fluent API for constructing an Entry.
type Builder struct {
	entry *Entry
}

// NewEntry creates a Builder initialized with the current time and empty metadata.
func NewEntry() *Builder {
	return &Builder{
		entry: &Entry{
			Timestamp: time.Now(),
			Metadata:  make(map[string]any),
		},
	}
}

// Service sets the service name.
func (b *Builder) Service(s string) *Builder {
	b.entry.Service = s
	return b
}

// Method sets the RPC method or console command.
func (b *Builder) Method(m string) *Builder {
	b.entry.Method = m
	return b
}

// Action sets the action type.
func (b *Builder) Action(a Action) *Builder {
	b.entry.Action = a
	return b
}

// Outcome sets the outcome.
func (b *Builder) Outcome(o Outcome) *Builder {
	b.entry.Outcome = o
	return b
}

// Client sets the client address.
func (b *Builder) Client(ip string) *Builder {
	b.entry.ClientIP = ip
	return b
}

// RequestID sets the request correlation ID.
func (b *Builder) RequestID(id string) *Builder {
	b.entry.RequestID = id
	return b
}

// StartedAt overrides the entry timestamp.
func (b *Builder) StartedAt(t time.Time) *Builder {
	b.entry.Timestamp = t
	return b
}

// Duration sets the duration of the operation.
func (b *Builder) Duration(d time.Duration) *Builder {
	b.entry.DurationMs = d.Milliseconds()
	return b
}

// Error sets the error code and message.
func (b *Builder) Error(code, message string) *Builder {
	b.entry.ErrorCode = code
	b.entry.ErrorMessage = message
	return b
}

// Meta adds a key-value pair to the metadata.
func (b *Builder) Meta(key string, value any) *Builder {
	b.entry.Metadata[key] = value
	return b
}

// Build finalizes the entry, assigning a UUID if no ID was set.
func (b *Builder) Build() *Entry {
	if b.entry.ID == "" {
		b.entry.ID = uuid.NewString()
	}
	return b.entry
}

// MetadataJSON returns the metadata encoded as a JSON object.
func (e *Entry) MetadataJSON() []byte {
	if len(e.Metadata) == 0 {
		return []byte("{}")
	}
	data, err := json.Marshal(e.Metadata)
	if err != nil {
		return []byte("{}")
	}
	return data
}

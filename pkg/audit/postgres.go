package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"routefinder/pkg/database"
	"routefinder/pkg/telemetry"
)

const insertEntrySQL = `
	INSERT INTO audit_logs (
		id, timestamp, service, method, action, outcome,
		client_ip, request_id, duration_ms,
		error_code, error_message, metadata
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

const selectEntriesSQL = `
	SELECT
		id, timestamp, service, method, action, outcome,
		COALESCE(client_ip, ''), COALESCE(request_id, ''), duration_ms,
		COALESCE(error_code, ''), COALESCE(error_message, ''), metadata
	FROM audit_logs
`

// PostgresLogger stores audit entries in the audit_logs table.
type PostgresLogger struct {
	config *Config
	db     database.DB
}

// NewPostgresLogger creates a PostgresLogger over db. The table is created by
// the 00001_audit_logs migration.
func NewPostgresLogger(cfg *Config, db database.DB) *PostgresLogger {
	return &PostgresLogger{config: cfg, db: db}
}

// Log inserts the entry.
func (l *PostgresLogger) Log(ctx context.Context, entry *Entry) error {
	if !l.config.Enabled {
		return nil
	}

	if _, err := l.db.Exec(ctx, insertEntrySQL, entryArgs(entry)...); err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// LogBatch inserts entries in a single transaction.
func (l *PostgresLogger) LogBatch(ctx context.Context, entries []*Entry) error {
	if !l.config.Enabled || len(entries) == 0 {
		return nil
	}

	ctx, span := telemetry.StartSpan(ctx, "PostgresLogger.LogBatch")
	defer span.End()

	return database.InTx(ctx, l.db, func(tx pgx.Tx) error {
		for _, entry := range entries {
			if _, err := tx.Exec(ctx, insertEntrySQL, entryArgs(entry)...); err != nil {
				return fmt.Errorf("failed to insert audit entry %s: %w", entry.ID, err)
			}
		}
		return nil
	})
}

// Query reads entries matching filter, newest first.
func (l *PostgresLogger) Query(ctx context.Context, filter *QueryFilter) ([]*Entry, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresLogger.Query")
	defer span.End()

	query, args := buildQuery(filter)

	rows, err := l.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var (
			e        Entry
			action   string
			outcome  string
			metadata []byte
		)
		if err := rows.Scan(
			&e.ID, &e.Timestamp, &e.Service, &e.Method, &action, &outcome,
			&e.ClientIP, &e.RequestID, &e.DurationMs,
			&e.ErrorCode, &e.ErrorMessage, &metadata,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Action = Action(action)
		e.Outcome = Outcome(outcome)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode audit metadata: %w", err)
			}
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}
	return entries, nil
}

// Close does nothing; the pool is owned by the caller.
func (l *PostgresLogger) Close() error {
	return nil
}

func entryArgs(e *Entry) []any {
	return []any{
		e.ID,
		e.Timestamp,
		e.Service,
		e.Method,
		string(e.Action),
		string(e.Outcome),
		nullString(e.ClientIP),
		nullString(e.RequestID),
		e.DurationMs,
		nullString(e.ErrorCode),
		nullString(e.ErrorMessage),
		e.MetadataJSON(),
	}
}

func buildQuery(filter *QueryFilter) (string, []any) {
	if filter == nil {
		filter = &QueryFilter{}
	}

	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.StartTime != nil {
		add("timestamp >= $%d", *filter.StartTime)
	}
	if filter.EndTime != nil {
		add("timestamp < $%d", *filter.EndTime)
	}
	if filter.Service != "" {
		add("service = $%d", filter.Service)
	}
	if filter.Method != "" {
		add("method = $%d", filter.Method)
	}
	if filter.Action != "" {
		add("action = $%d", string(filter.Action))
	}
	if filter.Outcome != "" {
		add("outcome = $%d", string(filter.Outcome))
	}

	var sb strings.Builder
	sb.WriteString(selectEntriesSQL)
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY timestamp DESC")

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	fmt.Fprintf(&sb, " LIMIT $%d", len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}

	return sb.String(), args
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

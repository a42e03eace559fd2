package toolserver

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// auditTimeLayout is fixed width so that ORDER BY timestamp on the stored
// text is chronological. RFC3339Nano trims trailing zeros and does not sort.
const auditTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// AuditEntry is one recorded tool invocation.
type AuditEntry struct {
	ID           int64     `json:"id"`
	CallID       string    `json:"call_id"`
	Timestamp    time.Time `json:"timestamp"`
	ToolName     string    `json:"tool_name"`
	InputJSON    string    `json:"input_json"`
	Transport    string    `json:"transport"`
	DurationMs   int64     `json:"duration_ms"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// AuditStore persists tool invocations to SQLite.
type AuditStore struct {
	db *sql.DB
}

// NewAuditStore wraps db. Run Migrations() against the store first.
func NewAuditStore(db *sql.DB) *AuditStore {
	return &AuditStore{db: db}
}

// Insert records an audit entry.
func (s *AuditStore) Insert(ctx context.Context, entry AuditEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tool_audit_log (call_id, timestamp, tool_name, input_json, transport, duration_ms, success, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.CallID,
		entry.Timestamp.UTC().Format(auditTimeLayout),
		entry.ToolName,
		entry.InputJSON,
		entry.Transport,
		entry.DurationMs,
		boolToInt(entry.Success),
		entry.ErrorMessage,
	)
	return err
}

// List returns entries newest first, optionally filtered by tool name,
// together with the total number of matching rows.
func (s *AuditStore) List(ctx context.Context, toolName string, limit, offset int) ([]AuditEntry, int, error) {
	where := ""
	var filterArgs []any
	if toolName != "" {
		where = " WHERE tool_name = ?"
		filterArgs = append(filterArgs, toolName)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tool_audit_log"+where, filterArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT id, call_id, timestamp, tool_name, input_json, transport, duration_ms, success, error_message FROM tool_audit_log" +
		where + " ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?"
	dataArgs := make([]any, 0, len(filterArgs)+2)
	dataArgs = append(dataArgs, filterArgs...)
	dataArgs = append(dataArgs, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, dataArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := make([]AuditEntry, 0, limit)
	for rows.Next() {
		var e AuditEntry
		var ts string
		var success int
		if err := rows.Scan(&e.ID, &e.CallID, &ts, &e.ToolName, &e.InputJSON, &e.Transport, &e.DurationMs, &success, &e.ErrorMessage); err != nil {
			return nil, 0, err
		}
		if e.Timestamp, err = time.Parse(auditTimeLayout, ts); err != nil {
			return nil, 0, fmt.Errorf("parse audit timestamp %q: %w", ts, err)
		}
		e.Success = success != 0
		entries = append(entries, e)
	}

	return entries, total, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

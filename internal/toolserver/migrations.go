package toolserver

import (
	"database/sql"

	"github.com/HerbHall/toolshed/internal/store"
)

// MigrationOwner is the name the audit schema is tracked under.
const MigrationOwner = "toolserver"

// Migrations returns the audit log schema steps.
func Migrations() []store.Migration {
	return []store.Migration{
		{
			Version:     1,
			Description: "create tool audit log table",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS tool_audit_log (
						id            INTEGER PRIMARY KEY AUTOINCREMENT,
						call_id       TEXT    NOT NULL,
						timestamp     TEXT    NOT NULL,
						tool_name     TEXT    NOT NULL,
						input_json    TEXT    NOT NULL DEFAULT '{}',
						transport     TEXT    NOT NULL DEFAULT 'stdio',
						duration_ms   INTEGER NOT NULL DEFAULT 0,
						success       INTEGER NOT NULL DEFAULT 1,
						error_message TEXT    NOT NULL DEFAULT ''
					)`,
					`CREATE INDEX IF NOT EXISTS idx_tool_audit_timestamp ON tool_audit_log(timestamp)`,
					`CREATE INDEX IF NOT EXISTS idx_tool_audit_tool ON tool_audit_log(tool_name)`,
				}
				for _, stmt := range stmts {
					if _, err := tx.Exec(stmt); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}

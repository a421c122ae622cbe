package audit

import (
	"context"
	"database/sql"
)

// schema contains the DDL for the audit tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS audit_events (
		id          TEXT PRIMARY KEY,
		actor       TEXT NOT NULL DEFAULT '',
		action      TEXT NOT NULL,
		target      TEXT NOT NULL DEFAULT '',
		outcome     TEXT NOT NULL DEFAULT '',
		request_id  TEXT NOT NULL DEFAULT '',
		remote_addr TEXT NOT NULL DEFAULT '',
		created_at  INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_events_created_at ON audit_events(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_events_actor ON audit_events(actor)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

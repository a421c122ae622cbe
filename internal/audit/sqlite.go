package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/me/contactbook/pkg/model"

	_ "modernc.org/sqlite"
)

// DefaultListLimit caps ListRecent when no limit is given.
const DefaultListLimit = 50

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// Every connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "audit"),
		now:    time.Now,
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// Record implements Store.
func (s *SQLiteStore) Record(ctx context.Context, ev *model.AuditEvent) error {
	if ev.ID == "" {
		ev.ID = "evt_" + uuid.New().String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = s.now().UTC()
	}
	s.logger.Debug("sql", "op", "insert", "table", "audit_events", "id", ev.ID, "action", ev.Action)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_events (id, actor, action, target, outcome, request_id, remote_addr, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Actor, string(ev.Action), ev.Target, ev.Outcome, ev.RequestID, ev.RemoteAddr,
		ev.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListRecent implements Store.
func (s *SQLiteStore) ListRecent(ctx context.Context, actor string, limit int) ([]*model.AuditEvent, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	s.logger.Debug("sql", "op", "select", "table", "audit_events", "actor", actor, "limit", limit)

	query := `SELECT id, actor, action, target, outcome, request_id, remote_addr, created_at
		FROM audit_events`
	args := []any{}
	if actor != "" {
		query += ` WHERE actor = ?`
		args = append(args, actor)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []*model.AuditEvent
	for rows.Next() {
		var ev model.AuditEvent
		var action string
		var createdAt int64
		if err := rows.Scan(&ev.ID, &ev.Actor, &action, &ev.Target, &ev.Outcome,
			&ev.RequestID, &ev.RemoteAddr, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		ev.Action = model.AuditAction(action)
		ev.CreatedAt = time.UnixMilli(createdAt).UTC()
		events = append(events, &ev)
	}
	return events, rows.Err()
}

// Prune implements Store.
func (s *SQLiteStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	s.logger.Debug("sql", "op", "delete_expired", "table", "audit_events", "cutoff", cutoff)

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM audit_events WHERE created_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune audit events: %w", err)
	}
	return result.RowsAffected()
}

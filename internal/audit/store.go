// Package audit keeps a local trail of account administration performed
// through the front end. It never stores contacts or credentials.
package audit

import (
	"context"
	"time"

	"github.com/me/contactbook/pkg/model"
)

// Store persists audit events.
type Store interface {
	// Record stores ev, filling ID and CreatedAt when unset.
	Record(ctx context.Context, ev *model.AuditEvent) error
	// ListRecent returns up to limit events, newest first. An empty actor
	// matches everyone.
	ListRecent(ctx context.Context, actor string, limit int) ([]*model.AuditEvent, error)
	// Prune deletes events created before cutoff and returns how many went.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Nop is a Store that keeps nothing.
type Nop struct{}

func (Nop) Record(context.Context, *model.AuditEvent) error { return nil }
func (Nop) ListRecent(context.Context, string, int) ([]*model.AuditEvent, error) {
	return nil, nil
}
func (Nop) Prune(context.Context, time.Time) (int64, error) { return 0, nil }
func (Nop) Migrate(context.Context) error                   { return nil }
func (Nop) Close() error                                    { return nil }

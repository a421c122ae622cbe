package audit

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/me/contactbook/pkg/model"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
	st, err := NewSQLiteStore(":memory:", logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSQLiteStore_RecordAndList(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	ev := &model.AuditEvent{
		Actor:     "root",
		Action:    model.AuditRoleCreate,
		Target:    "Manager",
		Outcome:   model.OutcomeOK,
		RequestID: "req_1234abcd",
	}
	if err := st.Record(ctx, ev); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if ev.ID == "" {
		t.Error("expected ID to be assigned")
	}
	if ev.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be assigned")
	}

	events, err := st.ListRecent(ctx, "", 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	got := events[0]
	if got.Actor != "root" || got.Action != model.AuditRoleCreate || got.Target != "Manager" {
		t.Errorf("unexpected event %+v", got)
	}
	if got.RequestID != "req_1234abcd" {
		t.Errorf("expected request id, got %q", got.RequestID)
	}
	if !got.CreatedAt.Equal(ev.CreatedAt.Truncate(time.Millisecond)) {
		t.Errorf("expected CreatedAt %v, got %v", ev.CreatedAt, got.CreatedAt)
	}
}

func TestSQLiteStore_ListRecentOrderAndFilter(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		actor := "root"
		if i%2 == 1 {
			actor = "other"
		}
		err := st.Record(ctx, &model.AuditEvent{
			Actor:     actor,
			Action:    model.AuditRoleAssign,
			Target:    fmt.Sprintf("user%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	events, err := st.ListRecent(ctx, "", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Target != "user4" || events[2].Target != "user2" {
		t.Errorf("expected newest first, got %s..%s", events[0].Target, events[2].Target)
	}

	mine, err := st.ListRecent(ctx, "other", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 2 {
		t.Errorf("expected 2 events for other, got %d", len(mine))
	}
}

func TestSQLiteStore_Prune(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	st.Record(ctx, &model.AuditEvent{Action: model.AuditLoginFailed, CreatedAt: now.Add(-48 * time.Hour)})
	st.Record(ctx, &model.AuditEvent{Action: model.AuditLoginFailed, CreatedAt: now.Add(-time.Hour)})

	n, err := st.Prune(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 pruned, got %d", n)
	}
	events, _ := st.ListRecent(ctx, "", 0)
	if len(events) != 1 {
		t.Errorf("expected 1 remaining, got %d", len(events))
	}
}

func TestSQLiteStore_MigrateIdempotent(t *testing.T) {
	st := testStore(t)
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestSQLiteStore_SchemaColumns(t *testing.T) {
	st := testStore(t)
	rows, err := st.db.QueryContext(context.Background(), "SELECT name FROM pragma_table_info('audit_events') ORDER BY cid")
	if err != nil {
		t.Fatalf("table info: %v", err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatal(err)
		}
		cols = append(cols, name)
	}
	want := "id,actor,action,target,outcome,request_id,remote_addr,created_at"
	if got := strings.Join(cols, ","); got != want {
		t.Errorf("columns = %s, want %s", got, want)
	}
}

func TestSQLiteStore_RemoteAddrRoundTrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	if err := st.Record(ctx, &model.AuditEvent{Actor: "root", Action: model.AuditUserRemove, RemoteAddr: "10.0.0.7"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	events, err := st.ListRecent(ctx, "root", 1)
	if err != nil || len(events) != 1 {
		t.Fatalf("ListRecent = %v, %v", events, err)
	}
	if events[0].RemoteAddr != "10.0.0.7" {
		t.Errorf("remote addr = %q", events[0].RemoteAddr)
	}
}

func TestNop(t *testing.T) {
	var st Store = Nop{}
	if err := st.Record(context.Background(), &model.AuditEvent{}); err != nil {
		t.Fatal(err)
	}
	events, err := st.ListRecent(context.Background(), "", 1)
	if err != nil || len(events) != 0 {
		t.Errorf("expected nothing from Nop, got %v %v", events, err)
	}
}

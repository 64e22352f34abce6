package audit_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"reportconsole/internal/adapters/storage"
	auditstore "reportconsole/internal/adapters/storage/audit"
	domain "reportconsole/internal/domain/audit"
)

func newTestStore(t *testing.T) *auditstore.SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return auditstore.NewSQLiteStore(db)
}

// TestSQLiteStore_SaveAndList verifies ordering and each filter field.
func TestSQLiteStore_SaveAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	events := []domain.Event{
		domain.NewEvent("1", "admin@example.com", "admin", domain.CategorySession, domain.ActionLogin),
		domain.NewEvent("1", "admin@example.com", "admin", domain.CategoryDirectory, domain.ActionDelete).WithResource("department", "9"),
		domain.NewEvent("2", "head@example.com", "head_of_planning", domain.CategoryReport, domain.ActionExport),
	}
	for i := range events {
		events[i].Timestamp = base.Add(time.Duration(i) * time.Hour)
		if err := store.Save(ctx, events[i]); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	all, err := store.List(ctx, auditstore.Filter{}, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].Action != domain.ActionExport || all[2].Action != domain.ActionLogin {
		t.Fatalf("unexpected order: %+v", all)
	}
	if !all[2].Timestamp.Equal(base) {
		t.Errorf("timestamp round trip = %v, want %v", all[2].Timestamp, base)
	}
	if all[1].ResourceType != "department" || all[1].ResourceID != "9" {
		t.Errorf("resource lost: %+v", all[1])
	}

	tests := []struct {
		name   string
		filter auditstore.Filter
		want   int
	}{
		{"category", auditstore.Filter{Category: domain.CategoryDirectory}, 1},
		{"action", auditstore.Filter{Action: domain.ActionLogin}, 1},
		{"actor", auditstore.Filter{ActorEmail: "admin@example.com"}, 2},
		{"since", auditstore.Filter{Since: base.Add(90 * time.Minute)}, 1},
		{"no match", auditstore.Filter{ActorEmail: "nobody@example.com"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(ctx, tt.filter, 10)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d events, want %d", len(got), tt.want)
			}
		})
	}

	limited, _ := store.List(ctx, auditstore.Filter{}, 2)
	if len(limited) != 2 {
		t.Errorf("limit ignored: got %d", len(limited))
	}
}

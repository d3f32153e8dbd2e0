package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, _, err := NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewSQLiteDB_CreatesTables(t *testing.T) {
	db := newTestDB(t)

	tables := []string{"pending_requests", "delivered_notifications", "center_state", "delivery_log", "schema_migrations"}
	for _, table := range tables {
		var name string
		err := db.QueryRowContext(context.Background(), "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestNewSQLiteDB_MigrationVersion(t *testing.T) {
	db := newTestDB(t)

	var version int
	err := db.QueryRowContext(context.Background(), "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	if err != nil {
		t.Fatalf("querying version: %v", err)
	}
	if version != len(migrations) {
		t.Errorf("expected version %d, got %d", len(migrations), version)
	}
}

func TestNewSQLiteDB_FreshDBFlag(t *testing.T) {
	db, fresh, err := NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if !fresh {
		t.Error("expected freshDB=true for new database")
	}
}

func TestNewSQLiteDB_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "notifyd.db")

	db, fresh, err := NewSQLiteDB(path)
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	if !fresh {
		t.Error("expected freshDB=true on first open")
	}
	if _, err := db.ExecContext(context.Background(),
		"INSERT INTO center_state (id, badge) VALUES (1, 7)"); err != nil {
		t.Fatalf("inserting state: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("closing database: %v", err)
	}

	db, fresh, err = NewSQLiteDB(path)
	if err != nil {
		t.Fatalf("reopening database: %v", err)
	}
	defer db.Close()
	if fresh {
		t.Error("expected freshDB=false on reopen")
	}

	var badge int
	if err := db.QueryRowContext(context.Background(), "SELECT badge FROM center_state WHERE id = 1").Scan(&badge); err != nil {
		t.Fatalf("reading state: %v", err)
	}
	if badge != 7 {
		t.Errorf("expected badge 7 after reopen, got %d", badge)
	}
}

package postgres

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// The snapshot SQL (numbered placeholders, upsert on the bucket key) is also
// valid SQLite, so the open seam lets the full store run against an embedded
// database file.
func withEmbeddedDB(t *testing.T) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	openMu.Lock()
	prev := sqlOpen
	sqlOpen = func(_, _ string) (*sql.DB, error) {
		return sql.Open("sqlite", path)
	}
	openMu.Unlock()
	t.Cleanup(func() {
		openMu.Lock()
		sqlOpen = prev
		openMu.Unlock()
	})
}

func TestSnapshotRoundTripThroughSQL(t *testing.T) {
	withEmbeddedDB(t)
	ctx := context.Background()

	store, err := NewStore("", nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	neti, err := store.NewNetwork(ctx, "demo")
	if err != nil {
		t.Fatalf("new network: %v", err)
	}
	if _, err := store.AddNode(ctx, neti, "A", 1, 2, 30, 40); err != nil {
		t.Fatalf("add node: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore("", nil)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	if id, err := reopened.NetworkID(neti); err != nil || id != "demo" {
		t.Fatalf("hydrated network id = %q, %v", id, err)
	}
	if x, y, err := reopened.NodeCoordinate(neti, 0); err != nil || x != 1 || y != 2 {
		t.Fatalf("hydrated node = (%v, %v), %v", x, y, err)
	}
	if reopened.CanUndo() {
		t.Fatalf("hydrated store carries undo history")
	}
}

func TestUndoRewritesSnapshot(t *testing.T) {
	withEmbeddedDB(t)
	ctx := context.Background()

	store, err := NewStore("", nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := store.NewNetwork(ctx, "net"); err != nil {
		t.Fatalf("new network: %v", err)
	}
	if err := store.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore("", nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	if n := reopened.NumberOfNetworks(); n != 0 {
		t.Fatalf("undone state persisted %d networks", n)
	}
}

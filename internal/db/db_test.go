package db

import (
	"path/filepath"
	"testing"
)

func TestOpen_AppliesMigrations(t *testing.T) {
	d, err := Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	versions, err := AppliedVersions(d)
	if err != nil {
		t.Fatalf("applied versions: %v", err)
	}
	if len(versions) != 1 || versions[0] != 1 {
		t.Fatalf("unexpected versions: %v", versions)
	}
	if _, err := d.Exec(`INSERT INTO collections (name, body) VALUES ('x', '[]')`); err != nil {
		t.Fatalf("collections table missing: %v", err)
	}
}

func TestOpen_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = d.Close()

	d, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer d.Close()
	versions, err := AppliedVersions(d)
	if err != nil || len(versions) != 1 {
		t.Fatalf("versions after reopen: %v err=%v", versions, err)
	}
}

func TestRollbackLast(t *testing.T) {
	d, err := Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer d.Close()

	if err := RollbackLast(d); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	versions, err := AppliedVersions(d)
	if err != nil {
		t.Fatalf("applied versions: %v", err)
	}
	if len(versions) != 0 {
		t.Fatalf("expected no applied versions, got %v", versions)
	}
	if _, err := d.Exec(`SELECT 1 FROM collections`); err == nil {
		t.Fatalf("expected collections table to be dropped")
	}
	// Nothing left to roll back.
	if err := RollbackLast(d); err != nil {
		t.Fatalf("second rollback: %v", err)
	}
}

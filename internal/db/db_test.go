package db

import (
	"io/fs"
	"path/filepath"
	"testing"
)

// setupTestDB creates a migrated database in a temp directory.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("failed to create test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestEmbeddedMigrationsFS(t *testing.T) {
	migFS, err := getMigrationsFS()
	if err != nil {
		t.Fatalf("getMigrationsFS() failed: %v", err)
	}
	entries, err := fs.ReadDir(migFS, ".")
	if err != nil {
		t.Fatalf("Failed to read migrations: %v", err)
	}
	if len(entries) != 4 {
		t.Errorf("expected 4 migration files, got %d", len(entries))
	}
}

func TestNewDB_MigratesToLatest(t *testing.T) {
	db := setupTestDB(t)
	migFS, _ := getMigrationsFS()

	version, dirty, err := db.MigrateVersion(migFS)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 2 || dirty {
		t.Errorf("version = %d dirty = %v, want 2 false", version, dirty)
	}

	// Running again is a no-op.
	if err := db.MigrateUp(migFS); err != nil {
		t.Errorf("second MigrateUp failed: %v", err)
	}
}

func TestMigrateDown(t *testing.T) {
	db := setupTestDB(t)
	migFS, _ := getMigrationsFS()

	if err := db.MigrateDown(migFS); err != nil {
		t.Fatalf("MigrateDown failed: %v", err)
	}
	version, _, err := db.MigrateVersion(migFS)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 1 {
		t.Errorf("version = %d, want 1", version)
	}

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='load_run_files'`).Scan(&name)
	if err == nil {
		t.Errorf("load_run_files should have been dropped")
	}
}

func TestOpenDB_NoSchema(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "empty.db"))
	if err != nil {
		t.Fatalf("OpenDB failed: %v", err)
	}
	defer db.Close()

	migFS, _ := getMigrationsFS()
	version, dirty, err := db.MigrateVersion(migFS)
	if err != nil || version != 0 || dirty {
		t.Errorf("MigrateVersion = %d, %v, %v; want 0, false, nil", version, dirty, err)
	}
}

func TestSchemaVersionAndRollback(t *testing.T) {
	db := setupTestDB(t)

	version, dirty, err := db.SchemaVersion()
	if err != nil || version != 2 || dirty {
		t.Fatalf("SchemaVersion = %d, %v, %v; want 2, false, nil", version, dirty, err)
	}
	if err := db.RollbackSchema(); err != nil {
		t.Fatalf("RollbackSchema failed: %v", err)
	}
	version, _, err = db.SchemaVersion()
	if err != nil || version != 1 {
		t.Errorf("SchemaVersion after rollback = %d, %v; want 1", version, err)
	}
}

package db

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMigration(t *testing.T, dir, name, sql string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(sql), 0o644); err != nil {
		t.Fatalf("write migration: %v", err)
	}
}

func TestLoadMigrationsSortsByVersion(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "002_notes.sql", "CREATE TABLE b (id INT);")
	writeMigration(t, dir, "001_core.sql", "CREATE TABLE a (id INT);")
	writeMigration(t, dir, "010_appointments.sql", "CREATE TABLE c (id INT);")

	m := NewMigrator(nil, dir)
	migs, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(migs) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migs))
	}
	want := []int{1, 2, 10}
	for i, mig := range migs {
		if mig.Version != want[i] {
			t.Errorf("position %d: expected version %d, got %d", i, want[i], mig.Version)
		}
	}
}

func TestLoadMigrationsSkipsNonNumericPrefix(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "001_core.sql", "CREATE TABLE a (id INT);")
	writeMigration(t, dir, "README.sql", "not a migration")
	writeMigration(t, dir, "notes.txt", "not sql")

	m := NewMigrator(nil, dir)
	migs, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(migs) != 1 {
		t.Fatalf("expected 1 migration, got %d", len(migs))
	}
	if migs[0].Name != "001_core.sql" {
		t.Errorf("expected 001_core.sql, got %s", migs[0].Name)
	}
}

func TestLoadMigrationsMissingDir(t *testing.T) {
	m := NewMigrator(nil, "/nonexistent/migrations")
	if _, err := m.LoadMigrations(); err == nil {
		t.Error("expected error for missing directory")
	}
}

package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDescriptionFromFilename(t *testing.T) {
	cases := map[string]string{
		"2026-10-01-004-create-glucose-readings.sql": "create glucose readings",
		"2026-10-01-001-create-migrations.sql":       "create migrations",
		"notes.sql":                                  "notes",
	}
	for in, want := range cases {
		if got := descriptionFromFilename(in); got != want {
			t.Errorf("descriptionFromFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"2026-10-01-002-b.sql", "2026-10-01-001-a.sql", "README.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := migrationFiles(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "2026-10-01-001-a.sql" {
		t.Errorf("expected the two .sql files in order, got %v", files)
	}

	if _, err := migrationFiles(t.TempDir()); err == nil {
		t.Error("expected an error for a directory without migrations")
	}
}

func TestRepositoryMigrationsArePresent(t *testing.T) {
	files, err := migrationFiles(filepath.Join("..", "..", "db"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(files[0]) != "2026-10-01-001-create-migrations.sql" {
		t.Errorf("expected the migrations table to be created first, got %s", files[0])
	}
}

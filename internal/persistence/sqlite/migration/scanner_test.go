package migration

import (
	"errors"
	"testing"
	"testing/fstest"
)

func TestFileScanner_ScanMigrations(t *testing.T) {
	t.Parallel()

	t.Run("orders files by numeric version and skips non sql entries", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{
			"010_add_notes.sql":      {Data: []byte("ALTER TABLE t ADD COLUMN note TEXT;")},
			"002_create_index.sql":   {Data: []byte("-- Description: Index t\nCREATE INDEX idx_t ON t (id);")},
			"001_create_table.sql":   {Data: []byte("CREATE TABLE t (id TEXT PRIMARY KEY);")},
			"README.md":              {Data: []byte("not a migration")},
			"nested/003_ignored.sql": {Data: []byte("CREATE TABLE ignored (id TEXT);")},
		}

		migrations, err := NewFileScanner().ScanMigrations(fsys)
		if err != nil {
			t.Fatalf("ScanMigrations failed: %v", err)
		}

		want := []string{"001", "002", "010"}
		if len(migrations) != len(want) {
			t.Fatalf("expected %d migrations, got %d", len(want), len(migrations))
		}
		for i, version := range want {
			if migrations[i].Version != version {
				t.Fatalf("position %d: expected %s, got %s", i, version, migrations[i].Version)
			}
		}
		if migrations[0].Description != "create table" {
			t.Fatalf("expected description from filename, got %q", migrations[0].Description)
		}
		if migrations[1].Description != "Index t" {
			t.Fatalf("expected description from comment, got %q", migrations[1].Description)
		}
		if len(migrations[0].Checksum) != 64 {
			t.Fatalf("expected sha256 hex checksum, got %q", migrations[0].Checksum)
		}
	})

	t.Run("rejects duplicate versions", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{
			"001_first.sql":  {Data: []byte("CREATE TABLE a (id TEXT);")},
			"0001_again.sql": {Data: []byte("CREATE TABLE b (id TEXT);")},
		}
		if _, err := NewFileScanner().ScanMigrations(fsys); !errors.Is(err, ErrDuplicateVersion) {
			t.Fatalf("expected ErrDuplicateVersion, got %v", err)
		}
	})

	t.Run("rejects badly named and empty files", func(t *testing.T) {
		t.Parallel()

		cases := map[string]fstest.MapFS{
			"bad name":      {"create_table.sql": {Data: []byte("CREATE TABLE a (id TEXT);")}},
			"comments only": {"001_empty.sql": {Data: []byte("-- nothing here\n;")}},
			"unbalanced":    {"001_broken.sql": {Data: []byte("CREATE TABLE a (id TEXT;")}},
		}
		for name, fsys := range cases {
			if _, err := NewFileScanner().ScanMigrations(fsys); !errors.Is(err, ErrInvalidMigrationFile) {
				t.Fatalf("%s: expected ErrInvalidMigrationFile, got %v", name, err)
			}
		}
	})
}

func TestSplitStatements(t *testing.T) {
	t.Parallel()

	sql := `-- Description: two statements
CREATE TABLE a (
    id TEXT -- inline comments stay
);

-- trailing comment
CREATE INDEX idx_a ON a (id);
`
	statements := splitStatements(sql)
	if len(statements) != 2 {
		t.Fatalf("expected 2 statements, got %d: %#v", len(statements), statements)
	}
	if statements[1] != "CREATE INDEX idx_a ON a (id)" {
		t.Fatalf("unexpected second statement %q", statements[1])
	}
}

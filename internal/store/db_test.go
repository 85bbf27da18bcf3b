package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

// rawDB opens an in-memory store seeded with one subject and one moment,
// for exercising schema rules below the typed API.
func rawDB(t *testing.T) *DB {
	t.Helper()
	db := testDB(t)
	stmts := []string{
		`INSERT INTO subjects (id, primary_tag, created_at) VALUES ('subj-1', 'sage', 1000)`,
		`INSERT INTO moments (id, subject_id, category, essence, occurred_at) VALUES ('m-1', 'subj-1', 'dream', 'river', 1000)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("seed %q: %v", s, err)
		}
	}
	return db
}

func TestSchemaVersion(t *testing.T) {
	db := testDB(t)

	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != len(migrations) {
		t.Errorf("SchemaVersion = %d, want %d", v, len(migrations))
	}

	// Running migrate again is a no-op.
	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if v2, _ := db.SchemaVersion(); v2 != v {
		t.Errorf("SchemaVersion after re-migrate = %d, want %d", v2, v)
	}
}

func TestTablesExist(t *testing.T) {
	db := testDB(t)

	tables := []string{"schema_versions", "subjects", "moments", "state_vectors", "rhythm_profiles", "wisdom_threads"}
	for _, table := range tables {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestSchemaRules(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		ok   bool
	}{
		{"subject valid", `INSERT INTO subjects (id, primary_tag, secondary_tag, created_at) VALUES ('subj-2', 'healer', 'mystic', 1)`, true},
		{"subject unknown primary", `INSERT INTO subjects (id, primary_tag, created_at) VALUES ('subj-2', 'wizard', 1)`, false},
		{"subject unknown secondary", `INSERT INTO subjects (id, primary_tag, secondary_tag, created_at) VALUES ('subj-2', 'sage', 'bard', 1)`, false},

		{"moment unknown category", `INSERT INTO moments (id, subject_id, category, essence, occurred_at) VALUES ('m-2', 'subj-1', 'nap', 'x', 1)`, false},
		{"moment unknown subject", `INSERT INTO moments (id, subject_id, category, essence, occurred_at) VALUES ('m-2', 'nobody', 'dream', 'x', 1)`, false},

		{"state in range", `INSERT INTO state_vectors (subject_id, clarity, peace, vitality, connection, purpose, recorded_at) VALUES ('subj-1', 1, 10, 5, 5, 5, 1)`, true},
		{"state clarity 11", `INSERT INTO state_vectors (subject_id, clarity, peace, vitality, connection, purpose, recorded_at) VALUES ('subj-1', 11, 5, 5, 5, 5, 1)`, false},
		{"state purpose 0", `INSERT INTO state_vectors (subject_id, clarity, peace, vitality, connection, purpose, recorded_at) VALUES ('subj-1', 5, 5, 5, 5, 0, 1)`, false},
		{"state unknown subject", `INSERT INTO state_vectors (subject_id, clarity, peace, vitality, connection, purpose, recorded_at) VALUES ('nobody', 5, 5, 5, 5, 5, 1)`, false},

		{"profile unknown subject", `INSERT INTO rhythm_profiles (subject_id, profile, updated_at) VALUES ('nobody', '{}', 1)`, false},

		{"thread valid with source", `INSERT INTO wisdom_threads (id, subject_id, insight, source_moment_id, stage, integration_level, created_at, last_contemplated) VALUES ('t-1', 'subj-1', 'x', 'm-1', 'blooming', 6, 1, 1)`, true},
		{"thread unknown stage", `INSERT INTO wisdom_threads (id, subject_id, insight, stage, integration_level, created_at, last_contemplated) VALUES ('t-1', 'subj-1', 'x', 'wilting', 1, 1, 1)`, false},
		{"thread level 0", `INSERT INTO wisdom_threads (id, subject_id, insight, stage, integration_level, created_at, last_contemplated) VALUES ('t-1', 'subj-1', 'x', 'seed', 0, 1, 1)`, false},
		{"thread level 11", `INSERT INTO wisdom_threads (id, subject_id, insight, stage, integration_level, created_at, last_contemplated) VALUES ('t-1', 'subj-1', 'x', 'fruiting', 11, 1, 1)`, false},
		{"thread unknown source moment", `INSERT INTO wisdom_threads (id, subject_id, insight, source_moment_id, stage, integration_level, created_at, last_contemplated) VALUES ('t-1', 'subj-1', 'x', 'm-404', 'seed', 1, 1, 1)`, false},
		{"thread unknown subject", `INSERT INTO wisdom_threads (id, subject_id, insight, stage, integration_level, created_at, last_contemplated) VALUES ('t-1', 'nobody', 'x', 'seed', 1, 1, 1)`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := rawDB(t)
			_, err := db.Exec(tt.sql)
			if tt.ok && err != nil {
				t.Errorf("expected insert to succeed: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected constraint error, got nil")
			}
		})
	}
}

func TestOpenFileAppliesPragmasToEveryConnection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "rhythm.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if db.Path != path {
		t.Errorf("Path = %q, want %q", db.Path, path)
	}

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	// Hold two connections at once so the pool must open a second one.
	ctx := context.Background()
	c1, err := db.Conn(ctx)
	if err != nil {
		t.Fatalf("Conn: %v", err)
	}
	defer c1.Close()
	c2, err := db.Conn(ctx)
	if err != nil {
		t.Fatalf("Conn: %v", err)
	}
	defer c2.Close()

	for i, c := range []*sql.Conn{c1, c2} {
		var fk, busy int
		if err := c.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
			t.Fatalf("conn %d foreign_keys: %v", i, err)
		}
		if err := c.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&busy); err != nil {
			t.Fatalf("conn %d busy_timeout: %v", i, err)
		}
		if fk != 1 || busy != 5000 {
			t.Errorf("conn %d: foreign_keys = %d, busy_timeout = %d; want 1, 5000", i, fk, busy)
		}
	}
}

func TestOpenMemoryEnforcesForeignKeys(t *testing.T) {
	db := testDB(t)
	if db.Path != ":memory:" {
		t.Errorf("Path = %q, want :memory:", db.Path)
	}
	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("PRAGMA foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

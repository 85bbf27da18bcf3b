package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "subjects: one row per tracked individual",
		SQL: `
CREATE TABLE subjects (
    id            TEXT PRIMARY KEY,
    primary_tag   TEXT NOT NULL CHECK (primary_tag IN ('sage', 'mystic', 'healer', 'warrior', 'creator', 'nurturer')),
    secondary_tag TEXT CHECK (secondary_tag IS NULL OR secondary_tag IN ('sage', 'mystic', 'healer', 'warrior', 'creator', 'nurturer')),
    intentions    TEXT NOT NULL DEFAULT '[]',
    growth_edges  TEXT NOT NULL DEFAULT '[]',
    created_at    INTEGER NOT NULL
);
`,
	},
	{
		Version:     2,
		Description: "moments: append-only event log per subject",
		SQL: `
CREATE TABLE moments (
    id          TEXT PRIMARY KEY,
    subject_id  TEXT NOT NULL,
    category    TEXT NOT NULL CHECK (category IN ('insight', 'ritual', 'challenge', 'gratitude', 'dream', 'breakthrough')),
    essence     TEXT NOT NULL,
    context     TEXT,
    emotions    TEXT NOT NULL DEFAULT '{}',
    seeds       TEXT NOT NULL DEFAULT '[]',
    environment TEXT NOT NULL DEFAULT '{}',
    occurred_at INTEGER NOT NULL,

    FOREIGN KEY (subject_id) REFERENCES subjects(id)
);

CREATE INDEX idx_moments_subject_time ON moments(subject_id, occurred_at DESC);
`,
	},
	{
		Version:     3,
		Description: "state_vectors: append-only self-reported snapshots",
		SQL: `
CREATE TABLE state_vectors (
    id          INTEGER PRIMARY KEY,
    subject_id  TEXT NOT NULL,
    clarity     INTEGER NOT NULL CHECK (clarity BETWEEN 1 AND 10),
    peace       INTEGER NOT NULL CHECK (peace BETWEEN 1 AND 10),
    vitality    INTEGER NOT NULL CHECK (vitality BETWEEN 1 AND 10),
    connection  INTEGER NOT NULL CHECK (connection BETWEEN 1 AND 10),
    purpose     INTEGER NOT NULL CHECK (purpose BETWEEN 1 AND 10),
    recorded_at INTEGER NOT NULL,

    FOREIGN KEY (subject_id) REFERENCES subjects(id)
);

CREATE INDEX idx_state_subject_time ON state_vectors(subject_id, recorded_at DESC);
`,
	},
	{
		Version:     4,
		Description: "rhythm_profiles: one derived profile per subject, replaced wholesale",
		SQL: `
CREATE TABLE rhythm_profiles (
    subject_id TEXT PRIMARY KEY,
    profile    TEXT NOT NULL,
    updated_at INTEGER NOT NULL,

    FOREIGN KEY (subject_id) REFERENCES subjects(id)
);
`,
	},
	{
		Version:     5,
		Description: "wisdom_threads: derived insights",
		SQL: `
CREATE TABLE wisdom_threads (
    id                TEXT PRIMARY KEY,
    subject_id        TEXT NOT NULL,
    insight           TEXT NOT NULL,
    source_moment_id  TEXT,
    stage             TEXT NOT NULL CHECK (stage IN ('seed', 'sprouting', 'blooming', 'fruiting')),
    integration_level INTEGER NOT NULL CHECK (integration_level BETWEEN 1 AND 10),
    created_at        INTEGER NOT NULL,
    last_contemplated INTEGER NOT NULL,

    FOREIGN KEY (subject_id) REFERENCES subjects(id),
    FOREIGN KEY (source_moment_id) REFERENCES moments(id)
);

CREATE INDEX idx_threads_subject ON wisdom_threads(subject_id, created_at);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}

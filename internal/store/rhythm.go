package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lazypower/rhythm/internal/model"
)

// StoredProfile is a persisted rhythm profile and when it was written.
type StoredProfile struct {
	Profile   model.RhythmProfile
	UpdatedAt time.Time
}

// GetRhythmProfile returns the subject's saved profile, or nil if none has
// been computed yet. Callers substitute the archetype defaults for nil.
func (db *DB) GetRhythmProfile(ctx context.Context, subjectID string) (*StoredProfile, error) {
	var raw string
	var updatedAt int64
	err := db.QueryRowContext(ctx, `
		SELECT profile, updated_at FROM rhythm_profiles WHERE subject_id = ?
	`, subjectID).Scan(&raw, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get rhythm profile: %w", classify(err))
	}

	var sp StoredProfile
	if err := json.Unmarshal([]byte(raw), &sp.Profile); err != nil {
		return nil, fmt.Errorf("decode rhythm profile: %w", err)
	}
	sp.UpdatedAt = fromMillis(updatedAt)
	return &sp, nil
}

// SaveRhythmProfile replaces the subject's profile wholesale, stamped with
// updatedAt. Concurrent saves for the same subject are last-write-wins.
func (db *DB) SaveRhythmProfile(ctx context.Context, subjectID string, p model.RhythmProfile, updatedAt time.Time) error {
	if err := db.requireSubject(ctx, subjectID); err != nil {
		return err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode rhythm profile: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO rhythm_profiles (subject_id, profile, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(subject_id) DO UPDATE SET profile = excluded.profile, updated_at = excluded.updated_at
	`, subjectID, string(raw), toMillis(updatedAt))
	if err != nil {
		return fmt.Errorf("save rhythm profile: %w", classify(err))
	}
	return nil
}

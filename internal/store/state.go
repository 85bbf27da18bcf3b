package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lazypower/rhythm/internal/model"
)

// AppendStateVector records a new snapshot. Older vectors are kept for
// trend analysis and never modified.
func (db *DB) AppendStateVector(ctx context.Context, subjectID string, v model.StateVector) (*model.StateVector, error) {
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("append state vector: %w", err)
	}
	if err := db.requireSubject(ctx, subjectID); err != nil {
		return nil, err
	}

	v.SubjectID = subjectID
	if v.RecordedAt.IsZero() {
		v.RecordedAt = time.Now()
	}
	v.RecordedAt = normalize(v.RecordedAt)

	result, err := db.ExecContext(ctx, `
		INSERT INTO state_vectors (subject_id, clarity, peace, vitality, connection, purpose, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, subjectID, v.Clarity, v.Peace, v.Vitality, v.Connection, v.Purpose, toMillis(v.RecordedAt))
	if err != nil {
		return nil, fmt.Errorf("append state vector: %w", classify(err))
	}
	v.ID, _ = result.LastInsertId()
	return &v, nil
}

// CurrentStateVector returns the most recent vector, or nil if the subject
// has never reported one.
func (db *DB) CurrentStateVector(ctx context.Context, subjectID string) (*model.StateVector, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, subject_id, clarity, peace, vitality, connection, purpose, recorded_at
		FROM state_vectors WHERE subject_id = ?
		ORDER BY recorded_at DESC, id DESC LIMIT 1
	`, subjectID)

	var v model.StateVector
	var recordedAt int64
	err := row.Scan(&v.ID, &v.SubjectID, &v.Clarity, &v.Peace, &v.Vitality, &v.Connection, &v.Purpose, &recordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("current state vector: %w", classify(err))
	}
	v.RecordedAt = fromMillis(recordedAt)
	return &v, nil
}

// ListStateVectors returns vectors recorded at or after since, oldest first.
func (db *DB) ListStateVectors(ctx context.Context, subjectID string, since time.Time) ([]model.StateVector, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, subject_id, clarity, peace, vitality, connection, purpose, recorded_at
		FROM state_vectors WHERE subject_id = ? AND recorded_at >= ?
		ORDER BY recorded_at, id
	`, subjectID, toMillis(since))
	if err != nil {
		return nil, fmt.Errorf("list state vectors: %w", classify(err))
	}
	defer rows.Close()

	var vectors []model.StateVector
	for rows.Next() {
		var v model.StateVector
		var recordedAt int64
		if err := rows.Scan(&v.ID, &v.SubjectID, &v.Clarity, &v.Peace, &v.Vitality, &v.Connection, &v.Purpose, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan state vector: %w", classify(err))
		}
		v.RecordedAt = fromMillis(recordedAt)
		vectors = append(vectors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list state vectors: %w", classify(err))
	}
	return vectors, nil
}

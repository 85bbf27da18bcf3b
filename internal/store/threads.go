package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lazypower/rhythm/internal/model"
)

// AppendThread stores a new wisdom thread. A zero IntegrationLevel starts
// at 1; the stage always follows the level.
func (db *DB) AppendThread(ctx context.Context, subjectID string, th model.WisdomThread) (*model.WisdomThread, error) {
	if th.Insight == "" {
		return nil, errors.New("append thread: insight required")
	}
	if th.IntegrationLevel == 0 {
		th.IntegrationLevel = 1
	}
	if th.IntegrationLevel < 1 || th.IntegrationLevel > 10 {
		return nil, fmt.Errorf("append thread: integration level %d out of range", th.IntegrationLevel)
	}
	if err := db.requireSubject(ctx, subjectID); err != nil {
		return nil, err
	}
	if th.SourceMomentID != "" {
		if err := db.requireMoment(ctx, subjectID, th.SourceMomentID); err != nil {
			return nil, err
		}
	}

	now := normalize(time.Now())
	th.ID = uuid.NewString()
	th.SubjectID = subjectID
	th.Stage = model.StageForLevel(th.IntegrationLevel)
	th.CreatedAt = now
	th.LastContemplated = now

	_, err := db.ExecContext(ctx, `
		INSERT INTO wisdom_threads (id, subject_id, insight, source_moment_id, stage, integration_level, created_at, last_contemplated)
		VALUES (?, ?, ?, NULLIF(?, ''), ?, ?, ?, ?)
	`, th.ID, subjectID, th.Insight, th.SourceMomentID, string(th.Stage), th.IntegrationLevel,
		toMillis(th.CreatedAt), toMillis(th.LastContemplated))
	if err != nil {
		return nil, fmt.Errorf("append thread: %w", classify(err))
	}
	return &th, nil
}

// ListThreads returns a subject's threads, oldest first.
func (db *DB) ListThreads(ctx context.Context, subjectID string) ([]model.WisdomThread, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, subject_id, insight, source_moment_id, stage, integration_level, created_at, last_contemplated
		FROM wisdom_threads WHERE subject_id = ? ORDER BY created_at, id
	`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", classify(err))
	}
	defer rows.Close()

	var threads []model.WisdomThread
	for rows.Next() {
		th, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		threads = append(threads, th)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list threads: %w", classify(err))
	}
	return threads, nil
}

// ContemplateThread marks a thread as contemplated now, raising its
// integration level by one (capped at 10). The insight is untouched.
func (db *DB) ContemplateThread(ctx context.Context, subjectID, threadID string) (*model.WisdomThread, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin contemplate: %w", classify(err))
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, subject_id, insight, source_moment_id, stage, integration_level, created_at, last_contemplated
		FROM wisdom_threads WHERE subject_id = ? AND id = ?
	`, subjectID, threadID)
	if err != nil {
		return nil, fmt.Errorf("get thread: %w", classify(err))
	}
	if !rows.Next() {
		rows.Close()
		return nil, fmt.Errorf("thread %q: %w", threadID, ErrNotFound)
	}
	th, err := scanThread(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	th.IntegrationLevel = min(th.IntegrationLevel+1, 10)
	th.Stage = model.StageForLevel(th.IntegrationLevel)
	th.LastContemplated = normalize(time.Now())

	if _, err := tx.ExecContext(ctx, `
		UPDATE wisdom_threads SET integration_level = ?, stage = ?, last_contemplated = ?
		WHERE id = ?
	`, th.IntegrationLevel, string(th.Stage), toMillis(th.LastContemplated), th.ID); err != nil {
		return nil, fmt.Errorf("contemplate thread: %w", classify(err))
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit contemplate: %w", classify(err))
	}
	return &th, nil
}

func (db *DB) requireMoment(ctx context.Context, subjectID, momentID string) error {
	var one int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM moments WHERE subject_id = ? AND id = ?`, subjectID, momentID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("moment %q: %w", momentID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("check moment: %w", classify(err))
	}
	return nil
}

func scanThread(rows *sql.Rows) (model.WisdomThread, error) {
	var th model.WisdomThread
	var source sql.NullString
	var stage string
	var createdAt, contemplated int64
	if err := rows.Scan(&th.ID, &th.SubjectID, &th.Insight, &source, &stage,
		&th.IntegrationLevel, &createdAt, &contemplated); err != nil {
		return th, fmt.Errorf("scan thread: %w", classify(err))
	}
	th.SourceMomentID = source.String
	th.Stage = model.GrowthStage(stage)
	th.CreatedAt = fromMillis(createdAt)
	th.LastContemplated = fromMillis(contemplated)
	return th, nil
}

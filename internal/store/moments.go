package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lazypower/rhythm/internal/model"
)

// maxMomentPage caps a single ListMoments call.
const maxMomentPage = 1000

// AppendMoment stores an immutable moment for a subject. The id is always
// assigned here; OccurredAt is set to now when the caller leaves it zero.
func (db *DB) AppendMoment(ctx context.Context, subjectID string, m model.Moment) (*model.Moment, error) {
	if _, err := model.ParseCategory(string(m.Category)); err != nil {
		return nil, fmt.Errorf("append moment: %w", err)
	}
	if err := db.requireSubject(ctx, subjectID); err != nil {
		return nil, err
	}

	m.ID = uuid.NewString()
	m.SubjectID = subjectID
	if m.OccurredAt.IsZero() {
		m.OccurredAt = time.Now()
	}
	m.OccurredAt = normalize(m.OccurredAt)

	emotions, err := json.Marshal(nonNilMap(m.Emotions))
	if err != nil {
		return nil, fmt.Errorf("marshal emotions: %w", err)
	}
	seeds, err := json.Marshal(nonNil(m.Seeds))
	if err != nil {
		return nil, fmt.Errorf("marshal seeds: %w", err)
	}
	env, err := json.Marshal(nonNilMap(m.Environment))
	if err != nil {
		return nil, fmt.Errorf("marshal environment: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO moments (id, subject_id, category, essence, context, emotions, seeds, environment, occurred_at)
		VALUES (?, ?, ?, ?, NULLIF(?, ''), ?, ?, ?, ?)
	`, m.ID, subjectID, string(m.Category), m.Essence, m.Context,
		string(emotions), string(seeds), string(env), toMillis(m.OccurredAt))
	if err != nil {
		return nil, fmt.Errorf("append moment: %w", classify(err))
	}
	return &m, nil
}

// ListMoments returns a subject's moments at or after since, most recent
// first. Paging is by offset; an empty page means the window is exhausted.
func (db *DB) ListMoments(ctx context.Context, subjectID string, since time.Time, limit, offset int) ([]model.Moment, error) {
	if limit <= 0 || limit > maxMomentPage {
		limit = maxMomentPage
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, subject_id, category, essence, context, emotions, seeds, environment, occurred_at
		FROM moments
		WHERE subject_id = ? AND occurred_at >= ?
		ORDER BY occurred_at DESC, id
		LIMIT ? OFFSET ?
	`, subjectID, toMillis(since), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list moments: %w", classify(err))
	}
	defer rows.Close()

	var moments []model.Moment
	for rows.Next() {
		m, err := scanMoment(rows)
		if err != nil {
			return nil, err
		}
		moments = append(moments, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list moments: %w", classify(err))
	}
	return moments, nil
}

func scanMoment(rows *sql.Rows) (model.Moment, error) {
	var m model.Moment
	var category string
	var ctxText sql.NullString
	var emotions, seeds, env string
	var occurredAt int64
	if err := rows.Scan(&m.ID, &m.SubjectID, &category, &m.Essence, &ctxText,
		&emotions, &seeds, &env, &occurredAt); err != nil {
		return m, fmt.Errorf("scan moment: %w", classify(err))
	}
	m.Category = model.Category(category)
	m.Context = ctxText.String
	m.OccurredAt = fromMillis(occurredAt)
	if err := json.Unmarshal([]byte(emotions), &m.Emotions); err != nil {
		return m, fmt.Errorf("decode emotions: %w", err)
	}
	if err := json.Unmarshal([]byte(seeds), &m.Seeds); err != nil {
		return m, fmt.Errorf("decode seeds: %w", err)
	}
	if err := json.Unmarshal([]byte(env), &m.Environment); err != nil {
		return m, fmt.Errorf("decode environment: %w", err)
	}
	return m, nil
}

func nonNilMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return map[K]V{}
	}
	return m
}

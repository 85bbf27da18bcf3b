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

// CreateSubject inserts a subject profile. CreatedAt is set to now when zero.
func (db *DB) CreateSubject(ctx context.Context, s model.Subject) (*model.Subject, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("create subject: %w", err)
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	s.CreatedAt = normalize(s.CreatedAt)
	s.Intentions = nonNil(s.Intentions)
	s.GrowthEdges = nonNil(s.GrowthEdges)

	intentions, err := json.Marshal(s.Intentions)
	if err != nil {
		return nil, fmt.Errorf("marshal intentions: %w", err)
	}
	edges, err := json.Marshal(s.GrowthEdges)
	if err != nil {
		return nil, fmt.Errorf("marshal growth edges: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO subjects (id, primary_tag, secondary_tag, intentions, growth_edges, created_at)
		VALUES (?, ?, NULLIF(?, ''), ?, ?, ?)
	`, s.ID, string(s.Primary), string(s.Secondary), string(intentions), string(edges), toMillis(s.CreatedAt))
	if isConstraint(err) {
		return nil, fmt.Errorf("subject %q: %w", s.ID, ErrExists)
	}
	if err != nil {
		return nil, fmt.Errorf("create subject: %w", classify(err))
	}
	return &s, nil
}

// GetSubject returns a subject by id, or ErrNotFound.
func (db *DB) GetSubject(ctx context.Context, id string) (*model.Subject, error) {
	var s model.Subject
	var primary string
	var secondary sql.NullString
	var intentions, edges string
	var createdAt int64
	err := db.QueryRowContext(ctx, `
		SELECT id, primary_tag, secondary_tag, intentions, growth_edges, created_at
		FROM subjects WHERE id = ?
	`, id).Scan(&s.ID, &primary, &secondary, &intentions, &edges, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("subject %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get subject: %w", classify(err))
	}

	s.Primary = model.Archetype(primary)
	s.Secondary = model.Archetype(secondary.String)
	s.CreatedAt = fromMillis(createdAt)
	if err := json.Unmarshal([]byte(intentions), &s.Intentions); err != nil {
		return nil, fmt.Errorf("decode intentions: %w", err)
	}
	if err := json.Unmarshal([]byte(edges), &s.GrowthEdges); err != nil {
		return nil, fmt.Errorf("decode growth edges: %w", err)
	}
	return &s, nil
}

// requireSubject returns ErrNotFound if the subject does not exist.
func (db *DB) requireSubject(ctx context.Context, id string) error {
	var one int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM subjects WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("subject %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("check subject: %w", classify(err))
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

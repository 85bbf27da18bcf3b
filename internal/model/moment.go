package model

import (
	"fmt"
	"time"
)

// Category classifies a moment.
type Category string

const (
	CategoryInsight      Category = "insight"
	CategoryRitual       Category = "ritual"
	CategoryChallenge    Category = "challenge"
	CategoryGratitude    Category = "gratitude"
	CategoryDream        Category = "dream"
	CategoryBreakthrough Category = "breakthrough"
)

// AllCategories lists every moment category.
func AllCategories() []Category {
	return []Category{
		CategoryInsight, CategoryRitual, CategoryChallenge,
		CategoryGratitude, CategoryDream, CategoryBreakthrough,
	}
}

// ParseCategory validates s against the closed set.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	for _, known := range AllCategories() {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown moment category %q", s)
}

// Modalities returns the practice modalities associated with a category,
// in a fixed order.
func (c Category) Modalities() []Modality {
	switch c {
	case CategoryInsight:
		return []Modality{ModalityContemplation, ModalityReflection}
	case CategoryRitual:
		return []Modality{ModalityMeditation, ModalityMovement}
	case CategoryChallenge:
		return []Modality{ModalityReflection, ModalityMovement, ModalityBreathwork}
	case CategoryGratitude:
		return []Modality{ModalityGratitude, ModalityJournaling}
	case CategoryDream:
		return []Modality{ModalityContemplation, ModalityJournaling}
	case CategoryBreakthrough:
		return []Modality{ModalityGratitude, ModalityReflection, ModalityMovement}
	}
	return nil
}

// Moment is an immutable timestamped event. Once stored it is never
// updated or deleted.
type Moment struct {
	ID          string            `json:"id"`
	SubjectID   string            `json:"subject_id"`
	Category    Category          `json:"category"`
	Essence     string            `json:"essence"`
	Context     string            `json:"context,omitempty"`
	Emotions    map[string]int    `json:"emotions,omitempty"`
	Seeds       []string          `json:"seeds,omitempty"`
	Environment map[string]string `json:"environment,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

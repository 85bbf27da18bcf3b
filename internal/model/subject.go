package model

import (
	"errors"
	"time"
)

// Subject is the tracked individual. ID is owned by the identity provider.
type Subject struct {
	ID          string    `json:"id"`
	Primary     Archetype `json:"primary"`
	Secondary   Archetype `json:"secondary,omitempty"`
	Intentions  []string  `json:"intentions,omitempty"`
	GrowthEdges []string  `json:"growth_edges,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks the archetype tags.
func (s Subject) Validate() error {
	if s.ID == "" {
		return errors.New("subject id required")
	}
	if _, err := ParseArchetype(string(s.Primary)); err != nil {
		return err
	}
	if s.Secondary != "" {
		if _, err := ParseArchetype(string(s.Secondary)); err != nil {
			return err
		}
		if s.Secondary == s.Primary {
			return errors.New("secondary archetype must differ from primary")
		}
	}
	return nil
}

// GrowthStage is the maturity of a wisdom thread.
type GrowthStage string

const (
	StageSeed      GrowthStage = "seed"
	StageSprouting GrowthStage = "sprouting"
	StageBlooming  GrowthStage = "blooming"
	StageFruiting  GrowthStage = "fruiting"
)

// StageForLevel derives the growth stage from an integration level.
func StageForLevel(level int) GrowthStage {
	switch {
	case level >= 9:
		return StageFruiting
	case level >= 6:
		return StageBlooming
	case level >= 4:
		return StageSprouting
	default:
		return StageSeed
	}
}

// WisdomThread is a long-lived insight. The insight text never changes;
// contemplation only moves LastContemplated and the integration level.
type WisdomThread struct {
	ID               string      `json:"id"`
	SubjectID        string      `json:"subject_id"`
	Insight          string      `json:"insight"`
	SourceMomentID   string      `json:"source_moment_id,omitempty"`
	Stage            GrowthStage `json:"stage"`
	IntegrationLevel int         `json:"integration_level"`
	CreatedAt        time.Time   `json:"created_at"`
	LastContemplated time.Time   `json:"last_contemplated"`
}

// Profile is the subject-level aggregate handed to external consumers.
type Profile struct {
	Subject       Subject        `json:"subject"`
	State         *StateVector   `json:"state,omitempty"`
	Rhythm        RhythmProfile  `json:"rhythm"`
	RecentMoments []Moment       `json:"recent_moments"`
	Threads       []WisdomThread `json:"threads"`
}

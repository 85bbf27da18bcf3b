package model

import (
	"fmt"
	"slices"
)

// Energy is the effort level a practice asks for, or a subject can give.
type Energy string

const (
	EnergyLow    Energy = "low"
	EnergyMedium Energy = "medium"
	EnergyHigh   Energy = "high"
)

// ParseEnergy validates s against the closed set.
func ParseEnergy(s string) (Energy, error) {
	switch Energy(s) {
	case EnergyLow, EnergyMedium, EnergyHigh:
		return Energy(s), nil
	}
	return "", fmt.Errorf("unknown energy level %q", s)
}

// Compatible reports whether a subject at e can take on a practice at p.
// Medium is compatible with everything; low and high exclude each other.
func (e Energy) Compatible(p Energy) bool {
	switch {
	case e == EnergyLow && p == EnergyHigh:
		return false
	case e == EnergyHigh && p == EnergyLow:
		return false
	}
	return true
}

// Modality is the kind of activity a practice is.
type Modality string

const (
	ModalityContemplation Modality = "contemplation"
	ModalityMeditation    Modality = "meditation"
	ModalityMovement      Modality = "movement"
	ModalityGratitude     Modality = "gratitude"
	ModalityReflection    Modality = "reflection"
	ModalityBreathwork    Modality = "breathwork"
	ModalityJournaling    Modality = "journaling"
)

// AllModalities lists every modality.
func AllModalities() []Modality {
	return []Modality{
		ModalityContemplation, ModalityMeditation, ModalityMovement,
		ModalityGratitude, ModalityReflection, ModalityBreathwork, ModalityJournaling,
	}
}

// ParseModality validates s against the closed set.
func ParseModality(s string) (Modality, error) {
	if slices.Contains(AllModalities(), Modality(s)) {
		return Modality(s), nil
	}
	return "", fmt.Errorf("unknown modality %q", s)
}

// Practice is a catalogue entry. The engine only ever reads these; a
// personalized practice is a copy.
type Practice struct {
	ID                string      `json:"id"`
	Title             string      `json:"title"`
	Description       string      `json:"description"`
	Duration          int         `json:"duration"`
	Energy            Energy      `json:"energy_level"`
	Modality          Modality    `json:"modality"`
	Archetypes        []Archetype `json:"archetypes,omitempty"`
	Seasons           []Season    `json:"seasons,omitempty"`
	Instructions      []string    `json:"instructions"`
	IntegrationPrompt string      `json:"integration_prompt,omitempty"`
	Fallback          bool        `json:"fallback,omitempty"`
}

// Clone returns a deep copy so callers can personalize freely.
func (p Practice) Clone() Practice {
	c := p
	c.Archetypes = slices.Clone(p.Archetypes)
	c.Seasons = slices.Clone(p.Seasons)
	c.Instructions = slices.Clone(p.Instructions)
	return c
}

package model

import (
	"fmt"
	"time"
)

// Dimension names one axis of a StateVector.
type Dimension string

const (
	Clarity    Dimension = "clarity"
	Peace      Dimension = "peace"
	Vitality   Dimension = "vitality"
	Connection Dimension = "connection"
	Purpose    Dimension = "purpose"
)

// AllDimensions lists the five axes in their canonical order.
func AllDimensions() []Dimension {
	return []Dimension{Clarity, Peace, Vitality, Connection, Purpose}
}

// Modality is the practice modality that tends a low dimension.
func (d Dimension) Modality() Modality {
	switch d {
	case Clarity:
		return ModalityContemplation
	case Peace:
		return ModalityMeditation
	case Vitality:
		return ModalityMovement
	case Connection:
		return ModalityGratitude
	case Purpose:
		return ModalityReflection
	}
	return ""
}

// StateVector is a self-reported snapshot. Each dimension is 1-10.
type StateVector struct {
	ID         int64     `json:"id,omitempty"`
	SubjectID  string    `json:"subject_id,omitempty"`
	Clarity    int       `json:"clarity"`
	Peace      int       `json:"peace"`
	Vitality   int       `json:"vitality"`
	Connection int       `json:"connection"`
	Purpose    int       `json:"purpose"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Value returns the vector's reading for d.
func (v StateVector) Value(d Dimension) int {
	switch d {
	case Clarity:
		return v.Clarity
	case Peace:
		return v.Peace
	case Vitality:
		return v.Vitality
	case Connection:
		return v.Connection
	case Purpose:
		return v.Purpose
	}
	return 0
}

// Overall is the mean of the five dimensions.
func (v StateVector) Overall() float64 {
	sum := 0
	for _, d := range AllDimensions() {
		sum += v.Value(d)
	}
	return float64(sum) / float64(len(AllDimensions()))
}

// Validate checks every dimension is within 1-10.
func (v StateVector) Validate() error {
	for _, d := range AllDimensions() {
		if n := v.Value(d); n < 1 || n > 10 {
			return fmt.Errorf("%s = %d, must be between 1 and 10", d, n)
		}
	}
	return nil
}

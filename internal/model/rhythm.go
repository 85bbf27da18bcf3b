package model

import (
	"fmt"
	"time"
)

// DailyPeak is a coarse time-of-day bucket.
type DailyPeak string

const (
	PeakEarly     DailyPeak = "early"
	PeakMorning   DailyPeak = "morning"
	PeakMidday    DailyPeak = "midday"
	PeakAfternoon DailyPeak = "afternoon"
	PeakEvening   DailyPeak = "evening"
	PeakNight     DailyPeak = "night"
)

// PeakForHour maps an hour (0-23) into its bucket.
func PeakForHour(hour int) DailyPeak {
	switch {
	case hour >= 5 && hour <= 8:
		return PeakEarly
	case hour >= 9 && hour <= 11:
		return PeakMorning
	case hour >= 12 && hour <= 14:
		return PeakMidday
	case hour >= 15 && hour <= 17:
		return PeakAfternoon
	case hour >= 18 && hour <= 20:
		return PeakEvening
	default:
		return PeakNight
	}
}

// Season is the coarse energetic trajectory of a subject.
type Season string

const (
	SeasonPlanting   Season = "planting"
	SeasonTending    Season = "tending"
	SeasonHarvesting Season = "harvesting"
	SeasonResting    Season = "resting"
)

// AllSeasons lists the four seasons.
func AllSeasons() []Season {
	return []Season{SeasonPlanting, SeasonTending, SeasonHarvesting, SeasonResting}
}

// ParseSeason validates s against the closed set.
func ParseSeason(s string) (Season, error) {
	for _, known := range AllSeasons() {
		if Season(s) == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown season %q", s)
}

// Trend is the direction of a subject's energy.
type Trend string

const (
	TrendAscending  Trend = "ascending"
	TrendStable     Trend = "stable"
	TrendDescending Trend = "descending"
)

// PauseFrequency is how often a subject should take a longer pause.
type PauseFrequency string

const (
	PauseDaily   PauseFrequency = "daily"
	PauseWeekly  PauseFrequency = "weekly"
	PauseMonthly PauseFrequency = "monthly"
)

// PauseCadence is the recommended pause frequency and length.
type PauseCadence struct {
	Frequency PauseFrequency `json:"frequency"`
	Minutes   int            `json:"minutes"`
}

// EnergyReading summarizes the state vector signal behind a profile.
type EnergyReading struct {
	Overall     float64 `json:"overall"`
	Variability float64 `json:"variability"`
	Trend       Trend   `json:"trend"`
}

// RhythmProfile is the derived summary of a subject's temporal and
// energetic patterns. It is a cache: recomputing it is always safe.
type RhythmProfile struct {
	OptimalTime   string         `json:"optimal_practice_time"`
	WeeklyFlow    []time.Weekday `json:"weekly_flow"`
	DailyPeak     DailyPeak      `json:"daily_peak"`
	MonthlyThemes []string       `json:"monthly_themes"`
	Modalities    []Modality     `json:"modalities"`
	Season        Season         `json:"season"`
	SeasonWeeks   int            `json:"season_weeks"`
	Pause         PauseCadence   `json:"pause"`
	Energy        EnergyReading  `json:"energy"`
}

// FormatHour renders an hour as "HH:00".
func FormatHour(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

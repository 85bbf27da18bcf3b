package rhythm

import (
	"math"
	"time"

	"github.com/lazypower/rhythm/internal/model"
)

// DefaultModalities is the preference list used when a subject has no moments.
var DefaultModalities = []model.Modality{
	model.ModalityContemplation,
	model.ModalityMeditation,
	model.ModalityReflection,
}

// defaultEnergy stands in for a missing state vector.
var defaultEnergy = model.EnergyReading{Overall: 5, Variability: 1, Trend: model.TrendStable}

// ThemesForMonth returns the three theme tags for the calendar quarter
// containing m. History never feeds into this.
func ThemesForMonth(m time.Month) []string {
	switch (int(m) - 1) / 3 {
	case 0:
		return []string{"renewal", "intention", "clarity"}
	case 1:
		return []string{"growth", "expression", "connection"}
	case 2:
		return []string{"abundance", "vitality", "gratitude"}
	default:
		return []string{"release", "introspection", "rest"}
	}
}

// Defaults is the complete profile for a subject with no history.
func Defaults(a model.Archetype, now time.Time) model.RhythmProfile {
	d := model.DefaultsFor(a)
	return model.RhythmProfile{
		OptimalTime:   model.FormatHour(d.OptimalHour),
		WeeklyFlow:    append([]time.Weekday(nil), d.WeeklyFlow...),
		DailyPeak:     model.PeakMorning,
		MonthlyThemes: ThemesForMonth(now.Month()),
		Modalities:    append([]model.Modality(nil), DefaultModalities...),
		Season:        d.Season,
		SeasonWeeks:   d.SeasonWeeks,
		Pause:         d.Pause,
		Energy:        defaultEnergy,
	}
}

// The decision tables below are evaluated top to bottom and the first
// matching row wins. Boundary values (overall exactly 4, 5, 6 or 7) fall
// through to later rows.

type trendRule struct {
	match func(overall float64) bool
	trend model.Trend
}

var trendTable = []trendRule{
	{func(o float64) bool { return o > 6 }, model.TrendAscending},
	{func(o float64) bool { return o < 4 }, model.TrendDescending},
	{func(float64) bool { return true }, model.TrendStable},
}

func trendFor(overall float64) model.Trend {
	for _, r := range trendTable {
		if r.match(overall) {
			return r.trend
		}
	}
	return model.TrendStable
}

type seasonRule struct {
	match  func(overall float64, t model.Trend) bool
	season model.Season
}

var seasonTable = []seasonRule{
	{func(o float64, _ model.Trend) bool { return o < 4 }, model.SeasonResting},
	{func(o float64, t model.Trend) bool { return t == model.TrendAscending && o < 6 }, model.SeasonPlanting},
	{func(o float64, t model.Trend) bool {
		return t == model.TrendAscending || (t == model.TrendStable && o > 6)
	}, model.SeasonTending},
	{func(o float64, _ model.Trend) bool { return o > 7 }, model.SeasonHarvesting},
	{func(float64, model.Trend) bool { return true }, model.SeasonTending},
}

func seasonFor(overall float64, t model.Trend) model.Season {
	for _, r := range seasonTable {
		if r.match(overall, t) {
			return r.season
		}
	}
	return model.SeasonTending
}

type pauseRule struct {
	match func(overall float64) bool
	freq  model.PauseFrequency
}

var pauseTable = []pauseRule{
	{func(o float64) bool { return o < 4 }, model.PauseDaily},
	{func(o float64) bool { return o < 6 }, model.PauseWeekly},
	{func(float64) bool { return true }, model.PauseMonthly},
}

func pauseFor(overall, variability float64) model.PauseCadence {
	freq := model.PauseMonthly
	for _, r := range pauseTable {
		if r.match(overall) {
			freq = r.freq
			break
		}
	}
	energyFactor := 1.0
	if overall < 5 {
		energyFactor = 1.5
	}
	varFactor := 1.0
	if variability > 2 {
		varFactor = 1.3
	}
	return model.PauseCadence{
		Frequency: freq,
		Minutes:   int(math.Round(15 * energyFactor * varFactor)),
	}
}

func seasonWeeks(overall, variability float64) int {
	f := 0.8
	if overall > 5 {
		f = 1.2
	}
	return max(int(math.Round(4*(1/variability)*f)), 1)
}

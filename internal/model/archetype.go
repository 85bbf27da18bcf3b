package model

import (
	"fmt"
	"time"
)

// Archetype is a subject's classification tag. It only ever feeds scoring
// weights and default tables.
type Archetype string

const (
	Sage     Archetype = "sage"
	Mystic   Archetype = "mystic"
	Healer   Archetype = "healer"
	Warrior  Archetype = "warrior"
	Creator  Archetype = "creator"
	Nurturer Archetype = "nurturer"
)

// AllArchetypes lists every archetype in declaration order.
func AllArchetypes() []Archetype {
	return []Archetype{Sage, Mystic, Healer, Warrior, Creator, Nurturer}
}

// ParseArchetype validates s against the closed set.
func ParseArchetype(s string) (Archetype, error) {
	a := Archetype(s)
	for _, known := range AllArchetypes() {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown archetype %q", s)
}

// ArchetypeDefaults holds the values used when a subject has no history.
type ArchetypeDefaults struct {
	OptimalHour int
	WeeklyFlow  []time.Weekday
	Season      Season
	SeasonWeeks int
	Pause       PauseCadence
}

// DefaultsFor returns the fixed no-history table row for a.
// Unknown archetypes fall back to the sage row.
func DefaultsFor(a Archetype) ArchetypeDefaults {
	switch a {
	case Sage:
		return ArchetypeDefaults{
			OptimalHour: 20,
			WeeklyFlow:  []time.Weekday{time.Sunday, time.Wednesday, time.Saturday},
			Season:      SeasonTending,
			SeasonWeeks: 4,
			Pause:       PauseCadence{Frequency: PauseWeekly, Minutes: 15},
		}
	case Mystic:
		return ArchetypeDefaults{
			OptimalHour: 22,
			WeeklyFlow:  []time.Weekday{time.Monday, time.Thursday, time.Sunday},
			Season:      SeasonResting,
			SeasonWeeks: 3,
			Pause:       PauseCadence{Frequency: PauseDaily, Minutes: 20},
		}
	case Healer:
		return ArchetypeDefaults{
			OptimalHour: 7,
			WeeklyFlow:  []time.Weekday{time.Tuesday, time.Friday, time.Sunday},
			Season:      SeasonTending,
			SeasonWeeks: 4,
			Pause:       PauseCadence{Frequency: PauseWeekly, Minutes: 20},
		}
	case Warrior:
		return ArchetypeDefaults{
			OptimalHour: 6,
			WeeklyFlow:  []time.Weekday{time.Monday, time.Wednesday, time.Friday},
			Season:      SeasonPlanting,
			SeasonWeeks: 5,
			Pause:       PauseCadence{Frequency: PauseMonthly, Minutes: 15},
		}
	case Creator:
		return ArchetypeDefaults{
			OptimalHour: 10,
			WeeklyFlow:  []time.Weekday{time.Tuesday, time.Thursday, time.Saturday},
			Season:      SeasonPlanting,
			SeasonWeeks: 4,
			Pause:       PauseCadence{Frequency: PauseWeekly, Minutes: 15},
		}
	case Nurturer:
		return ArchetypeDefaults{
			OptimalHour: 9,
			WeeklyFlow:  []time.Weekday{time.Sunday, time.Tuesday, time.Thursday},
			Season:      SeasonTending,
			SeasonWeeks: 4,
			Pause:       PauseCadence{Frequency: PauseWeekly, Minutes: 20},
		}
	}
	return DefaultsFor(Sage)
}

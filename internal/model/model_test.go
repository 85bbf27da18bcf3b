package model

import (
	"testing"
	"time"
)

// Every closed enum must have an entry in every table keyed by it.
func TestArchetypeDefaultsComplete(t *testing.T) {
	for _, a := range AllArchetypes() {
		d := DefaultsFor(a)
		if d.OptimalHour < 0 || d.OptimalHour > 23 {
			t.Errorf("%s: OptimalHour = %d, out of range", a, d.OptimalHour)
		}
		if len(d.WeeklyFlow) != 3 {
			t.Errorf("%s: WeeklyFlow has %d days, want 3", a, len(d.WeeklyFlow))
		}
		seen := map[time.Weekday]bool{}
		for _, day := range d.WeeklyFlow {
			if seen[day] {
				t.Errorf("%s: duplicate weekday %s", a, day)
			}
			seen[day] = true
		}
		if d.Season == "" || d.SeasonWeeks < 1 {
			t.Errorf("%s: incomplete season default %+v", a, d)
		}
		if d.Pause.Frequency == "" || d.Pause.Minutes <= 0 {
			t.Errorf("%s: incomplete pause default %+v", a, d.Pause)
		}
	}
}

func TestSageDefaultHour(t *testing.T) {
	if got := DefaultsFor(Sage).OptimalHour; got != 20 {
		t.Errorf("sage OptimalHour = %d, want 20", got)
	}
}

func TestCategoryModalitiesComplete(t *testing.T) {
	for _, c := range AllCategories() {
		if len(c.Modalities()) == 0 {
			t.Errorf("category %s has no modalities", c)
		}
	}
}

func TestDimensionModalityComplete(t *testing.T) {
	want := map[Dimension]Modality{
		Clarity:    ModalityContemplation,
		Peace:      ModalityMeditation,
		Vitality:   ModalityMovement,
		Connection: ModalityGratitude,
		Purpose:    ModalityReflection,
	}
	for _, d := range AllDimensions() {
		if got := d.Modality(); got != want[d] {
			t.Errorf("%s.Modality() = %q, want %q", d, got, want[d])
		}
	}
}

func TestPeakForHour(t *testing.T) {
	tests := []struct {
		hour int
		want DailyPeak
	}{
		{0, PeakNight},
		{4, PeakNight},
		{5, PeakEarly},
		{8, PeakEarly},
		{9, PeakMorning},
		{11, PeakMorning},
		{12, PeakMidday},
		{14, PeakMidday},
		{15, PeakAfternoon},
		{17, PeakAfternoon},
		{18, PeakEvening},
		{20, PeakEvening},
		{21, PeakNight},
		{23, PeakNight},
	}
	for _, tt := range tests {
		if got := PeakForHour(tt.hour); got != tt.want {
			t.Errorf("PeakForHour(%d) = %q, want %q", tt.hour, got, tt.want)
		}
	}
}

func TestStateVectorOverallAndValidate(t *testing.T) {
	v := StateVector{Clarity: 3, Peace: 6, Vitality: 6, Connection: 6, Purpose: 6}
	if got := v.Overall(); got != 5.4 {
		t.Errorf("Overall = %v, want 5.4", got)
	}
	if err := v.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	bad := v
	bad.Peace = 11
	if err := bad.Validate(); err == nil {
		t.Error("expected error for peace=11")
	}
	bad.Peace = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for peace=0")
	}
}

func TestEnergyCompatible(t *testing.T) {
	tests := []struct {
		subject, practice Energy
		want              bool
	}{
		{EnergyLow, EnergyHigh, false},
		{EnergyHigh, EnergyLow, false},
		{EnergyLow, EnergyLow, true},
		{EnergyLow, EnergyMedium, true},
		{EnergyMedium, EnergyHigh, true},
		{EnergyMedium, EnergyLow, true},
		{EnergyHigh, EnergyMedium, true},
	}
	for _, tt := range tests {
		if got := tt.subject.Compatible(tt.practice); got != tt.want {
			t.Errorf("%s.Compatible(%s) = %v, want %v", tt.subject, tt.practice, got, tt.want)
		}
	}
}

func TestSubjectValidate(t *testing.T) {
	ok := Subject{ID: "s1", Primary: Sage, Secondary: Mystic}
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if err := (Subject{ID: "s1", Primary: "wizard"}).Validate(); err == nil {
		t.Error("expected error for unknown primary")
	}
	if err := (Subject{ID: "s1", Primary: Sage, Secondary: Sage}).Validate(); err == nil {
		t.Error("expected error for secondary == primary")
	}
	if err := (Subject{Primary: Sage}).Validate(); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestStageForLevel(t *testing.T) {
	tests := map[int]GrowthStage{
		1: StageSeed, 3: StageSeed, 4: StageSprouting, 5: StageSprouting,
		6: StageBlooming, 8: StageBlooming, 9: StageFruiting, 10: StageFruiting,
	}
	for level, want := range tests {
		if got := StageForLevel(level); got != want {
			t.Errorf("StageForLevel(%d) = %q, want %q", level, got, want)
		}
	}
}

func TestPracticeCloneIsDeep(t *testing.T) {
	p := Practice{ID: "p", Instructions: []string{"a", "b"}}
	c := p.Clone()
	c.Instructions[0] = "changed"
	if p.Instructions[0] != "a" {
		t.Errorf("original mutated: %q", p.Instructions[0])
	}
}

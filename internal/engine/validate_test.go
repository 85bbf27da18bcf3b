package engine

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/lazypower/rhythm/internal/model"
)

func TestSanitizeTag(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"lunar-phase", "lunar-phase"},
		{"lunar_phase", "lunar_phase"},
		{"LunarPhase", "lunarphase"},
		{"lunar phase", "lunar-phase"},
		{"lunar.phase", "lunar-phase"},
		{"  spaces  ", "spaces"},
		{"---leading", "leading"},
		{"trailing---", "trailing"},
		{"a--b", "a--b"},
		{"joy2", "joy2"},
		{"café", "caf"}, // non-ascii dropped
		{"", ""},
		{"!!!!", ""},
		{"../../../etc/passwd", "etc-passwd"},
		{strings.Repeat("x", 60), strings.Repeat("x", maxTagChars)},
	}

	for _, tt := range tests {
		got := sanitizeTag(tt.input)
		if got != tt.want {
			t.Errorf("sanitizeTag(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidateMoment_Valid(t *testing.T) {
	m := model.Moment{
		Category:    model.CategoryInsight,
		Essence:     "  the river does not hurry  ",
		Emotions:    map[string]int{"Awe": 8, "!!!": 3},
		Seeds:       []string{"Patience", "", "slow living"},
		Environment: map[string]string{"Lunar Phase": " waxing "},
	}

	vm, err := validateMoment(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vm.Essence != "the river does not hurry" {
		t.Errorf("Essence = %q", vm.Essence)
	}
	if len(vm.Emotions) != 1 || vm.Emotions["awe"] != 8 {
		t.Errorf("Emotions = %v, want map[awe:8]", vm.Emotions)
	}
	if strings.Join(vm.Seeds, ",") != "patience,slow-living" {
		t.Errorf("Seeds = %v", vm.Seeds)
	}
	if vm.Environment["lunar-phase"] != "waxing" {
		t.Errorf("Environment = %v", vm.Environment)
	}
}

func TestValidateMoment_InvalidCategory(t *testing.T) {
	_, err := validateMoment(model.Moment{Category: "bogus", Essence: "x"})
	if err == nil {
		t.Error("expected error for invalid category")
	}
}

func TestValidateMoment_EmptyEssence(t *testing.T) {
	_, err := validateMoment(model.Moment{Category: model.CategoryDream, Essence: "   "})
	if err == nil {
		t.Error("expected error for empty essence")
	}
}

func TestValidateMoment_EmotionRange(t *testing.T) {
	_, err := validateMoment(model.Moment{
		Category: model.CategoryChallenge,
		Essence:  "hard day",
		Emotions: map[string]int{"grief": 11},
	})
	if err == nil {
		t.Error("expected error for intensity 11")
	}
}

func TestValidateMoment_TruncatesOversizedEssence(t *testing.T) {
	long := strings.Repeat("word ", 300) // 1500 chars, over 800 limit
	vm, err := validateMoment(model.Moment{Category: model.CategoryInsight, Essence: long})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vm.Essence) > maxEssenceChars {
		t.Errorf("Essence length = %d, want ≤ %d", len(vm.Essence), maxEssenceChars)
	}
}

func TestValidateMoment_CapsSeeds(t *testing.T) {
	var seeds []string
	for range 20 {
		seeds = append(seeds, "seed")
	}
	vm, err := validateMoment(model.Moment{Category: model.CategoryRitual, Essence: "x", Seeds: seeds})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vm.Seeds) != maxSeeds {
		t.Errorf("len(Seeds) = %d, want %d", len(vm.Seeds), maxSeeds)
	}
}

func TestValidateThread(t *testing.T) {
	if _, err := validateThread(model.WisdomThread{Insight: "  "}); err == nil {
		t.Error("expected error for empty insight")
	}
	th, err := validateThread(model.WisdomThread{Insight: " rest is part of the work "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if th.Insight != "rest is part of the work" {
		t.Errorf("Insight = %q", th.Insight)
	}
}

func TestTruncateClean(t *testing.T) {
	s := "hello world this is a test string"
	result := truncateClean(s, 15)
	if len(result) > 15 {
		t.Errorf("truncateClean result too long: %d", len(result))
	}
	// Should cut at word boundary
	if strings.HasSuffix(result, " ") {
		t.Error("truncated result has trailing space")
	}
}

func TestTruncateCleanMultibyte(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"cjk without spaces", strings.Repeat("日", 300), 10, strings.Repeat("日", 10)},
		{"cjk under limit", "日本語", 3, "日本語"},
		{"accents at word boundary", "café crème brûlée", 12, "café crème"},
		{"emoji", strings.Repeat("🌙", 5), 4, strings.Repeat("🌙", 4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateClean(tt.in, tt.max)
			if got != tt.want {
				t.Errorf("truncateClean(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncateClean produced invalid UTF-8: %q", got)
			}
		})
	}
}

func TestValidateMomentKeepsUTF8(t *testing.T) {
	m, err := validateMoment(model.Moment{
		Category: model.CategoryInsight,
		Essence:  strings.Repeat("日", 900),
	})
	if err != nil {
		t.Fatalf("validateMoment: %v", err)
	}
	if !utf8.ValidString(m.Essence) {
		t.Fatal("essence is not valid UTF-8 after truncation")
	}
	if got := utf8.RuneCountInString(m.Essence); got != maxEssenceChars {
		t.Errorf("essence runes = %d, want %d", got, maxEssenceChars)
	}
}

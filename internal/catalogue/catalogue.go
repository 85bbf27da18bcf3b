// Package catalogue loads the static practice pool and the per-archetype
// personalization tables. Both are versioned configuration data; the engine
// never writes to them.
package catalogue

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/lazypower/rhythm/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// MaxFallbackMinutes bounds the fallback practice: the shortest time slot
// (10 minutes) plus 5 minutes of slack.
const MaxFallbackMinutes = 15

// ConfigurationError reports a catalogue that cannot be served. It is
// fatal at startup.
type ConfigurationError struct {
	Source string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("catalogue %s: %s", e.Source, e.Reason)
}

// Substitution replaces Old with New inside instruction lines.
type Substitution struct {
	Old string `yaml:"old"`
	New string `yaml:"new"`
}

// Catalogue is the validated, read-only practice pool.
type Catalogue struct {
	Version       string
	practices     []model.Practice
	fallback      model.Practice
	substitutions map[model.Archetype][]Substitution
}

type fileFormat struct {
	Version       string                    `yaml:"version"`
	Practices     []practiceYAML            `yaml:"practices"`
	Substitutions map[string][]Substitution `yaml:"substitutions"`
}

type practiceYAML struct {
	ID                string   `yaml:"id"`
	Title             string   `yaml:"title"`
	Description       string   `yaml:"description"`
	Duration          int      `yaml:"duration"`
	Energy            string   `yaml:"energy"`
	Modality          string   `yaml:"modality"`
	Archetypes        []string `yaml:"archetypes"`
	Seasons           []string `yaml:"seasons"`
	Instructions      []string `yaml:"instructions"`
	IntegrationPrompt string   `yaml:"integration_prompt"`
	Fallback          bool     `yaml:"fallback"`
}

// Default returns the catalogue compiled into the binary.
func Default() (*Catalogue, error) {
	return Parse("embedded", defaultYAML)
}

// Load reads a catalogue file. An empty path selects the embedded default.
func Load(path string) (*Catalogue, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalogue: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes and validates catalogue YAML. Any structural problem is a
// *ConfigurationError.
func Parse(source string, data []byte) (*Catalogue, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &ConfigurationError{Source: source, Reason: "decode yaml: " + err.Error()}
	}
	practices := make([]model.Practice, 0, len(f.Practices))
	for _, py := range f.Practices {
		p, err := py.toPractice()
		if err != nil {
			return nil, &ConfigurationError{Source: source, Reason: err.Error()}
		}
		practices = append(practices, p)
	}

	subs := make(map[model.Archetype][]Substitution, len(f.Substitutions))
	for tag, list := range f.Substitutions {
		a, err := model.ParseArchetype(tag)
		if err != nil {
			return nil, &ConfigurationError{Source: source, Reason: "substitutions: " + err.Error()}
		}
		for _, s := range list {
			if s.Old == "" {
				return nil, &ConfigurationError{Source: source, Reason: fmt.Sprintf("substitutions %s: empty old text", tag)}
			}
		}
		subs[a] = list
	}

	c, err := New(practices, subs)
	if err != nil {
		var ce *ConfigurationError
		if errors.As(err, &ce) {
			ce.Source = source
		}
		return nil, err
	}
	c.Version = f.Version
	return c, nil
}

// New builds a catalogue from already-decoded practices. Exactly one entry
// must be marked as the fallback.
func New(practices []model.Practice, subs map[model.Archetype][]Substitution) (*Catalogue, error) {
	if len(practices) == 0 {
		return nil, &ConfigurationError{Source: "memory", Reason: "no practices"}
	}
	seen := make(map[string]bool, len(practices))
	var fallback *model.Practice
	for i := range practices {
		p := &practices[i]
		if seen[p.ID] {
			return nil, &ConfigurationError{Source: "memory", Reason: fmt.Sprintf("duplicate practice id %q", p.ID)}
		}
		seen[p.ID] = true
		if p.Fallback {
			if fallback != nil {
				return nil, &ConfigurationError{Source: "memory", Reason: fmt.Sprintf("practices %q and %q both marked fallback", fallback.ID, p.ID)}
			}
			fallback = p
		}
	}
	if fallback == nil {
		return nil, &ConfigurationError{Source: "memory", Reason: "no fallback practice"}
	}
	// The fallback is served when nothing else fits, so it has to suit the
	// lowest energy and the shortest slot.
	if fallback.Energy != model.EnergyLow {
		return nil, &ConfigurationError{Source: "memory", Reason: fmt.Sprintf("fallback %q has energy %s, must be low", fallback.ID, fallback.Energy)}
	}
	if fallback.Duration > MaxFallbackMinutes {
		return nil, &ConfigurationError{Source: "memory", Reason: fmt.Sprintf("fallback %q lasts %d minutes, max %d", fallback.ID, fallback.Duration, MaxFallbackMinutes)}
	}
	if subs == nil {
		subs = map[model.Archetype][]Substitution{}
	}

	cloned := make([]model.Practice, len(practices))
	for i, p := range practices {
		cloned[i] = p.Clone()
	}
	return &Catalogue{
		practices:     cloned,
		fallback:      fallback.Clone(),
		substitutions: subs,
	}, nil
}

// Practices returns copies of every entry in catalogue order.
func (c *Catalogue) Practices() []model.Practice {
	out := make([]model.Practice, len(c.practices))
	for i, p := range c.practices {
		out[i] = p.Clone()
	}
	return out
}

// Fallback returns a copy of the universal fallback practice.
func (c *Catalogue) Fallback() model.Practice {
	return c.fallback.Clone()
}

// Substitutions returns the instruction rewrites for an archetype, in the
// order they should be applied.
func (c *Catalogue) Substitutions(a model.Archetype) []Substitution {
	return c.substitutions[a]
}

// Len is the number of practices, fallback included.
func (c *Catalogue) Len() int {
	return len(c.practices)
}

func (py practiceYAML) toPractice() (model.Practice, error) {
	if strings.TrimSpace(py.ID) == "" {
		return model.Practice{}, fmt.Errorf("practice with empty id")
	}
	if py.Duration <= 0 {
		return model.Practice{}, fmt.Errorf("practice %q: duration must be positive", py.ID)
	}
	if len(py.Instructions) == 0 {
		return model.Practice{}, fmt.Errorf("practice %q: no instructions", py.ID)
	}
	energy, err := model.ParseEnergy(py.Energy)
	if err != nil {
		return model.Practice{}, fmt.Errorf("practice %q: %w", py.ID, err)
	}
	modality, err := model.ParseModality(py.Modality)
	if err != nil {
		return model.Practice{}, fmt.Errorf("practice %q: %w", py.ID, err)
	}

	p := model.Practice{
		ID:                py.ID,
		Title:             py.Title,
		Description:       py.Description,
		Duration:          py.Duration,
		Energy:            energy,
		Modality:          modality,
		Instructions:      py.Instructions,
		IntegrationPrompt: py.IntegrationPrompt,
		Fallback:          py.Fallback,
	}
	for _, tag := range py.Archetypes {
		a, err := model.ParseArchetype(tag)
		if err != nil {
			return model.Practice{}, fmt.Errorf("practice %q: %w", py.ID, err)
		}
		p.Archetypes = append(p.Archetypes, a)
	}
	// The fallback is always available regardless of season.
	if py.Fallback && len(py.Seasons) == 0 {
		p.Seasons = model.AllSeasons()
	}
	for _, s := range py.Seasons {
		season, err := model.ParseSeason(s)
		if err != nil {
			return model.Practice{}, fmt.Errorf("practice %q: %w", py.ID, err)
		}
		p.Seasons = append(p.Seasons, season)
	}
	return p, nil
}

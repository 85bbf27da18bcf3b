// Package curator picks and personalizes a single practice for a subject.
package curator

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/lazypower/rhythm/internal/catalogue"
	"github.com/lazypower/rhythm/internal/model"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultGrowthEdgeChance is the probability that a growth edge is woven
// into the integration prompt.
const DefaultGrowthEdgeChance = 0.5

// Chance yields values in [0,1). *rand.Rand satisfies it.
type Chance interface {
	Float64() float64
}

// NewSeededChance returns a deterministic Chance. A zero seed uses the clock.
func NewSeededChance(seed uint64) Chance {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Request is everything needed to curate one practice.
type Request struct {
	Subject model.Subject
	State   *model.StateVector
	Profile model.RhythmProfile
	Now     time.Time
}

// Curator selects practices from a fixed catalogue.
type Curator struct {
	cat *catalogue.Catalogue
	log *zap.Logger

	mu     sync.Mutex
	chance Chance
	p      float64
}

// Option configures a Curator.
type Option func(*Curator)

// WithChance injects the randomness source for the growth edge branch and
// the probability p of taking it.
func WithChance(c Chance, p float64) Option {
	return func(cu *Curator) {
		cu.chance = c
		cu.p = p
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(cu *Curator) { cu.log = l }
}

// New creates a Curator. A missing or empty catalogue is a
// *catalogue.ConfigurationError.
func New(cat *catalogue.Catalogue, opts ...Option) (*Curator, error) {
	if cat == nil || cat.Len() == 0 {
		return nil, &catalogue.ConfigurationError{Source: "curator", Reason: "no practices"}
	}
	if !cat.Fallback().Fallback {
		return nil, &catalogue.ConfigurationError{Source: "curator", Reason: "no fallback practice"}
	}
	c := &Curator{
		cat:    cat,
		log:    zap.NewNop(),
		chance: NewSeededChance(0),
		p:      DefaultGrowthEdgeChance,
	}
	for _, o := range opts {
		o(c)
	}
	if c.p < 0 || c.p > 1 {
		return nil, &catalogue.ConfigurationError{Source: "curator", Reason: fmt.Sprintf("growth edge chance %v out of [0,1]", c.p)}
	}
	return c, nil
}

// EnergyFor classifies a state vector: mean <= 4 is low, >= 7 is high.
// No vector reads as medium.
func EnergyFor(v *model.StateVector) model.Energy {
	if v == nil {
		return model.EnergyMedium
	}
	switch o := v.Overall(); {
	case o <= 4:
		return model.EnergyLow
	case o >= 7:
		return model.EnergyHigh
	default:
		return model.EnergyMedium
	}
}

// TimeAvailable is the coarse number of minutes a subject has at hour.
func TimeAvailable(hour int) int {
	switch {
	case hour < 7 || hour >= 21:
		return 10
	case hour >= 12 && hour < 14:
		return 15
	case hour >= 18 && hour < 21:
		return 30
	default:
		return 20
	}
}

// Curate always returns a practice: the best scoring survivor of the hard
// filter, or the catalogue fallback. The result is a personalized copy.
func (c *Curator) Curate(req Request) model.Practice {
	energy := EnergyFor(req.State)
	minutes := TimeAvailable(req.Now.Hour())

	var (
		best      model.Practice
		bestScore = -1
		survivors int
	)
	for _, p := range c.cat.Practices() {
		if !passes(p, energy, minutes, req.Profile) {
			continue
		}
		survivors++
		if s := score(p, req.Subject, req.State); s > bestScore {
			best, bestScore = p, s
		}
	}
	if survivors == 0 {
		best = c.cat.Fallback()
	}

	c.log.Debug("practice curated",
		zap.String("subject", req.Subject.ID),
		zap.String("practice", best.ID),
		zap.String("energy", string(energy)),
		zap.Int("minutes", minutes),
		zap.Int("survivors", survivors),
		zap.Int("score", bestScore),
	)
	return c.personalize(best, req.Subject)
}

// passes is the hard filter. Every predicate must hold.
func passes(p model.Practice, energy model.Energy, minutes int, profile model.RhythmProfile) bool {
	if !energy.Compatible(p.Energy) {
		return false
	}
	if p.Duration > minutes+5 {
		return false
	}
	if len(profile.Modalities) > 0 && !slices.Contains(profile.Modalities, p.Modality) {
		return false
	}
	return slices.Contains(p.Seasons, profile.Season)
}

func score(p model.Practice, s model.Subject, state *model.StateVector) int {
	total := 0
	if slices.Contains(p.Archetypes, s.Primary) {
		total += 10
	}
	if s.Secondary != "" && slices.Contains(p.Archetypes, s.Secondary) {
		total += 5
	}
	if state != nil {
		for _, d := range model.AllDimensions() {
			if state.Value(d) < 5 && d.Modality() == p.Modality {
				total += 3
			}
		}
	}
	return total
}

func (c *Curator) personalize(p model.Practice, s model.Subject) model.Practice {
	p = p.Clone()
	subs := c.cat.Substitutions(s.Primary)
	for i, line := range p.Instructions {
		for _, sub := range subs {
			line = strings.ReplaceAll(line, sub.Old, sub.New)
		}
		p.Instructions[i] = line
	}

	var edge string
	if len(s.GrowthEdges) > 0 && c.roll() {
		edge = s.GrowthEdges[0]
	}
	var intention string
	if len(s.Intentions) > 0 {
		intention = s.Intentions[0]
	}
	if sentence := promptSentence(s.Primary, intention, edge); sentence != "" {
		p.IntegrationPrompt = strings.TrimSpace(p.IntegrationPrompt + " " + sentence)
	}
	return p
}

func (c *Curator) roll() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chance.Float64() < c.p
}

func promptSentence(a model.Archetype, intention, edge string) string {
	name := cases.Title(language.English).String(string(a))
	switch {
	case intention != "" && edge != "":
		return fmt.Sprintf("As a %s, carry your intention %q into this practice and notice how it meets your growth edge, %s.", name, intention, edge)
	case intention != "":
		return fmt.Sprintf("As a %s, carry your intention %q into this practice.", name, intention)
	case edge != "":
		return fmt.Sprintf("As a %s, notice how this practice meets your growth edge, %s.", name, edge)
	}
	return ""
}

// Package rhythm derives a subject's rhythm profile from a bounded window of
// moments and state vectors.
package rhythm

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/lazypower/rhythm/internal/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultWindow is how far back history is read.
	DefaultWindow = 90 * 24 * time.Hour

	pageSize = 500
)

// Source is the read side of the event store that the reader needs.
type Source interface {
	ListMoments(ctx context.Context, subjectID string, since time.Time, limit, offset int) ([]model.Moment, error)
	ListStateVectors(ctx context.Context, subjectID string, since time.Time) ([]model.StateVector, error)
	CurrentStateVector(ctx context.Context, subjectID string) (*model.StateVector, error)
}

// Reader computes rhythm profiles. It holds no per-subject state.
type Reader struct {
	src    Source
	window time.Duration
	now    func() time.Time
	loc    *time.Location
	log    *zap.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithWindow overrides the history window.
func WithWindow(d time.Duration) Option {
	return func(r *Reader) {
		if d > 0 {
			r.window = d
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Reader) { r.now = now }
}

// WithLocation sets the zone used to bucket hours and weekdays.
func WithLocation(loc *time.Location) Option {
	return func(r *Reader) { r.loc = loc }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Reader) { r.log = l }
}

// NewReader creates a Reader over src.
func NewReader(src Source, opts ...Option) *Reader {
	r := &Reader{
		src:    src,
		window: DefaultWindow,
		now:    time.Now,
		loc:    time.UTC,
		log:    zap.NewNop(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Now reports the reader's current time.
func (r *Reader) Now() time.Time {
	return r.now().In(r.loc)
}

// Compute reads the subject's window and derives a profile. Missing history
// never fails; only store errors are returned.
func (r *Reader) Compute(ctx context.Context, subject model.Subject) (model.RhythmProfile, error) {
	now := r.Now()
	since := now.Add(-r.window)

	var (
		moments []model.Moment
		history []model.StateVector
		current *model.StateVector
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		moments, err = r.allMoments(gctx, subject.ID, since)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = r.src.ListStateVectors(gctx, subject.ID, since)
		if err != nil {
			return fmt.Errorf("list state vectors: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		current, err = r.src.CurrentStateVector(gctx, subject.ID)
		if err != nil {
			return fmt.Errorf("current state vector: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.RhythmProfile{}, err
	}

	fields := []zap.Field{
		zap.String("subject", subject.ID),
		zap.Int("moments", len(moments)),
		zap.Int("state_vectors", len(history)),
		zap.Bool("has_state", current != nil),
	}
	if len(moments) > 0 && r.log.Core().Enabled(zap.DebugLevel) {
		fields = append(fields, zap.Stringer("busiest_month", buildHistograms(moments, r.loc).peakMonth()))
	}
	r.log.Debug("rhythm window read", fields...)

	return Infer(Input{
		Primary:  subject.Primary,
		Moments:  moments,
		History:  history,
		Current:  current,
		Now:      now,
		Since:    since,
		Location: r.loc,
	}), nil
}

func (r *Reader) allMoments(ctx context.Context, subjectID string, since time.Time) ([]model.Moment, error) {
	var all []model.Moment
	for offset := 0; ; offset += pageSize {
		page, err := r.src.ListMoments(ctx, subjectID, since, pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("list moments: %w", err)
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

// Input is everything Infer needs. It is a plain value so the derivation
// can be exercised without a store.
type Input struct {
	Primary  model.Archetype
	Moments  []model.Moment
	History  []model.StateVector
	Current  *model.StateVector
	Now      time.Time
	Since    time.Time
	Location *time.Location
}

// Infer derives a profile from already-fetched history. It is a total,
// deterministic function of its input.
func Infer(in Input) model.RhythmProfile {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	p := Defaults(in.Primary, in.Now)

	moments := make([]model.Moment, 0, len(in.Moments))
	for _, m := range in.Moments {
		if !in.Since.IsZero() && m.OccurredAt.Before(in.Since) {
			continue
		}
		moments = append(moments, m)
	}
	// Oldest first, so "first seen" means earliest.
	slices.SortStableFunc(moments, func(a, b model.Moment) int {
		return a.OccurredAt.Compare(b.OccurredAt)
	})

	if len(moments) > 0 {
		h := buildHistograms(moments, loc)
		hour := h.peakHour()
		p.OptimalTime = model.FormatHour(hour)
		p.DailyPeak = model.PeakForHour(hour)
		p.WeeklyFlow = h.weeklyFlow(model.DefaultsFor(in.Primary).WeeklyFlow)
		p.Modalities = preferredModalities(moments)
	}

	if in.Current != nil {
		overall := in.Current.Overall()
		variability := variabilityOf(in.History)
		trend := trendFor(overall)
		p.Energy = model.EnergyReading{
			Overall:     overall,
			Variability: variability,
			Trend:       trend,
		}
		p.Season = seasonFor(overall, trend)
		p.SeasonWeeks = seasonWeeks(overall, variability)
		p.Pause = pauseFor(overall, variability)
	}
	return p
}

type histograms struct {
	hours    [24]int
	weekdays [7]int
	months   [12]int
}

func buildHistograms(moments []model.Moment, loc *time.Location) histograms {
	var h histograms
	for _, m := range moments {
		t := m.OccurredAt.In(loc)
		h.hours[t.Hour()]++
		h.weekdays[t.Weekday()]++
		h.months[t.Month()-1]++
	}
	return h
}

// peakHour is the busiest hour; ties go to the earliest.
func (h histograms) peakHour() int {
	best := 0
	for hour, n := range h.hours {
		if n > h.hours[best] {
			best = hour
		}
	}
	return best
}

// peakMonth is the busiest month; ties go to the earliest. Only meaningful
// when at least one moment was counted.
func (h histograms) peakMonth() time.Month {
	best := 0
	for m, n := range h.months {
		if n > h.months[best] {
			best = m
		}
	}
	return time.Month(best + 1)
}

// weeklyFlow ranks weekdays by count, ties in Sunday..Saturday order, and
// backfills from fallback when fewer than three days have data.
func (h histograms) weeklyFlow(fallback []time.Weekday) []time.Weekday {
	days := make([]time.Weekday, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if h.weekdays[d] > 0 {
			days = append(days, d)
		}
	}
	slices.SortStableFunc(days, func(a, b time.Weekday) int {
		return cmp.Compare(h.weekdays[b], h.weekdays[a])
	})
	if len(days) > 3 {
		days = days[:3]
	}
	for _, d := range fallback {
		if len(days) == 3 {
			break
		}
		if !slices.Contains(days, d) {
			days = append(days, d)
		}
	}
	return days
}

func preferredModalities(moments []model.Moment) []model.Modality {
	counts := map[model.Modality]int{}
	var order []model.Modality
	for _, m := range moments {
		for _, mod := range m.Category.Modalities() {
			if _, ok := counts[mod]; !ok {
				order = append(order, mod)
			}
			counts[mod]++
		}
	}
	if len(order) == 0 {
		return append([]model.Modality(nil), DefaultModalities...)
	}
	slices.SortStableFunc(order, func(a, b model.Modality) int {
		return cmp.Compare(counts[b], counts[a])
	})
	if len(order) > 5 {
		order = order[:5]
	}
	return order
}

// variabilityOf is the population standard deviation of overall energy
// across the window, clamped to [1,3].
func variabilityOf(history []model.StateVector) float64 {
	if len(history) == 0 {
		return 1
	}
	var sum float64
	for _, v := range history {
		sum += v.Overall()
	}
	mean := sum / float64(len(history))
	var sq float64
	for _, v := range history {
		d := v.Overall() - mean
		sq += d * d
	}
	sd := math.Sqrt(sq / float64(len(history)))
	return min(max(sd, 1), 3)
}

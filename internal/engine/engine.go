package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/lazypower/rhythm/internal/curator"
	"github.com/lazypower/rhythm/internal/model"
	"github.com/lazypower/rhythm/internal/rhythm"
	"github.com/lazypower/rhythm/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultStoreTimeout bounds every individual store call.
	DefaultStoreTimeout = 300 * time.Millisecond
	// DefaultProfileTTL is how long a saved profile is reused by CuratePractice.
	DefaultProfileTTL = 12 * time.Hour

	recentMoments = 10
	writeAttempts = 4
)

// ErrInvalid marks input rejected before it reaches the store.
var ErrInvalid = errors.New("invalid input")

// Store is the persistence the engine needs. *store.DB satisfies it.
type Store interface {
	rhythm.Source
	CreateSubject(ctx context.Context, s model.Subject) (*model.Subject, error)
	GetSubject(ctx context.Context, id string) (*model.Subject, error)
	AppendMoment(ctx context.Context, subjectID string, m model.Moment) (*model.Moment, error)
	AppendStateVector(ctx context.Context, subjectID string, v model.StateVector) (*model.StateVector, error)
	GetRhythmProfile(ctx context.Context, subjectID string) (*store.StoredProfile, error)
	SaveRhythmProfile(ctx context.Context, subjectID string, p model.RhythmProfile, updatedAt time.Time) error
	AppendThread(ctx context.Context, subjectID string, th model.WisdomThread) (*model.WisdomThread, error)
	ListThreads(ctx context.Context, subjectID string) ([]model.WisdomThread, error)
	ContemplateThread(ctx context.Context, subjectID, threadID string) (*model.WisdomThread, error)
}

// Options tunes an Engine. Zero values select the defaults.
type Options struct {
	StoreTimeout time.Duration
	ProfileTTL   time.Duration
	Logger       *zap.Logger
}

// Engine composes the store, rhythm reader and curator for a single subject
// at a time. It holds no per-subject state between calls.
type Engine struct {
	store   Store
	reader  *rhythm.Reader
	curator *curator.Curator
	log     *zap.Logger
	tracer  trace.Tracer

	timeout time.Duration
	ttl     time.Duration
}

// New creates a new Engine.
func New(st Store, reader *rhythm.Reader, cur *curator.Curator, opts Options) *Engine {
	e := &Engine{
		store:   st,
		reader:  reader,
		curator: cur,
		log:     opts.Logger,
		tracer:  otel.Tracer("rhythm/engine"),
		timeout: opts.StoreTimeout,
		ttl:     opts.ProfileTTL,
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.timeout <= 0 {
		e.timeout = DefaultStoreTimeout
	}
	if e.ttl <= 0 {
		e.ttl = DefaultProfileTTL
	}
	return e
}

// ComputeRhythmProfile recomputes the subject's profile from history and
// saves it. If history cannot be read in time the archetype defaults are
// returned and nothing is written.
func (e *Engine) ComputeRhythmProfile(ctx context.Context, subjectID string) (model.RhythmProfile, error) {
	ctx, span := e.tracer.Start(ctx, "engine.ComputeRhythmProfile",
		trace.WithAttributes(attribute.String("subject", subjectID)))
	defer span.End()

	subject, err := e.GetSubject(ctx, subjectID)
	if err != nil {
		recordErr(span, err)
		return model.RhythmProfile{}, err
	}
	profile, fresh := e.compute(ctx, *subject)
	span.SetAttributes(attribute.Bool("defaults", !fresh))
	return profile, nil
}

// compute runs the reader and, on success, persists the result. fresh is
// false when the defaults were substituted.
func (e *Engine) compute(ctx context.Context, subject model.Subject) (profile model.RhythmProfile, fresh bool) {
	start := time.Now()
	rctx, cancel := context.WithTimeout(ctx, e.timeout)
	profile, err := e.reader.Compute(rctx, subject)
	cancel()
	if err != nil {
		e.log.Warn("rhythm read failed, using defaults",
			zap.String("subject", subject.ID), zap.Error(err))
		return rhythm.Defaults(subject.Primary, e.reader.Now()), false
	}

	// Never persist on behalf of a caller that has gone away.
	if ctx.Err() != nil {
		return profile, true
	}
	if err := e.saveProfile(ctx, subject.ID, profile); err != nil {
		e.log.Warn("save rhythm profile failed",
			zap.String("subject", subject.ID), zap.Error(err))
	}
	e.log.Debug("rhythm profile computed",
		zap.String("subject", subject.ID),
		zap.Duration("duration", time.Since(start)))
	return profile, true
}

// saveProfile stamps the profile with the reader's clock, the same clock
// the TTL check in cachedOrCompute reads.
func (e *Engine) saveProfile(ctx context.Context, subjectID string, p model.RhythmProfile) error {
	updatedAt := e.reader.Now()
	_, err := retryWrite(ctx, e, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, e.store.SaveRhythmProfile(ctx, subjectID, p, updatedAt)
	})
	return err
}

// CuratePractice returns one personalized practice. A saved profile younger
// than the TTL is reused; otherwise the profile is recomputed first.
func (e *Engine) CuratePractice(ctx context.Context, subjectID string) (model.Practice, error) {
	ctx, span := e.tracer.Start(ctx, "engine.CuratePractice",
		trace.WithAttributes(attribute.String("subject", subjectID)))
	defer span.End()

	subject, err := e.GetSubject(ctx, subjectID)
	if err != nil {
		recordErr(span, err)
		return model.Practice{}, err
	}

	var (
		profile model.RhythmProfile
		state   *model.StateVector
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		profile = e.cachedOrCompute(gctx, *subject)
		return nil
	})
	g.Go(func() error {
		state = e.currentState(gctx, subjectID)
		return nil
	})
	_ = g.Wait()

	now := e.reader.Now()
	p := e.curator.Curate(curator.Request{
		Subject: *subject,
		State:   state,
		Profile: profile,
		Now:     now,
	})
	span.SetAttributes(attribute.String("practice", p.ID))
	return p, nil
}

func (e *Engine) cachedOrCompute(ctx context.Context, subject model.Subject) model.RhythmProfile {
	sctx, cancel := context.WithTimeout(ctx, e.timeout)
	stored, err := e.store.GetRhythmProfile(sctx, subject.ID)
	cancel()
	if err != nil {
		e.log.Warn("load rhythm profile failed", zap.String("subject", subject.ID), zap.Error(err))
	}
	if stored != nil && e.reader.Now().Sub(stored.UpdatedAt) < e.ttl {
		return stored.Profile
	}
	profile, _ := e.compute(ctx, subject)
	return profile
}

// currentState reads the latest vector. Unavailability reads as no vector.
func (e *Engine) currentState(ctx context.Context, subjectID string) *model.StateVector {
	sctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	v, err := e.store.CurrentStateVector(sctx, subjectID)
	if err != nil {
		e.log.Warn("read current state failed", zap.String("subject", subjectID), zap.Error(err))
		return nil
	}
	return v
}

// LoadProfile assembles the subject aggregate. The rhythm profile is the
// saved one, or the archetype defaults; it is never recomputed here.
func (e *Engine) LoadProfile(ctx context.Context, subjectID string) (*model.Profile, error) {
	subject, err := e.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	agg := &model.Profile{Subject: *subject}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sctx, cancel := context.WithTimeout(gctx, e.timeout)
		defer cancel()
		v, err := e.store.CurrentStateVector(sctx, subjectID)
		agg.State = v
		return err
	})
	g.Go(func() error {
		sctx, cancel := context.WithTimeout(gctx, e.timeout)
		defer cancel()
		stored, err := e.store.GetRhythmProfile(sctx, subjectID)
		if err != nil {
			return err
		}
		if stored != nil {
			agg.Rhythm = stored.Profile
		} else {
			agg.Rhythm = rhythm.Defaults(subject.Primary, e.reader.Now())
		}
		return nil
	})
	g.Go(func() error {
		sctx, cancel := context.WithTimeout(gctx, e.timeout)
		defer cancel()
		m, err := e.store.ListMoments(sctx, subjectID, time.Time{}, recentMoments, 0)
		agg.RecentMoments = m
		return err
	})
	g.Go(func() error {
		sctx, cancel := context.WithTimeout(gctx, e.timeout)
		defer cancel()
		th, err := e.store.ListThreads(sctx, subjectID)
		agg.Threads = th
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return agg, nil
}

// CreateSubject registers a subject.
func (e *Engine) CreateSubject(ctx context.Context, s model.Subject) (*model.Subject, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("create subject: %w: %w", ErrInvalid, err)
	}
	return retryWrite(ctx, e, func(ctx context.Context) (*model.Subject, error) {
		return e.store.CreateSubject(ctx, s)
	})
}

// GetSubject loads a subject, returning store.ErrNotFound if unknown.
func (e *Engine) GetSubject(ctx context.Context, id string) (*model.Subject, error) {
	sctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.store.GetSubject(sctx, id)
}

// RecordMoment validates and appends a moment.
func (e *Engine) RecordMoment(ctx context.Context, subjectID string, m model.Moment) (*model.Moment, error) {
	m, err := validateMoment(m)
	if err != nil {
		return nil, fmt.Errorf("record moment: %w: %w", ErrInvalid, err)
	}
	return retryWrite(ctx, e, func(ctx context.Context) (*model.Moment, error) {
		return e.store.AppendMoment(ctx, subjectID, m)
	})
}

// ListMoments pages through a subject's moments, most recent first.
func (e *Engine) ListMoments(ctx context.Context, subjectID string, since time.Time, limit, offset int) ([]model.Moment, error) {
	if _, err := e.GetSubject(ctx, subjectID); err != nil {
		return nil, err
	}
	sctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.store.ListMoments(sctx, subjectID, since, limit, offset)
}

// RecordState appends a state vector.
func (e *Engine) RecordState(ctx context.Context, subjectID string, v model.StateVector) (*model.StateVector, error) {
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("record state: %w: %w", ErrInvalid, err)
	}
	return retryWrite(ctx, e, func(ctx context.Context) (*model.StateVector, error) {
		return e.store.AppendStateVector(ctx, subjectID, v)
	})
}

// CurrentState returns the latest vector, or nil if none has been recorded.
func (e *Engine) CurrentState(ctx context.Context, subjectID string) (*model.StateVector, error) {
	if _, err := e.GetSubject(ctx, subjectID); err != nil {
		return nil, err
	}
	sctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.store.CurrentStateVector(sctx, subjectID)
}

// RecordThread validates and appends a wisdom thread.
func (e *Engine) RecordThread(ctx context.Context, subjectID string, th model.WisdomThread) (*model.WisdomThread, error) {
	th, err := validateThread(th)
	if err != nil {
		return nil, fmt.Errorf("record thread: %w: %w", ErrInvalid, err)
	}
	return retryWrite(ctx, e, func(ctx context.Context) (*model.WisdomThread, error) {
		return e.store.AppendThread(ctx, subjectID, th)
	})
}

// ListThreads returns a subject's wisdom threads.
func (e *Engine) ListThreads(ctx context.Context, subjectID string) ([]model.WisdomThread, error) {
	if _, err := e.GetSubject(ctx, subjectID); err != nil {
		return nil, err
	}
	sctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.store.ListThreads(sctx, subjectID)
}

// ContemplateThread deepens a thread's integration by one level.
func (e *Engine) ContemplateThread(ctx context.Context, subjectID, threadID string) (*model.WisdomThread, error) {
	return retryWrite(ctx, e, func(ctx context.Context) (*model.WisdomThread, error) {
		return e.store.ContemplateThread(ctx, subjectID, threadID)
	})
}

// retryWrite runs a store write with a per-attempt timeout, retrying with
// exponential backoff while the store reports itself unavailable.
func retryWrite[T any](ctx context.Context, e *Engine, op func(context.Context) (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = time.Second

	return backoff.Retry(ctx, func() (T, error) {
		actx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()
		v, err := op(actx)
		if err != nil && !errors.Is(err, store.ErrUnavailable) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(writeAttempts))
}

func recordErr(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Package predictor projects athlete points from feature vectors.
//
// Each role has its own ridge regression. Fitted model sets are immutable
// and versioned; a Registry holds them and swaps the active one atomically.
// Roles without enough training data fall back to a decayed-mean heuristic.
package predictor

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/adapters/worker"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/features"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/logger"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/metrics"
)

// Predictor defaults.
const (
	defaultWindow          = 6
	defaultZeroStreak      = 2
	defaultHeuristicFactor = 0.5
	streakPenalty          = 0.5
	minMinutesShare        = 0.25
)

// Predictor turns feature vectors into projections.
type Predictor struct {
	registry        *Registry
	pool            *worker.Pool
	baseline        *ModelSet
	window          int
	zeroStreak      int
	heuristicFactor float64
	logger          logger.Logger
	now             func() time.Time
}

// NewPredictor creates a predictor reading the active set from registry and
// fanning out over pool.
func NewPredictor(registry *Registry, pool *worker.Pool, opts ...Option) *Predictor {
	p := &Predictor{
		registry:        registry,
		pool:            pool,
		window:          defaultWindow,
		zeroStreak:      defaultZeroStreak,
		heuristicFactor: defaultHeuristicFactor,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.baseline == nil {
		p.baseline = Baseline(DefaultFamily, Params{Ridge: defaultRidge, MinTrainingRows: defaultMinTrainingRows})
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("predictor")
	}
	return p
}

// Current returns the active set, or the heuristic baseline when nothing
// has been trained yet.
func (p *Predictor) Current() *ModelSet {
	if s := p.registry.Active(); s != nil {
		return s
	}
	return p.baseline
}

// Predict projects every vector for period with the current set. The
// result is ordered by athlete id.
func (p *Predictor) Predict(ctx context.Context, vectors []features.Vector, period int) ([]model.Projection, error) {
	return p.PredictWith(ctx, p.Current(), vectors, period)
}

// PredictWith projects with an explicit set. The set is read once so a
// concurrent activation cannot mix versions within one call.
func (p *Predictor) PredictWith(ctx context.Context, set *ModelSet, vectors []features.Vector, period int) ([]model.Projection, error) {
	if set == nil {
		set = p.baseline
	}
	now := p.now().UTC()
	out, err := worker.Map(ctx, p.pool, vectors, func(_ context.Context, v features.Vector) (model.Projection, error) {
		return p.project(set, v, period, now), nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AthleteID < out[j].AthleteID })
	p.logger.Debug(ctx, "projections computed",
		logger.String("version", set.Version),
		logger.Int("period", period),
		logger.Int("count", len(out)),
	)
	return out, nil
}

func (p *Predictor) project(set *ModelSet, v features.Vector, period int, now time.Time) model.Projection {
	m := set.Model(v.Role)
	heuristic := m.Heuristic || v.History == 0

	perFixture, agreement := v.Expectation, 1.0
	if !heuristic {
		mean, relErr := m.Predict(v.Values())
		if math.IsNaN(mean) || math.IsInf(relErr, 0) {
			heuristic = true
		} else {
			perFixture = mean
			agreement = 1 / (1 + relErr)
		}
	}
	perFixture = math.Max(0, perFixture)

	confidence := agreement * math.Min(1, float64(v.History)/float64(p.window)) * v.Availability
	if v.ZeroMinuteStreak >= p.zeroStreak {
		confidence *= streakPenalty
	}
	if heuristic {
		confidence *= p.heuristicFactor
	}

	per90 := 0.0
	if v.Common.MinutesShare > 0 {
		per90 = perFixture / math.Max(v.Common.MinutesShare, minMinutesShare)
	}

	metrics.RecordPrediction(v.Role.String(), heuristic)
	return model.Projection{
		AthleteID:      v.AthleteID,
		Period:         period,
		ModelVersion:   set.Version,
		Role:           v.Role,
		ExpectedPoints: perFixture * v.Availability * float64(v.FixtureCount),
		PointsPer90:    per90,
		Confidence:     clamp01(confidence),
		Heuristic:      heuristic,
		FixtureCount:   v.FixtureCount,
		GeneratedAt:    now,
	}
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

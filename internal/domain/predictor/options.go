package predictor

import (
	"time"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/logger"
)

// TrainerOption configures a Trainer.
type TrainerOption func(*Trainer)

// WithFamily sets the model family name used in versions.
func WithFamily(family string) TrainerOption {
	return func(t *Trainer) {
		if family != "" {
			t.family = family
		}
	}
}

// WithRidge sets the L2 penalty on standardised weights.
func WithRidge(ridge float64) TrainerOption {
	return func(t *Trainer) {
		if ridge >= 0 {
			t.params.Ridge = ridge
		}
	}
}

// WithMinTrainingRows sets how many rows a role needs before a regression
// is fitted instead of the heuristic.
func WithMinTrainingRows(n int) TrainerOption {
	return func(t *Trainer) {
		if n > 0 {
			t.params.MinTrainingRows = n
		}
	}
}

// WithTrainerLogger sets the trainer logger.
func WithTrainerLogger(l logger.Logger) TrainerOption {
	return func(t *Trainer) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithTrainerClock overrides the clock stamped on new sets.
func WithTrainerClock(now func() time.Time) TrainerOption {
	return func(t *Trainer) {
		if now != nil {
			t.now = now
		}
	}
}

// Option configures a Predictor.
type Option func(*Predictor)

// WithWindow sets the history window used by the sample-size penalty.
func WithWindow(periods int) Option {
	return func(p *Predictor) {
		if periods > 0 {
			p.window = periods
		}
	}
}

// WithZeroMinuteStreak sets the trailing zero-minute run that halves
// confidence.
func WithZeroMinuteStreak(n int) Option {
	return func(p *Predictor) {
		if n > 0 {
			p.zeroStreak = n
		}
	}
}

// WithHeuristicFactor sets the confidence multiplier for heuristic
// projections.
func WithHeuristicFactor(f float64) Option {
	return func(p *Predictor) {
		if f > 0 && f <= 1 {
			p.heuristicFactor = f
		}
	}
}

// WithBaseline sets the set used while nothing is active.
func WithBaseline(s *ModelSet) Option {
	return func(p *Predictor) {
		if s != nil {
			p.baseline = s
		}
	}
}

// WithLogger sets the predictor logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Predictor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock overrides the clock stamped on projections.
func WithClock(now func() time.Time) Option {
	return func(p *Predictor) {
		if now != nil {
			p.now = now
		}
	}
}

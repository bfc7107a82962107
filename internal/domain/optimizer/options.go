package optimizer

import (
	"time"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/logger"
)

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithPenalty sets the points charged per change beyond the free ones.
func WithPenalty(points float64) Option {
	return func(o *Optimizer) {
		if points >= 0 {
			o.penalty = points
		}
	}
}

// WithMaxChanges sets the default change limit used when a request leaves
// it negative.
func WithMaxChanges(n int) Option {
	return func(o *Optimizer) {
		if n >= 0 {
			o.maxChanges = n
		}
	}
}

// WithSolverTimeout bounds each exact solve.
func WithSolverTimeout(d time.Duration) Option {
	return func(o *Optimizer) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithBreaker configures the circuit breaker around the exact strategy:
// it opens after failures consecutive failures and retries after
// openTimeout.
func WithBreaker(failures uint32, openTimeout time.Duration) Option {
	return func(o *Optimizer) {
		if failures > 0 {
			o.breakerFailures = failures
		}
		if openTimeout > 0 {
			o.breakerTimeout = openTimeout
		}
	}
}

// WithPrimary replaces the exact strategy.
func WithPrimary(s Strategy) Option {
	return func(o *Optimizer) {
		if s != nil {
			o.primary = s
		}
	}
}

// WithFallback replaces the fallback strategy.
func WithFallback(s Strategy) Option {
	return func(o *Optimizer) {
		if s != nil {
			o.fallback = s
		}
	}
}

// WithChipAdvisor replaces the chip advisor.
func WithChipAdvisor(a *ChipAdvisor) Option {
	return func(o *Optimizer) {
		if a != nil {
			o.chips = a
		}
	}
}

// WithAutoForceUnavailable forces out squad members with no chance of
// playing.
func WithAutoForceUnavailable(enabled bool) Option {
	return func(o *Optimizer) {
		o.autoForce = enabled
	}
}

// WithLogger sets the optimizer logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Optimizer) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides the clock stamped on recommendations.
func WithClock(now func() time.Time) Option {
	return func(o *Optimizer) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator overrides recommendation id generation.
func WithIDGenerator(gen func() string) Option {
	return func(o *Optimizer) {
		if gen != nil {
			o.newID = gen
		}
	}
}

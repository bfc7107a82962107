package validation

import (
	"time"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/logger"
)

// Option configures a Validator.
type Option func(*Validator)

// WithBlendWeight sets the share of the original model kept by FineTune.
func WithBlendWeight(w float64) Option {
	return func(v *Validator) {
		if w >= 0 && w <= 1 {
			v.blendWeight = w
		}
	}
}

// WithLogger sets the validator logger.
func WithLogger(l logger.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithClock overrides the clock stamped on summaries.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// WithIDGenerator overrides run id generation.
func WithIDGenerator(gen func() string) Option {
	return func(v *Validator) {
		if gen != nil {
			v.newID = gen
		}
	}
}

package features

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithWindow sets how many trailing periods feed the aggregates.
func WithWindow(periods int) Option {
	return func(b *Builder) {
		if periods > 0 {
			b.window = periods
		}
	}
}

// WithDecay sets the per-period time-decay factor in (0,1].
func WithDecay(decay float64) Option {
	return func(b *Builder) {
		if decay > 0 && decay <= 1 {
			b.decay = decay
		}
	}
}

// WithOpponentCap bounds the opponent adjustment to [1-cap, 1+cap].
func WithOpponentCap(limit float64) Option {
	return func(b *Builder) {
		if limit >= 0 && limit < 1 {
			b.opponentCap = limit
		}
	}
}

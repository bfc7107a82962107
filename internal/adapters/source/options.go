package source

import "github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/scoring"

// Option configures a Memory source.
type Option func(*Memory)

// WithScorer sets the scorer used to fill missing record points.
func WithScorer(s scoring.Scorer) Option {
	return func(m *Memory) {
		if s != nil {
			m.scorer = s
		}
	}
}

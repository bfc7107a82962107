package milp

// Option configures a Solver.
type Option func(*Solver)

// WithMaxNodes caps the number of branch-and-bound nodes.
func WithMaxNodes(n int) Option {
	return func(s *Solver) {
		if n > 0 {
			s.maxNodes = n
		}
	}
}

// WithMaxPivots caps simplex pivots per relaxation.
func WithMaxPivots(n int) Option {
	return func(s *Solver) {
		if n > 0 {
			s.maxPivots = n
		}
	}
}

// WithIntegralityTolerance sets how far from an integer a value may be and
// still count as integral.
func WithIntegralityTolerance(tol float64) Option {
	return func(s *Solver) {
		if tol > 0 && tol < 0.5 {
			s.intTol = tol
		}
	}
}

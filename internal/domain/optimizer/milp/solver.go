package milp

import (
	"context"
	"errors"
	"fmt"
	"math"
)

const (
	defaultMaxNodes  = 20_000
	defaultMaxPivots = 50_000
	defaultIntTol    = 1e-6
	pruneTol         = 1e-9
)

// Status describes how a solution was obtained.
type Status int

const (
	// Optimal means the search tree was exhausted.
	Optimal Status = iota
	// NodeLimit means the best incumbent is returned without a proof of
	// optimality.
	NodeLimit
)

func (s Status) String() string {
	if s == NodeLimit {
		return "node_limit"
	}
	return "optimal"
}

// Solution is the result of Solve.
type Solution struct {
	Values    []float64
	Objective float64
	Nodes     int
	Status    Status
}

// Solver runs branch-and-bound. The zero value is not usable; call NewSolver.
type Solver struct {
	maxNodes  int
	maxPivots int
	intTol    float64
}

// NewSolver creates a solver with defaults adjusted by opts.
func NewSolver(opts ...Option) *Solver {
	s := &Solver{
		maxNodes:  defaultMaxNodes,
		maxPivots: defaultMaxPivots,
		intTol:    defaultIntTol,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type node struct {
	lo, hi []float64
}

func (n node) with(j int, lo, hi float64) node {
	out := node{lo: append([]float64(nil), n.lo...), hi: append([]float64(nil), n.hi...)}
	out.lo[j], out.hi[j] = lo, hi
	return out
}

// Solve maximises p. The search is depth-first, branches on the most
// fractional integer variable and explores the up branch first, so repeated
// solves of the same problem return the same solution.
func (s *Solver) Solve(ctx context.Context, p *Problem) (Solution, error) {
	if err := p.validate(); err != nil {
		return Solution{}, err
	}
	root := node{lo: make([]float64, len(p.vars)), hi: make([]float64, len(p.vars))}
	for j, v := range p.vars {
		root.lo[j], root.hi[j] = v.Lower, v.Upper
		if v.Integer {
			root.lo[j] = math.Ceil(v.Lower - s.intTol)
			root.hi[j] = math.Floor(v.Upper + s.intTol)
			if root.hi[j] < root.lo[j] {
				return Solution{}, ErrInfeasible
			}
		}
	}

	var (
		best    []float64
		bestObj = math.Inf(-1)
		nodes   int
		stack   = []node{root}
	)
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return Solution{Nodes: nodes}, fmt.Errorf("%w: %w", ErrAborted, err)
		}
		if nodes >= s.maxNodes {
			if best == nil {
				return Solution{Nodes: nodes}, ErrNodeLimit
			}
			return Solution{Values: best, Objective: bestObj, Nodes: nodes, Status: NodeLimit}, nil
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		x, obj, err := s.relax(ctx, p, nd)
		switch {
		case errors.Is(err, errLPInfeasible):
			continue
		case errors.Is(err, errLPUnbounded):
			return Solution{Nodes: nodes}, ErrUnbounded
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return Solution{Nodes: nodes}, fmt.Errorf("%w: %w", ErrAborted, err)
		case err != nil:
			return Solution{Nodes: nodes}, fmt.Errorf("%w: %w", ErrNumerical, err)
		}
		if best != nil && obj <= bestObj+pruneTol {
			continue
		}

		j := s.branchVariable(p, x)
		if j < 0 {
			for k, v := range p.vars {
				if v.Integer {
					x[k] = math.Round(x[k])
				}
			}
			best, bestObj = x, p.Objective(x)
			continue
		}
		stack = append(stack,
			nd.with(j, nd.lo[j], math.Floor(x[j])),
			nd.with(j, math.Ceil(x[j]), nd.hi[j]),
		)
	}
	if best == nil {
		return Solution{Nodes: nodes}, ErrInfeasible
	}
	return Solution{Values: best, Objective: bestObj, Nodes: nodes, Status: Optimal}, nil
}

// branchVariable returns the most fractional integer variable, or -1 when x
// is integral. Ties go to the lowest index.
func (s *Solver) branchVariable(p *Problem, x []float64) int {
	pick, worst := -1, s.intTol
	for j, v := range p.vars {
		if !v.Integer {
			continue
		}
		frac := math.Abs(x[j] - math.Round(x[j]))
		if frac > worst+pruneTol {
			pick, worst = j, frac
		}
	}
	return pick
}

// relax solves the LP relaxation of p under the bounds of nd. Variables whose
// bounds coincide are substituted out.
func (s *Solver) relax(ctx context.Context, p *Problem, nd node) ([]float64, float64, error) {
	free := make([]int, 0, len(p.vars))
	col := make([]int, len(p.vars))
	for j := range p.vars {
		col[j] = -1
		if nd.hi[j] > nd.lo[j] {
			col[j] = len(free)
			free = append(free, j)
		}
	}

	c := make([]float64, len(free))
	ub := make([]float64, len(free))
	for k, j := range free {
		c[k] = p.vars[j].Objective
		ub[k] = nd.hi[j] - nd.lo[j]
	}

	rows := make([]lpRow, 0, len(p.cons))
	for _, con := range p.cons {
		coef := make([]float64, len(free))
		rhs := con.RHS
		active := false
		for _, t := range con.Terms {
			rhs -= t.Coef * nd.lo[t.Var]
			if k := col[t.Var]; k >= 0 && t.Coef != 0 {
				coef[k] += t.Coef
				active = true
			}
		}
		if !active {
			if !satisfied(con.Sense, rhs) {
				return nil, 0, errLPInfeasible
			}
			continue
		}
		rows = append(rows, lpRow{coef: coef, sense: con.Sense, rhs: rhs})
	}

	x := append([]float64(nil), nd.lo...)
	if len(free) > 0 {
		y, _, err := solveLP(ctx, c, rows, ub, s.maxPivots)
		if err != nil {
			return nil, 0, err
		}
		for k, j := range free {
			x[j] += y[k]
		}
	}
	return x, p.Objective(x), nil
}

// satisfied checks 0 (sense) rhs for a constraint with no free variables.
func satisfied(sense Sense, rhs float64) bool {
	switch sense {
	case LessEq:
		return rhs >= -feasTol
	case GreaterEq:
		return rhs <= feasTol
	default:
		return math.Abs(rhs) <= feasTol
	}
}

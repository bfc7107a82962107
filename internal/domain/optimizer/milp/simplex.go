package milp

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	pivotTol    = 1e-9
	feasTol     = 1e-7
	ctxCheckMod = 32
)

var (
	errLPInfeasible = errors.New("lp infeasible")
	errLPUnbounded  = errors.New("lp unbounded")
)

// lpRow is a dense row over the free variables of a relaxation.
type lpRow struct {
	coef  []float64
	sense Sense
	rhs   float64
}

// tableau is a dense simplex tableau. The last column holds the right-hand
// side; obj holds reduced costs with the negated objective value in its last
// entry.
type tableau struct {
	t        *mat.Dense
	obj      []float64
	basis    []int
	rows     int
	width    int
	artStart int
	pivots   int
}

func (tb *tableau) rhs(i int) float64 { return tb.t.At(i, tb.width-1) }

func (tb *tableau) pivot(p, q int) {
	prow := tb.t.RawRowView(p)
	floats.Scale(1/prow[q], prow)
	prow[q] = 1
	for i := 0; i < tb.rows; i++ {
		if i == p {
			continue
		}
		row := tb.t.RawRowView(i)
		if f := row[q]; f != 0 {
			floats.AddScaled(row, -f, prow)
			row[q] = 0
		}
	}
	if f := tb.obj[q]; f != 0 {
		floats.AddScaled(tb.obj, -f, prow)
		tb.obj[q] = 0
	}
	tb.basis[p] = q
	tb.pivots++
}

// price sets obj to the reduced costs of costs under the current basis.
func (tb *tableau) price(costs []float64) {
	copy(tb.obj, costs)
	for i, b := range tb.basis {
		if cb := costs[b]; cb != 0 {
			floats.AddScaled(tb.obj, -cb, tb.t.RawRowView(i))
		}
	}
}

// iterate runs primal simplex with Bland's rule until optimal. Columns at or
// beyond limit never enter.
func (tb *tableau) iterate(ctx context.Context, limit, maxPivots int) error {
	rhsCol := tb.width - 1
	for {
		if tb.pivots%ctxCheckMod == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if tb.pivots > maxPivots {
			return ErrNumerical
		}
		q := -1
		for j := 0; j < limit; j++ {
			if tb.obj[j] > pivotTol {
				q = j
				break
			}
		}
		if q < 0 {
			return nil
		}
		p := -1
		best := math.Inf(1)
		for i := 0; i < tb.rows; i++ {
			a := tb.t.At(i, q)
			if a <= pivotTol {
				continue
			}
			ratio := math.Max(tb.t.At(i, rhsCol), 0) / a
			switch {
			case ratio < best-pivotTol:
				best, p = ratio, i
			case ratio <= best+pivotTol && p >= 0 && tb.basis[i] < tb.basis[p]:
				p = i
			}
		}
		if p < 0 {
			return errLPUnbounded
		}
		tb.pivot(p, q)
	}
}

// solveLP maximises c·y subject to rows and 0 <= y <= ub. It returns the
// optimal y and objective value.
func solveLP(ctx context.Context, c []float64, rows []lpRow, ub []float64, maxPivots int) ([]float64, float64, error) {
	n := len(c)
	all := make([]lpRow, 0, len(rows)+n)
	for _, r := range rows {
		if r.rhs < 0 {
			neg := make([]float64, n)
			floats.ScaleTo(neg, -1, r.coef)
			r = lpRow{coef: neg, sense: flip(r.sense), rhs: -r.rhs}
		}
		all = append(all, r)
	}
	for j := 0; j < n; j++ {
		if math.IsInf(ub[j], 1) {
			continue
		}
		coef := make([]float64, n)
		coef[j] = 1
		all = append(all, lpRow{coef: coef, sense: LessEq, rhs: ub[j]})
	}
	if len(all) == 0 {
		for j := range c {
			if c[j] > pivotTol {
				return nil, 0, errLPUnbounded
			}
		}
		return make([]float64, n), 0, nil
	}

	slacks, arts := 0, 0
	for _, r := range all {
		if r.sense != Equal {
			slacks++
		}
		if r.sense != LessEq {
			arts++
		}
	}
	m := len(all)
	width := n + slacks + arts + 1
	tb := &tableau{
		t:        mat.NewDense(m, width, nil),
		obj:      make([]float64, width),
		basis:    make([]int, m),
		rows:     m,
		width:    width,
		artStart: n + slacks,
	}
	s, a := n, n+slacks
	for i, r := range all {
		row := tb.t.RawRowView(i)
		copy(row, r.coef)
		row[width-1] = r.rhs
		switch r.sense {
		case LessEq:
			row[s] = 1
			tb.basis[i] = s
			s++
		case GreaterEq:
			row[s] = -1
			s++
			row[a] = 1
			tb.basis[i] = a
			a++
		case Equal:
			row[a] = 1
			tb.basis[i] = a
			a++
		}
	}

	if arts > 0 {
		costs := make([]float64, width)
		for j := tb.artStart; j < width-1; j++ {
			costs[j] = -1
		}
		tb.price(costs)
		if err := tb.iterate(ctx, width-1, maxPivots); err != nil {
			if errors.Is(err, errLPUnbounded) {
				return nil, 0, ErrNumerical
			}
			return nil, 0, err
		}
		if -tb.obj[width-1] < -feasTol {
			return nil, 0, errLPInfeasible
		}
		for i := 0; i < m; i++ {
			if tb.basis[i] < tb.artStart {
				continue
			}
			row := tb.t.RawRowView(i)
			for j := 0; j < tb.artStart; j++ {
				if math.Abs(row[j]) > pivotTol {
					tb.pivot(i, j)
					break
				}
			}
		}
	}

	costs := make([]float64, width)
	copy(costs, c)
	tb.price(costs)
	if err := tb.iterate(ctx, tb.artStart, maxPivots); err != nil {
		return nil, 0, err
	}

	y := make([]float64, n)
	for i, b := range tb.basis {
		if b < n {
			y[b] = math.Max(tb.rhs(i), 0)
		}
	}
	return y, floats.Dot(c, y), nil
}

func flip(s Sense) Sense {
	switch s {
	case LessEq:
		return GreaterEq
	case GreaterEq:
		return LessEq
	}
	return s
}

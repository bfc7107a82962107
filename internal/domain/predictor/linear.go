package predictor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	minRidge = 1e-8
	minScale = 1e-12
)

// RoleModel is a fitted ridge regression for one role. Weights and
// Intercept act on raw feature values; Means, Scales and Cov describe the
// standardised design and feed the uncertainty estimate.
type RoleModel struct {
	Features  []string  `json:"features"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
	Means     []float64 `json:"means"`
	Scales    []float64 `json:"scales"`
	// Cov is (ZᵀZ + λI)⁻¹ in row-major order.
	Cov []float64 `json:"cov"`
	// Sigma is the residual standard deviation.
	Sigma float64 `json:"sigma"`
	Rows  int     `json:"rows"`
	// Heuristic models carry no weights; predictions fall back to the
	// feature vector's own expectation.
	Heuristic bool `json:"heuristic"`
}

// fitRidge solves the ridge problem on standardised columns with an
// unpenalised intercept.
func fitRidge(x [][]float64, y []float64, ridge float64) (RoleModel, error) {
	n := len(x)
	if n == 0 || n != len(y) {
		return RoleModel{}, fmt.Errorf("fit ridge: %d rows, %d targets", n, len(y))
	}
	p := len(x[0])
	for i, row := range x {
		if len(row) != p {
			return RoleModel{}, fmt.Errorf("fit ridge: row %d has %d features, want %d", i, len(row), p)
		}
	}
	if ridge < minRidge {
		ridge = minRidge
	}

	means := make([]float64, p)
	scales := make([]float64, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		m, sd := stat.PopMeanStdDev(col, nil)
		if math.IsNaN(sd) || sd < minScale {
			sd = 1
		}
		means[j], scales[j] = m, sd
	}

	z := mat.NewDense(n, p, nil)
	for i, row := range x {
		zr := z.RawRowView(i)
		for j, v := range row {
			zr[j] = (v - means[j]) / scales[j]
		}
	}
	yMean := stat.Mean(y, nil)
	yc := append([]float64(nil), y...)
	floats.AddConst(-yMean, yc)

	var gram mat.SymDense
	gram.SymOuterK(1, z.T())
	for j := 0; j < p; j++ {
		gram.SetSym(j, j, gram.At(j, j)+ridge)
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(&gram); !ok {
		return RoleModel{}, fmt.Errorf("fit ridge: gram matrix not positive definite")
	}
	var rhs mat.VecDense
	rhs.MulVec(z.T(), mat.NewVecDense(n, yc))
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &rhs); err != nil {
		return RoleModel{}, fmt.Errorf("fit ridge: solve: %w", err)
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return RoleModel{}, fmt.Errorf("fit ridge: inverse: %w", err)
	}

	weights := make([]float64, p)
	intercept := yMean
	for j := 0; j < p; j++ {
		weights[j] = beta.AtVec(j) / scales[j]
		intercept -= weights[j] * means[j]
	}

	var ssr float64
	for i, row := range x {
		d := y[i] - (intercept + floats.Dot(weights, row))
		ssr += d * d
	}
	dof := n - p - 1
	if dof < 1 {
		dof = 1
	}

	cov := make([]float64, p*p)
	for i := 0; i < p; i++ {
		for j := 0; j < p; j++ {
			cov[i*p+j] = inv.At(i, j)
		}
	}
	return RoleModel{
		Weights:   weights,
		Intercept: intercept,
		Means:     means,
		Scales:    scales,
		Cov:       cov,
		Sigma:     math.Sqrt(ssr / float64(dof)),
		Rows:      n,
	}, nil
}

// Predict returns the mean estimate for x and its relative standard error,
// se/σ = sqrt(zᵀCz + 1/n), which is independent of the residual scale.
func (m RoleModel) Predict(x []float64) (mean, relErr float64) {
	if m.Heuristic || len(x) != len(m.Weights) {
		return 0, math.Inf(1)
	}
	mean = m.Intercept + floats.Dot(m.Weights, x)
	p := len(x)
	z := make([]float64, p)
	for j, v := range x {
		z[j] = (v - m.Means[j]) / m.Scales[j]
	}
	q := 1 / float64(m.Rows)
	if len(m.Cov) == p*p {
		c := mat.NewDense(p, p, m.Cov)
		zv := mat.NewVecDense(p, z)
		q += mat.Inner(zv, c, zv)
	}
	return mean, math.Sqrt(math.Max(q, 0))
}

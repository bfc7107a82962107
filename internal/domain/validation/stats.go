package validation

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
)

// Stats aggregates the error of records. Missing records must be filtered
// out by the caller.
func Stats(records []model.ValidationRecord) model.ErrorStats {
	n := len(records)
	if n == 0 {
		return model.ErrorStats{}
	}
	predicted := make([]float64, n)
	realized := make([]float64, n)
	abs := make([]float64, n)
	sq := make([]float64, n)
	signed := make([]float64, n)
	var pct []float64
	for i, r := range records {
		predicted[i], realized[i] = r.Predicted, r.Realized
		d := r.Predicted - r.Realized
		abs[i], sq[i], signed[i] = math.Abs(d), d*d, d
		if r.Realized != 0 {
			pct = append(pct, math.Abs(d)/math.Abs(r.Realized)*100)
		}
	}

	out := model.ErrorStats{
		Count:     n,
		MAE:       stat.Mean(abs, nil),
		RMSE:      math.Sqrt(stat.Mean(sq, nil)),
		Bias:      stat.Mean(signed, nil),
		MAPECount: len(pct),
		R2:        rSquared(predicted, realized),
	}
	if len(pct) > 0 {
		out.MAPE = stat.Mean(pct, nil)
	}
	return out
}

// rSquared is one for a perfect fit and zero when the realised values
// have no variance to explain.
func rSquared(predicted, realized []float64) float64 {
	var res float64
	for i := range realized {
		d := realized[i] - predicted[i]
		res += d * d
	}
	if res == 0 {
		return 1
	}
	if len(realized) < 2 || stat.Variance(realized, nil) == 0 {
		return 0
	}
	return stat.RSquaredFrom(predicted, realized, nil)
}

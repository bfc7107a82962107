package predictor

import (
	"math"
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFitRidge(t *testing.T) {
	Convey("Given rows from an exact linear relation", t, func() {
		rng := rand.New(rand.NewSource(3))
		x := make([][]float64, 50)
		y := make([]float64, 50)
		for i := range x {
			a, b := rng.Float64()*4, rng.Float64()*2
			x[i] = []float64{a, b, 7}
			y[i] = 2*a - 0.5*b + 1
		}

		Convey("When fitted with a negligible penalty", func() {
			m, err := fitRidge(x, y, 0)

			Convey("Then the raw weights recover the relation", func() {
				So(err, ShouldBeNil)
				So(m.Weights[0], ShouldAlmostEqual, 2, 1e-4)
				So(m.Weights[1], ShouldAlmostEqual, -0.5, 1e-4)
				So(m.Weights[2], ShouldAlmostEqual, 0, 1e-9)
				So(m.Intercept, ShouldAlmostEqual, 1, 1e-3)
				So(m.Scales[2], ShouldEqual, 1)
				So(m.Sigma, ShouldBeLessThan, 1e-4)
				So(m.Rows, ShouldEqual, 50)
			})

			Convey("And Predict matches the relation with a finite error", func() {
				mean, rel := m.Predict([]float64{1, 1, 7})
				So(mean, ShouldAlmostEqual, 2.5, 1e-3)
				So(math.IsInf(rel, 0), ShouldBeFalse)
				So(rel, ShouldBeGreaterThan, 0)
			})

			Convey("And points far from the data are less certain", func() {
				_, near := m.Predict(m.Means)
				_, far := m.Predict([]float64{40, -20, 7})
				So(far, ShouldBeGreaterThan, near)
				So(near, ShouldAlmostEqual, math.Sqrt(1.0/50), 1e-9)
			})
		})

		Convey("When fitted with a heavy penalty", func() {
			m, err := fitRidge(x, y, 1e6)
			So(err, ShouldBeNil)
			So(math.Abs(m.Weights[0]), ShouldBeLessThan, 0.1)
		})
	})

	Convey("Given malformed input", t, func() {
		_, err := fitRidge(nil, nil, 1)
		So(err, ShouldNotBeNil)
		_, err = fitRidge([][]float64{{1, 2}, {1}}, []float64{1, 2}, 1)
		So(err, ShouldNotBeNil)
	})

	Convey("A heuristic model never predicts", t, func() {
		_, rel := RoleModel{Heuristic: true}.Predict([]float64{1})
		So(math.IsInf(rel, 1), ShouldBeTrue)
	})
}

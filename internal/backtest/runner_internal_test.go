package backtest

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
)

func TestRealized(t *testing.T) {
	Convey("Given a lineup and outcomes", t, func() {
		l := played{lineup: model.Lineup{
			Starters:    []int{1, 2, 3},
			Bench:       []int{4},
			Captain:     1,
			ViceCaptain: 2,
		}}
		points := map[int]int{1: 6, 2: 3, 3: 2, 4: 5}

		Convey("Starters count and the captain doubles", func() {
			So(realized(l, points), ShouldEqual, 17)
		})
		Convey("Triple captain triples", func() {
			l.chip = model.ChipTripleCaptain
			So(realized(l, points), ShouldEqual, 23)
		})
		Convey("Bench boost adds the bench", func() {
			l.chip = model.ChipBenchBoost
			So(realized(l, points), ShouldEqual, 22)
		})
		Convey("A blank captain passes the armband to the vice", func() {
			points[1] = 0
			So(realized(l, points), ShouldEqual, 8)
		})
	})
}

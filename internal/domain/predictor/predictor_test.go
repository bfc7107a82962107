package predictor_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/adapters/worker"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/features"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/predictor"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/logger"
)

func init() {
	_ = logger.Init()
}

var fixedNow = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) //nolint:gochecknoglobals // test clock

// forwardRows returns n forward rows whose target is 2*points + 1.
func forwardRows(n int, seed int64) []features.Row {
	rng := rand.New(rand.NewSource(seed))
	width := len(features.Names(model.Forward))
	rows := make([]features.Row, n)
	for i := range rows {
		f := make([]float64, width)
		for j := range f {
			f[j] = rng.Float64()
		}
		f[0] *= 8
		rows[i] = features.Row{
			AthleteID: 1000 + i,
			Period:    5,
			Role:      model.Forward,
			Features:  f,
			Target:    2*f[0] + 1,
			History:   6,
		}
	}
	return rows
}

func forwardVector(id int, points float64) features.Vector {
	return features.Vector{
		AthleteID:    id,
		TeamID:       1,
		Role:         model.Forward,
		TargetPeriod: 6,
		History:      6,
		Appearances:  6,
		FixtureCount: 1,
		Availability: 1,
		Expectation:  points,
		Common:       features.Common{Points: points, MinutesShare: 1},
		RoleFeatures: features.ForwardFeatures{},
	}
}

func newTrainer(reg *predictor.Registry, opts ...predictor.TrainerOption) *predictor.Trainer {
	opts = append([]predictor.TrainerOption{
		predictor.WithMinTrainingRows(20),
		predictor.WithRidge(0),
		predictor.WithTrainerClock(func() time.Time { return fixedNow }),
	}, opts...)
	return predictor.NewTrainer(reg, features.NewBuilder(), opts...)
}

func TestTrainerFit(t *testing.T) {
	Convey("Given a trainer and forward-only rows", t, func() {
		tr := newTrainer(predictor.NewRegistry())
		rows := forwardRows(60, 1)

		Convey("When fitting twice on the same rows", func() {
			a, errA := tr.Fit(context.Background(), rows, 5)
			b, errB := tr.Fit(context.Background(), rows, 5)

			Convey("Then both sets share one version", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(a.Version, ShouldEqual, b.Version)
				So(a.Version, ShouldStartWith, "ridge-")
				So(len(a.Version), ShouldEqual, len("ridge-")+12)
				So(a.Models[model.Forward].Weights, ShouldResemble, b.Models[model.Forward].Weights)
			})

			Convey("And roles without rows fall back to the heuristic", func() {
				So(a.Models[model.Forward].Heuristic, ShouldBeFalse)
				So(a.Models[model.Goalkeeper].Heuristic, ShouldBeTrue)
				So(a.Models[model.Defender].Heuristic, ShouldBeTrue)
				So(a.Heuristic(), ShouldBeFalse)
			})
		})

		Convey("When one row changes", func() {
			a, _ := tr.Fit(context.Background(), rows, 5)
			changed := append([]features.Row(nil), rows...)
			changed[0].Target += 0.5
			b, _ := tr.Fit(context.Background(), changed, 5)
			So(a.Version, ShouldNotEqual, b.Version)
		})

		Convey("When the threshold exceeds the rows", func() {
			set, err := newTrainer(predictor.NewRegistry(), predictor.WithMinTrainingRows(100)).
				Fit(context.Background(), rows, 5)
			So(err, ShouldBeNil)
			So(set.Heuristic(), ShouldBeTrue)
		})

		Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := tr.Fit(ctx, rows, 5)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestTrainerTrain(t *testing.T) {
	Convey("Given a registry and synthetic history", t, func() {
		reg := predictor.NewRegistry()
		tr := newTrainer(reg, predictor.WithMinTrainingRows(1))
		var history []model.AthleteRecord
		for p := 1; p <= 6; p++ {
			history = append(history, model.AthleteRecord{
				AthleteID: 9, TeamID: 1, Role: model.Midfielder, Period: p,
				Minutes: 90, Goals: p % 2, Points: 2 + 5*(p%2), Price: 60,
				OpponentDefence: 1, OpponentAttack: 1,
			})
		}

		Convey("When training twice on the same history", func() {
			first, err1 := tr.Train(context.Background(), history, 6)
			second, err2 := tr.Train(context.Background(), history, 6)

			Convey("Then the registered set is reused and active", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(second, ShouldPointTo, first)
				So(reg.Versions(), ShouldHaveLength, 1)
				So(reg.Active(), ShouldPointTo, first)
				So(first.TrainedThrough, ShouldEqual, 6)
			})
		})

		Convey("When training through an earlier period", func() {
			full, _ := tr.Train(context.Background(), history, 6)
			early, err := tr.Train(context.Background(), history, 4)
			So(err, ShouldBeNil)
			So(early.Version, ShouldNotEqual, full.Version)
			So(early.Rows, ShouldBeLessThan, full.Rows)
			So(reg.Active(), ShouldPointTo, early)

			got, err := reg.Get(full.Version)
			So(err, ShouldBeNil)
			So(got, ShouldPointTo, full)
		})
	})
}

func TestRegistry(t *testing.T) {
	Convey("Given an empty registry", t, func() {
		reg := predictor.NewRegistry()

		Convey("Then nothing is active and lookups fail", func() {
			So(reg.Active(), ShouldBeNil)
			_, err := reg.Get("ridge-missing")
			So(errors.Is(err, model.ErrModelNotFound), ShouldBeTrue)
			So(errors.Is(reg.Activate("ridge-missing"), model.ErrModelNotFound), ShouldBeTrue)
		})

		Convey("When registering the same version twice", func() {
			a := &predictor.ModelSet{Version: "ridge-aaaaaaaaaaaa"}
			b := &predictor.ModelSet{Version: "ridge-aaaaaaaaaaaa", Rows: 99}
			_, added1 := reg.Register(a)
			stored, added2 := reg.Register(b)

			Convey("Then the first registration wins", func() {
				So(added1, ShouldBeTrue)
				So(added2, ShouldBeFalse)
				So(stored, ShouldPointTo, a)
				So(stored.Rows, ShouldEqual, 0)
			})
		})

		Convey("When readers race with activations", func() {
			sets := []*predictor.ModelSet{
				{Version: "ridge-000000000001"},
				{Version: "ridge-000000000002"},
			}
			for _, s := range sets {
				reg.Register(s)
			}
			So(reg.Activate(sets[0].Version), ShouldBeNil)

			var wg sync.WaitGroup
			seen := make(chan string, 400)
			for i := 0; i < 4; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 100; j++ {
						seen <- reg.Active().Version
					}
				}()
			}
			for i := 0; i < 50; i++ {
				_ = reg.Activate(sets[i%2].Version)
			}
			wg.Wait()
			close(seen)

			Convey("Then every read sees a complete registered set", func() {
				for v := range seen {
					So(v, ShouldBeIn, sets[0].Version, sets[1].Version)
				}
				So(reg.Versions(), ShouldResemble, []string{sets[0].Version, sets[1].Version})
			})
		})
	})
}

func TestPredictor(t *testing.T) {
	Convey("Given a predictor with nothing trained", t, func() {
		reg := predictor.NewRegistry()
		p := predictor.NewPredictor(reg, worker.NewPool(2),
			predictor.WithClock(func() time.Time { return fixedNow }))

		Convey("When projecting a regular athlete", func() {
			out, err := p.Predict(context.Background(), []features.Vector{forwardVector(4, 4)}, 6)

			Convey("Then the heuristic expectation is used with reduced confidence", func() {
				So(err, ShouldBeNil)
				So(out, ShouldHaveLength, 1)
				So(out[0].Heuristic, ShouldBeTrue)
				So(out[0].ExpectedPoints, ShouldAlmostEqual, 4)
				So(out[0].Confidence, ShouldAlmostEqual, 0.5)
				So(out[0].ModelVersion, ShouldEqual, p.Current().Version)
				So(out[0].GeneratedAt.Equal(fixedNow), ShouldBeTrue)
			})
		})

		Convey("When fixtures, availability and streaks vary", func() {
			double := forwardVector(1, 4)
			double.FixtureCount = 2
			blank := forwardVector(2, 4)
			blank.FixtureCount = 0
			doubtful := forwardVector(3, 4)
			doubtful.Availability = 0.5
			benched := forwardVector(5, 4)
			benched.ZeroMinuteStreak = 3
			rookie := forwardVector(6, 4)
			rookie.History = 3
			unknown := forwardVector(7, 0)
			unknown.History = 0

			out, err := p.Predict(context.Background(),
				[]features.Vector{unknown, rookie, benched, doubtful, blank, double}, 6)
			So(err, ShouldBeNil)
			byID := model.IndexProjections(out)

			Convey("Then each adjustment applies", func() {
				So(out[0].AthleteID, ShouldEqual, 1)
				So(byID[1].ExpectedPoints, ShouldAlmostEqual, 8)
				So(byID[2].ExpectedPoints, ShouldEqual, 0)
				So(byID[3].ExpectedPoints, ShouldAlmostEqual, 2)
				So(byID[3].Confidence, ShouldAlmostEqual, 0.25)
				So(byID[5].Confidence, ShouldAlmostEqual, 0.25)
				So(byID[6].Confidence, ShouldAlmostEqual, 0.25)
				So(byID[7].Confidence, ShouldEqual, 0)
				for _, pr := range out {
					So(pr.Confidence, ShouldBeBetweenOrEqual, 0, 1)
					So(pr.ExpectedPoints, ShouldBeGreaterThanOrEqualTo, 0)
				}
			})
		})
	})

	Convey("Given a trained forward model", t, func() {
		reg := predictor.NewRegistry()
		tr := newTrainer(reg)
		set, err := tr.Fit(context.Background(), forwardRows(80, 2), 5)
		So(err, ShouldBeNil)
		reg.Register(set)
		So(reg.Activate(set.Version), ShouldBeNil)
		p := predictor.NewPredictor(reg, worker.NewPool(4))

		Convey("When projecting forwards and a goalkeeper", func() {
			gk := features.Vector{
				AthleteID: 50, Role: model.Goalkeeper, History: 6, FixtureCount: 1,
				Availability: 1, Expectation: 3, RoleFeatures: features.GoalkeeperFeatures{},
			}
			out, err := p.Predict(context.Background(), []features.Vector{forwardVector(10, 3), gk}, 6)
			So(err, ShouldBeNil)
			byID := model.IndexProjections(out)

			Convey("Then forwards use the regression and goalkeepers the heuristic", func() {
				So(byID[10].Heuristic, ShouldBeFalse)
				So(byID[10].ExpectedPoints, ShouldAlmostEqual, 7, 1e-3)
				So(byID[10].Confidence, ShouldBeGreaterThan, 0)
				So(byID[10].Confidence, ShouldBeLessThan, 1)
				So(byID[10].ModelVersion, ShouldEqual, set.Version)
				So(byID[50].Heuristic, ShouldBeTrue)
				So(byID[50].ExpectedPoints, ShouldAlmostEqual, 3)
			})
		})
	})
}

func TestBlendAndFineTune(t *testing.T) {
	Convey("Given two fitted sets", t, func() {
		reg := predictor.NewRegistry()
		tr := newTrainer(reg)
		base, _ := tr.Fit(context.Background(), forwardRows(60, 1), 5)
		tuned, _ := tr.Fit(context.Background(), forwardRows(60, 9), 6)

		Convey("When blending with weight 0.9", func() {
			out := predictor.Blend(base, tuned, 0.9)
			again := predictor.Blend(base, tuned, 0.9)
			b, tm, m := base.Models[model.Forward], tuned.Models[model.Forward], out.Models[model.Forward]

			Convey("Then weights mix linearly and lineage is recorded", func() {
				So(m.Weights[0], ShouldAlmostEqual, 0.9*b.Weights[0]+0.1*tm.Weights[0], 1e-12)
				So(m.Intercept, ShouldAlmostEqual, 0.9*b.Intercept+0.1*tm.Intercept, 1e-12)
				So(m.Cov, ShouldResemble, b.Cov)
				So(out.Parent, ShouldEqual, base.Version)
				So(out.Version, ShouldEqual, again.Version)
				So(out.Version, ShouldNotEqual, base.Version)
				So(out.TrainedThrough, ShouldEqual, 6)
			})

			Convey("And base is left untouched", func() {
				So(base.Models[model.Forward].Weights[0], ShouldEqual, b.Weights[0])
				So(&base.Models[model.Forward].Weights[0], ShouldNotPointTo, &m.Weights[0])
			})
		})

		Convey("When weight is one", func() {
			out := predictor.Blend(base, tuned, 1)
			So(out.Models[model.Forward].Weights, ShouldResemble, base.Models[model.Forward].Weights)
		})
	})

	Convey("Given an active base set", t, func() {
		reg := predictor.NewRegistry()
		tr := newTrainer(reg, predictor.WithMinTrainingRows(1))
		var history []model.AthleteRecord
		for p := 1; p <= 5; p++ {
			history = append(history, model.AthleteRecord{
				AthleteID: 3, TeamID: 2, Role: model.Defender, Period: p,
				Minutes: 90, CleanSheets: p % 2, Points: 2 + 4*(p%2), Price: 50,
				OpponentDefence: 1, OpponentAttack: 1,
			})
		}
		base, err := tr.Train(context.Background(), history, 4)
		So(err, ShouldBeNil)

		Convey("When fine-tuning with the next period", func() {
			ft, err := tr.FineTune(context.Background(), base, history, 5, 0.9)

			Convey("Then a child version becomes active", func() {
				So(err, ShouldBeNil)
				So(ft.Parent, ShouldEqual, base.Version)
				So(reg.Active(), ShouldPointTo, ft)
				So(reg.Versions(), ShouldResemble, []string{base.Version, ft.Version})
			})
		})

		Convey("When the weight is out of range", func() {
			_, err := tr.FineTune(context.Background(), base, history, 5, 1.5)
			So(err, ShouldNotBeNil)
		})

		Convey("When no base is given", func() {
			_, err := tr.FineTune(context.Background(), nil, history, 5, 0.9)
			So(errors.Is(err, model.ErrModelNotFound), ShouldBeTrue)
		})
	})
}

package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/adapters/repository"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/adapters/source"
	service "github.com/vituk123/fpl-ai-thinktank4-sub000/internal/app"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/config"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model/modeltest"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

const (
	target    = 4
	standout  = 303
	baseScore = 2
	topScore  = 12
)

// records gives every athlete baseScore per period, except the unowned
// midfielder standout who scores topScore.
func records(periods ...int) []model.AthleteRecord {
	var out []model.AthleteRecord
	for _, p := range periods {
		for _, a := range modeltest.Athletes() {
			pts := baseScore
			if a.ID == standout {
				pts = topScore
			}
			out = append(out, model.AthleteRecord{
				AthleteID:       a.ID,
				TeamID:          a.TeamID,
				Role:            a.Role,
				Period:          p,
				Minutes:         90,
				Points:          pts,
				Price:           a.Price,
				OpponentDefence: 1,
				OpponentAttack:  1,
			})
		}
	}
	return out
}

func league() *source.Memory {
	return source.NewMemory(source.Dataset{
		Athletes: modeltest.Athletes(),
		Records:  records(1, 2, 3),
		Fixtures: append(modeltest.Fixtures(target), modeltest.Fixtures(target+1)...),
		Rosters:  []model.RosterState{modeltest.Roster(target)},
	})
}

func newService(src *source.Memory, opts ...service.Option) *service.Service {
	return service.New(src, repository.NewMemoryStore(), append([]service.Option{service.WithWorkerCount(4)}, opts...)...)
}

func TestService_New(t *testing.T) {
	Convey("Given a service built from default config", t, func() {
		svc := newService(league(), service.FromConfig(config.New())...)
		defer func() { _ = svc.Stop() }()

		Convey("Then it starts on the registered heuristic baseline", func() {
			So(svc.ActiveModelVersion(), ShouldStartWith, "ridge-")
			So(svc.ModelVersions(), ShouldResemble, []string{svc.ActiveModelVersion()})

			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, config.New().WorkerCount)
			So(stats["activeVersion"], ShouldEqual, svc.ActiveModelVersion())
		})
	})
}

func TestService_GetProjections(t *testing.T) {
	Convey("Given a service over a small league", t, func() {
		ctx := context.Background()
		svc := newService(league())

		Convey("A period without fixtures is stale", func() {
			_, err := svc.GetProjections(ctx, 30)
			So(errors.Is(err, model.ErrStaleData), ShouldBeTrue)
		})

		Convey("Every athlete is projected from its history", func() {
			got, err := svc.GetProjections(ctx, target)
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, len(modeltest.Athletes()))

			byID := model.IndexProjections(got)
			So(byID[standout].ExpectedPoints, ShouldAlmostEqual, topScore, 1e-9)
			So(byID[1].ExpectedPoints, ShouldAlmostEqual, baseScore, 1e-9)
			So(byID[1].Heuristic, ShouldBeTrue)
			So(byID[1].ModelVersion, ShouldEqual, svc.ActiveModelVersion())

			Convey("and asking again returns the stored projections", func() {
				again, err := svc.GetProjections(ctx, target)
				So(err, ShouldBeNil)
				So(again, ShouldResemble, got)
			})
		})
	})
}

func TestService_GenerateRecommendation(t *testing.T) {
	Convey("Given a service over a small league", t, func() {
		ctx := context.Background()
		src := league()
		svc := newService(src)

		Convey("When recommending for the test manager", func() {
			rec, err := svc.GenerateRecommendation(ctx, modeltest.ManagerID, target, -1, nil)
			So(err, ShouldBeNil)

			Convey("Then the standout midfielder is brought in", func() {
				So(len(rec.Transfers), ShouldEqual, 1)
				So(rec.Transfers[0].In, ShouldEqual, standout)
				So(rec.Transfers[0].Role, ShouldEqual, model.Midfielder)
				So(rec.NetGain, ShouldAlmostEqual, topScore-baseScore, 1e-9)
				So(rec.Strategy, ShouldEqual, model.StrategyMILP)
				So(rec.Lineup.Captain, ShouldEqual, standout)
				So(rec.ModelVersion, ShouldEqual, svc.ActiveModelVersion())
			})

			Convey("And it is stored", func() {
				stored, err := svc.Recommendations(ctx, modeltest.ManagerID, target)
				So(err, ShouldBeNil)
				So(len(stored), ShouldEqual, 1)
				So(stored[0].ID, ShouldEqual, rec.ID)
			})

			Convey("And accepting it updates the roster", func() {
				next, err := svc.AcceptRecommendation(ctx, rec)
				So(err, ShouldBeNil)
				_, held := next.Member(standout)
				So(held, ShouldBeTrue)
				So(next.FreeChanges, ShouldEqual, 0)
				So(next.Validate(), ShouldBeNil)

				current, err := src.Roster(ctx, modeltest.ManagerID)
				So(err, ShouldBeNil)
				_, held = current.Member(standout)
				So(held, ShouldBeTrue)
			})
		})

		Convey("A zero change limit keeps the squad", func() {
			rec, err := svc.GenerateRecommendation(ctx, modeltest.ManagerID, target, 0, nil)
			So(err, ShouldBeNil)
			So(rec.NoChange(), ShouldBeTrue)
		})

		Convey("An unknown manager fails", func() {
			_, err := svc.GenerateRecommendation(ctx, 404, target, -1, nil)
			So(errors.Is(err, source.ErrUnknownManager), ShouldBeTrue)
		})

		Convey("A period without fixtures is stale", func() {
			_, err := svc.GenerateRecommendation(ctx, modeltest.ManagerID, 30, -1, nil)
			So(errors.Is(err, model.ErrStaleData), ShouldBeTrue)
		})

		Convey("Accepting an unknown recommendation fails", func() {
			_, err := svc.AcceptRecommendation(ctx, model.Recommendation{ID: "missing"})
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestService_Train(t *testing.T) {
	Convey("Given a service over a small league", t, func() {
		ctx := context.Background()
		svc := newService(league())
		baseline := svc.ActiveModelVersion()

		Convey("Training activates a new version", func() {
			set, err := svc.Train(ctx, 3)
			So(err, ShouldBeNil)
			So(set.Version, ShouldNotEqual, baseline)
			So(set.TrainedThrough, ShouldEqual, 3)
			So(svc.ActiveModelVersion(), ShouldEqual, set.Version)

			Convey("and training again on the same data is a no-op", func() {
				again, err := svc.Train(ctx, 3)
				So(err, ShouldBeNil)
				So(again.Version, ShouldEqual, set.Version)
				So(len(svc.ModelVersions()), ShouldEqual, 2)
			})
		})
	})
}

func TestService_ValidatePeriod(t *testing.T) {
	Convey("Given projections for a period", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		src := league()
		svc := newService(src, service.WithAutoFineTune(true))
		_, err := svc.GetProjections(ctx, target)
		So(err, ShouldBeNil)
		validated := svc.ActiveModelVersion()

		Convey("Validation before outcomes arrive is stale", func() {
			_, err := svc.ValidatePeriod(ctx, target, "")
			So(errors.Is(err, model.ErrStaleData), ShouldBeTrue)
		})

		Convey("When the period closes exactly as projected", func() {
			src.AddRecords(records(target)...)
			summary, err := svc.ValidatePeriod(ctx, target, "")
			So(err, ShouldBeNil)

			Convey("Then the error is negligible", func() {
				So(summary.ModelVersion, ShouldEqual, validated)
				So(summary.Played.Count, ShouldEqual, len(modeltest.Athletes()))
				So(summary.Played.MAE, ShouldAlmostEqual, 0, 1e-9)
				So(summary.Played.RMSE, ShouldAlmostEqual, 0, 1e-9)
				So(summary.Played.R2, ShouldAlmostEqual, 1, 1e-9)
				So(summary.Missing, ShouldEqual, 0)
			})

			Convey("And a fine-tuned version becomes active", func() {
				So(summary.FineTunedVersion, ShouldNotBeEmpty)
				So(summary.FineTunedVersion, ShouldNotEqual, validated)
				So(svc.ActiveModelVersion(), ShouldEqual, summary.FineTunedVersion)
			})
		})

		Convey("Fine-tuning an unknown version fails", func() {
			src.AddRecords(records(target)...)
			_, err := svc.FineTune(ctx, target, "ridge-unknown")
			So(errors.Is(err, model.ErrModelNotFound), ShouldBeTrue)
		})
	})
}

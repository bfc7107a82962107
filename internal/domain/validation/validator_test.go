package validation_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/features"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/predictor"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/validation"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/logger"
)

func init() {
	_ = logger.Init()
}

type fakeProjections struct{ byVersion map[string][]model.Projection }

func (f fakeProjections) Projections(_ context.Context, _ int, version string) ([]model.Projection, error) {
	return f.byVersion[version], nil
}

type fakeOutcomes struct{ records []model.AthleteRecord }

func (f fakeOutcomes) Records(_ context.Context, period int) ([]model.AthleteRecord, error) {
	var out []model.AthleteRecord
	for _, r := range f.records {
		if r.Period == period {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f fakeOutcomes) History(_ context.Context, before int) ([]model.AthleteRecord, error) {
	var out []model.AthleteRecord
	for _, r := range f.records {
		if r.Period < before {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeResults struct {
	summaries []model.ValidationSummary
	records   [][]model.ValidationRecord
}

func (f *fakeResults) SaveValidation(_ context.Context, s model.ValidationSummary, r []model.ValidationRecord) error {
	f.summaries = append(f.summaries, s)
	f.records = append(f.records, r)
	return nil
}

func projection(id int, points float64) model.Projection {
	return model.Projection{AthleteID: id, Period: 3, ModelVersion: "ridge-abc", ExpectedPoints: points}
}

func outcome(id, period, minutes, points int) model.AthleteRecord {
	return model.AthleteRecord{
		AthleteID: id, TeamID: 1, Role: model.Midfielder, Period: period,
		Minutes: minutes, Points: points, Price: 60, OpponentDefence: 1, OpponentAttack: 1,
	}
}

func newValidator(p validation.ProjectionReader, o validation.OutcomeReader, r validation.ResultWriter,
	m validation.ModelSource, t validation.Tuner,
) *validation.Validator {
	return validation.NewValidator(p, o, r, m, t,
		validation.WithClock(func() time.Time { return time.Unix(0, 0) }),
		validation.WithIDGenerator(func() string { return "run-1" }),
	)
}

func TestStats(t *testing.T) {
	Convey("Given predictions that match exactly", t, func() {
		recs := []model.ValidationRecord{
			{Predicted: 2, Realized: 2},
			{Predicted: 6, Realized: 6},
			{Predicted: 0, Realized: 0},
		}
		s := validation.Stats(recs)

		Convey("Then every error is zero and R² is one", func() {
			So(s.Count, ShouldEqual, 3)
			So(s.MAE, ShouldEqual, 0)
			So(s.RMSE, ShouldEqual, 0)
			So(s.Bias, ShouldEqual, 0)
			So(s.R2, ShouldEqual, 1)
			So(s.MAPE, ShouldEqual, 0)
			So(s.MAPECount, ShouldEqual, 2)
		})
	})

	Convey("Given imperfect predictions", t, func() {
		recs := []model.ValidationRecord{
			{Predicted: 3, Realized: 2},
			{Predicted: 4, Realized: 6},
			{Predicted: 1, Realized: 0},
		}
		s := validation.Stats(recs)

		Convey("Then the aggregates follow their definitions", func() {
			So(s.MAE, ShouldAlmostEqual, 4.0/3)
			So(s.RMSE, ShouldAlmostEqual, math.Sqrt(6.0/3))
			So(s.Bias, ShouldAlmostEqual, 0)
			So(s.MAPECount, ShouldEqual, 2)
			So(s.MAPE, ShouldAlmostEqual, (50.0+100.0/3)/2)
			So(s.R2, ShouldAlmostEqual, 1-6.0/(56.0/3), 1e-9)
		})
	})

	Convey("Given constant outcomes with errors", t, func() {
		s := validation.Stats([]model.ValidationRecord{{Predicted: 1, Realized: 2}, {Predicted: 3, Realized: 2}})
		So(s.R2, ShouldEqual, 0)
	})

	Convey("Given no records", t, func() {
		So(validation.Stats(nil), ShouldResemble, model.ErrorStats{})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given stored projections and outcomes for period 3", t, func() {
		projs := fakeProjections{byVersion: map[string][]model.Projection{
			"ridge-abc": {projection(1, 5), projection(2, 2), projection(3, 1), projection(4, 3)},
		}}
		outs := fakeOutcomes{records: []model.AthleteRecord{
			outcome(1, 3, 90, 3),
			outcome(1, 3, 80, 2),
			outcome(2, 3, 60, 2),
			outcome(3, 3, 0, 0),
		}}
		results := &fakeResults{}
		v := newValidator(projs, outs, results, nil, nil)

		Convey("When validating", func() {
			summary, err := v.Validate(context.Background(), 3, "ridge-abc")

			Convey("Then played, did-not-play and missing are separated", func() {
				So(err, ShouldBeNil)
				So(summary.RunID, ShouldEqual, "run-1")
				So(summary.ModelVersion, ShouldEqual, "ridge-abc")
				So(summary.Played.Count, ShouldEqual, 2)
				So(summary.Played.MAE, ShouldEqual, 0)
				So(summary.Played.R2, ShouldEqual, 1)
				So(summary.DidNotPlay.Count, ShouldEqual, 1)
				So(summary.DidNotPlay.MAE, ShouldEqual, 1)
				So(summary.Missing, ShouldEqual, 1)
			})

			Convey("And the records are persisted with the summary", func() {
				So(results.summaries, ShouldHaveLength, 1)
				recs := results.records[0]
				So(recs, ShouldHaveLength, 4)
				So(recs[0].Realized, ShouldEqual, 5)
				So(recs[3].Missing, ShouldBeTrue)
			})
		})

		Convey("When the period has no outcomes yet", func() {
			_, err := v.Validate(context.Background(), 4, "ridge-abc")
			So(err, ShouldNotBeNil)
		})

		Convey("When outcomes are missing for a stored version", func() {
			projs.byVersion["ridge-new"] = []model.Projection{{AthleteID: 1, Period: 9, ModelVersion: "ridge-new"}}
			_, err := v.Validate(context.Background(), 9, "ridge-new")
			So(errors.Is(err, model.ErrStaleData), ShouldBeTrue)
			So(results.summaries, ShouldBeEmpty)
		})

		Convey("When the version has no projections", func() {
			_, err := v.Validate(context.Background(), 3, "ridge-zzz")
			So(errors.Is(err, model.ErrModelNotFound), ShouldBeTrue)
		})
	})
}

func TestFineTune(t *testing.T) {
	Convey("Given an active model trained through period 4", t, func() {
		var history []model.AthleteRecord
		for p := 1; p <= 5; p++ {
			history = append(history, outcome(1, p, 90, 2+p%3), outcome(2, p, 90, 1+p%2))
		}
		reg := predictor.NewRegistry()
		tr := predictor.NewTrainer(reg, features.NewBuilder(), predictor.WithMinTrainingRows(1))
		base, err := tr.Train(context.Background(), history, 4)
		So(err, ShouldBeNil)

		v := newValidator(fakeProjections{}, fakeOutcomes{records: history}, &fakeResults{}, reg, tr)

		Convey("When fine-tuning on period 5", func() {
			tuned, err := v.FineTune(context.Background(), 5, base.Version)

			Convey("Then a child of the base version becomes active", func() {
				So(err, ShouldBeNil)
				So(tuned.Parent, ShouldEqual, base.Version)
				So(tuned.BlendWeight, ShouldEqual, validation.DefaultBlendWeight)
				So(reg.Active(), ShouldPointTo, tuned)
			})
		})

		Convey("When the base version is unknown", func() {
			_, err := v.FineTune(context.Background(), 5, "ridge-unknown")
			So(errors.Is(err, model.ErrModelNotFound), ShouldBeTrue)
		})
	})
}

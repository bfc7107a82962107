// Package validation compares past projections with realised outcomes and
// feeds the error back into the predictor.
//
// Validation only reads projections and outcomes and appends validation
// records. Rosters and past recommendations are never touched.
package validation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/predictor"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/logger"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/metrics"
)

// DefaultBlendWeight keeps 90% of the original model when fine-tuning.
const DefaultBlendWeight = 0.9

// ProjectionReader returns the projections of one version for a period.
// An empty version selects the latest version stored for the period.
type ProjectionReader interface {
	Projections(ctx context.Context, period int, version string) ([]model.Projection, error)
}

// OutcomeReader returns realised athlete records.
type OutcomeReader interface {
	Records(ctx context.Context, period int) ([]model.AthleteRecord, error)
	History(ctx context.Context, before int) ([]model.AthleteRecord, error)
}

// ResultWriter persists validation output.
type ResultWriter interface {
	SaveValidation(ctx context.Context, summary model.ValidationSummary, records []model.ValidationRecord) error
}

// ModelSource resolves model versions.
type ModelSource interface {
	Get(version string) (*predictor.ModelSet, error)
}

// Tuner fine-tunes a model set on new outcomes.
type Tuner interface {
	FineTune(ctx context.Context, base *predictor.ModelSet, history []model.AthleteRecord, through int, weight float64) (*predictor.ModelSet, error)
}

// Validator scores projections against outcomes.
type Validator struct {
	projections ProjectionReader
	outcomes    OutcomeReader
	results     ResultWriter
	models      ModelSource
	tuner       Tuner
	blendWeight float64
	logger      logger.Logger
	now         func() time.Time
	newID       func() string
}

// NewValidator wires a validator.
func NewValidator(projections ProjectionReader, outcomes OutcomeReader, results ResultWriter,
	models ModelSource, tuner Tuner, opts ...Option,
) *Validator {
	v := &Validator{
		projections: projections,
		outcomes:    outcomes,
		results:     results,
		models:      models,
		tuner:       tuner,
		blendWeight: DefaultBlendWeight,
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = logger.Get().Named("validation")
	}
	return v
}

// Validate scores the projections of version for period. It fails with
// model.ErrStaleData when no outcomes exist yet and with
// model.ErrModelNotFound when no projections of version were stored.
func (v *Validator) Validate(ctx context.Context, period int, version string) (model.ValidationSummary, error) {
	projections, err := v.projections.Projections(ctx, period, version)
	if err != nil {
		return model.ValidationSummary{}, fmt.Errorf("validate period %d: %w", period, err)
	}
	if len(projections) == 0 {
		return model.ValidationSummary{}, fmt.Errorf("validate period %d version %q: no projections: %w", period, version, model.ErrModelNotFound)
	}
	outcomes, err := v.outcomes.Records(ctx, period)
	if err != nil {
		return model.ValidationSummary{}, fmt.Errorf("validate period %d: %w", period, err)
	}
	if len(outcomes) == 0 {
		return model.ValidationSummary{}, fmt.Errorf("validate period %d: no outcomes: %w", period, model.ErrStaleData)
	}

	records := Compare(projections, outcomes)
	var played, benched []model.ValidationRecord
	missing := 0
	for _, r := range records {
		switch {
		case r.Missing:
			missing++
		case r.Played:
			played = append(played, r)
		default:
			benched = append(benched, r)
		}
	}
	summary := model.ValidationSummary{
		RunID:        v.newID(),
		Period:       period,
		ModelVersion: projections[0].ModelVersion,
		Played:       Stats(played),
		DidNotPlay:   Stats(benched),
		Missing:      missing,
		CreatedAt:    v.now().UTC(),
	}
	if err := v.results.SaveValidation(ctx, summary, records); err != nil {
		return model.ValidationSummary{}, fmt.Errorf("save validation: %w", err)
	}

	metrics.UpdateValidationError(summary.Played.MAE, summary.Played.RMSE, summary.Played.R2, summary.Played.Bias)
	v.logger.Info(ctx, "validation complete",
		logger.Int("period", period),
		logger.String("version", summary.ModelVersion),
		logger.Int("played", summary.Played.Count),
		logger.Float64("mae", summary.Played.MAE),
		logger.Float64("rmse", summary.Played.RMSE),
		logger.Float64("r2", summary.Played.R2),
		logger.Int("missing", missing),
	)
	return summary, nil
}

// FineTune blends a model fitted on history through period into version
// and activates the result.
func (v *Validator) FineTune(ctx context.Context, period int, version string) (*predictor.ModelSet, error) {
	base, err := v.models.Get(version)
	if err != nil {
		return nil, err
	}
	history, err := v.outcomes.History(ctx, period+1)
	if err != nil {
		return nil, fmt.Errorf("fine-tune: %w", err)
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("fine-tune through %d: %w", period, model.ErrStaleData)
	}
	return v.tuner.FineTune(ctx, base, history, period, v.blendWeight)
}

// Compare pairs each projection with the summed outcome of its athlete.
// Projections without an outcome row are marked Missing. Records come back
// in athlete id order.
func Compare(projections []model.Projection, outcomes []model.AthleteRecord) []model.ValidationRecord {
	type outcome struct {
		points int
		played bool
	}
	realized := make(map[int]outcome, len(outcomes))
	for _, r := range outcomes {
		o := realized[r.AthleteID]
		o.points += r.Points
		o.played = o.played || r.Played()
		realized[r.AthleteID] = o
	}

	out := make([]model.ValidationRecord, 0, len(projections))
	for _, p := range projections {
		rec := model.ValidationRecord{
			AthleteID:    p.AthleteID,
			Period:       p.Period,
			ModelVersion: p.ModelVersion,
			Predicted:    p.ExpectedPoints,
		}
		o, ok := realized[p.AthleteID]
		if !ok {
			rec.Missing = true
			out = append(out, rec)
			continue
		}
		d := p.ExpectedPoints - float64(o.points)
		rec.Realized = float64(o.points)
		rec.AbsError = max(d, -d)
		rec.SqError = d * d
		rec.Played = o.played
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AthleteID < out[j].AthleteID })
	return out
}

package predictor

import (
	"context"
	"fmt"
	"time"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/features"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/logger"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/metrics"
)

// Trainer defaults.
const (
	DefaultFamily          = "ridge"
	defaultRidge           = 1.0
	defaultMinTrainingRows = 30
)

// Trainer fits model sets and publishes them to a Registry.
type Trainer struct {
	registry *Registry
	builder  *features.Builder
	family   string
	params   Params
	logger   logger.Logger
	now      func() time.Time
}

// NewTrainer creates a trainer publishing into registry. builder turns
// history into training rows.
func NewTrainer(registry *Registry, builder *features.Builder, opts ...TrainerOption) *Trainer {
	t := &Trainer{
		registry: registry,
		builder:  builder,
		family:   DefaultFamily,
		params:   Params{Ridge: defaultRidge, MinTrainingRows: defaultMinTrainingRows},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = logger.Get().Named("trainer")
	}
	return t
}

// Family is the model family this trainer produces.
func (t *Trainer) Family() string { return t.family }

// Params are the trainer's hyper-parameters.
func (t *Trainer) Params() Params { return t.params }

// Fit builds a model set from rows without registering it. Roles with fewer
// than MinTrainingRows rows get a heuristic model.
func (t *Trainer) Fit(ctx context.Context, rows []features.Row, through int) (*ModelSet, error) {
	byRole := make(map[model.Role][]features.Row, len(model.Roles))
	for _, r := range rows {
		byRole[r.Role] = append(byRole[r.Role], r)
	}

	set := &ModelSet{
		Version:        trainingVersion(t.family, t.params, rows),
		Family:         t.family,
		Params:         t.params,
		Models:         make(map[model.Role]RoleModel, len(model.Roles)),
		TrainedThrough: through,
		Rows:           len(rows),
		CreatedAt:      t.now().UTC(),
	}
	for _, role := range model.Roles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rr := byRole[role]
		names := features.Names(role)
		metrics.UpdateTrainingRows(role.String(), len(rr))
		if len(rr) < t.params.MinTrainingRows {
			t.logger.Info(ctx, "too few rows, using heuristic",
				logger.String("role", role.String()),
				logger.Int("rows", len(rr)),
				logger.Int("min_rows", t.params.MinTrainingRows),
			)
			set.Models[role] = RoleModel{Heuristic: true, Features: names, Rows: len(rr)}
			continue
		}
		x := make([][]float64, len(rr))
		y := make([]float64, len(rr))
		for i, r := range rr {
			x[i], y[i] = r.Features, r.Target
		}
		m, err := fitRidge(x, y, t.params.Ridge)
		if err != nil {
			t.logger.Warn(ctx, "ridge fit failed, using heuristic",
				logger.String("role", role.String()), logger.Error(err))
			set.Models[role] = RoleModel{Heuristic: true, Features: names, Rows: len(rr)}
			continue
		}
		m.Features = names
		set.Models[role] = m
	}
	return set, nil
}

// Train fits a set from history up to and including through, registers it
// and makes it active. Training the same input twice yields the already
// registered set.
func (t *Trainer) Train(ctx context.Context, history []model.AthleteRecord, through int) (*ModelSet, error) {
	unlock := t.registry.lockFamily(t.family)
	defer unlock()

	start := time.Now()
	set, err := t.Fit(ctx, t.rows(history, through), through)
	if err != nil {
		return nil, fmt.Errorf("train %s through %d: %w", t.family, through, err)
	}
	stored, added := t.registry.Register(set)
	if err := t.registry.Activate(stored.Version); err != nil {
		return nil, err
	}
	metrics.RecordTraining(t.family, time.Since(start))
	t.logger.Info(ctx, "model set trained",
		logger.String("version", stored.Version),
		logger.Int("rows", stored.Rows),
		logger.Int("through", through),
		logger.Bool("new", added),
	)
	return stored, nil
}

// FineTune fits a set on history up to and including through, blends it
// into base keeping weight of base, then registers and activates the
// result. base itself is left untouched.
func (t *Trainer) FineTune(ctx context.Context, base *ModelSet, history []model.AthleteRecord, through int, weight float64) (*ModelSet, error) {
	if base == nil {
		return nil, fmt.Errorf("fine-tune: %w", model.ErrModelNotFound)
	}
	if weight < 0 || weight > 1 {
		return nil, fmt.Errorf("fine-tune: blend weight %v outside [0,1]", weight)
	}
	unlock := t.registry.lockFamily(base.Family)
	defer unlock()

	start := time.Now()
	tuned, err := t.Fit(ctx, t.rows(history, through), through)
	if err != nil {
		return nil, fmt.Errorf("fine-tune %s: %w", base.Version, err)
	}
	blended := Blend(base, tuned, weight)
	blended.CreatedAt = t.now().UTC()
	stored, _ := t.registry.Register(blended)
	if err := t.registry.Activate(stored.Version); err != nil {
		return nil, err
	}
	metrics.RecordTraining(base.Family, time.Since(start))
	t.logger.Info(ctx, "model set fine-tuned",
		logger.String("base", base.Version),
		logger.String("version", stored.Version),
		logger.Float64("weight", weight),
	)
	return stored, nil
}

func (t *Trainer) rows(history []model.AthleteRecord, through int) []features.Row {
	kept := make([]model.AthleteRecord, 0, len(history))
	for _, r := range history {
		if r.Period <= through {
			kept = append(kept, r)
		}
	}
	return t.builder.TrainingRows(kept)
}

// Blend mixes tuned into base linearly: weight of base and 1-weight of
// tuned. Uncertainty terms come from base. A role that is heuristic in
// tuned keeps the base model; a role heuristic only in base takes the tuned
// model.
func Blend(base, tuned *ModelSet, weight float64) *ModelSet {
	out := &ModelSet{
		Version:        blendVersion(base.Family, base.Version, tuned.Version, weight),
		Family:         base.Family,
		Params:         base.Params,
		Models:         make(map[model.Role]RoleModel, len(model.Roles)),
		TrainedThrough: max(base.TrainedThrough, tuned.TrainedThrough),
		Rows:           tuned.Rows,
		Parent:         base.Version,
		BlendWeight:    weight,
		CreatedAt:      tuned.CreatedAt,
	}
	for _, role := range model.Roles {
		b, tm := base.Model(role), tuned.Model(role)
		switch {
		case tm.Heuristic || (!b.Heuristic && len(b.Weights) != len(tm.Weights)):
			out.Models[role] = b
		case b.Heuristic:
			out.Models[role] = tm
		default:
			m := b
			m.Weights = make([]float64, len(b.Weights))
			for j := range b.Weights {
				m.Weights[j] = weight*b.Weights[j] + (1-weight)*tm.Weights[j]
			}
			m.Intercept = weight*b.Intercept + (1-weight)*tm.Intercept
			out.Models[role] = m
		}
	}
	return out
}

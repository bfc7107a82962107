// Package service wires the engine together: it reads league data from a
// source, builds features, projects points, optimises rosters and closes
// the loop by validating projections against outcomes.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/adapters/repository"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/adapters/source"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/adapters/worker"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/features"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/optimizer"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/predictor"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/validation"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/logger"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/metrics"
)

const defaultHistoryPeriods = 38

// RosterWriter is implemented by sources that can store an accepted
// roster.
type RosterWriter interface {
	PutRoster(r model.RosterState)
}

// Service exposes the engine operations.
type Service struct {
	source source.Source
	store  repository.Store

	pool      *worker.Pool
	builder   *features.Builder
	registry  *predictor.Registry
	trainer   *predictor.Trainer
	predictor *predictor.Predictor
	optimizer *optimizer.Optimizer
	validator *validation.Validator

	// validateMu serialises validation and fine-tuning.
	validateMu sync.Mutex

	workerCount    int
	historyPeriods int
	autoFineTune   bool

	featureOpts    []features.Option
	trainerOpts    []predictor.TrainerOption
	predictorOpts  []predictor.Option
	optimizerOpts  []optimizer.Option
	validationOpts []validation.Option

	logger logger.Logger
}

// New constructs a Service over src and store.
func New(src source.Source, store repository.Store, opts ...Option) *Service {
	s := &Service{
		source:         src,
		store:          store,
		workerCount:    runtime.NumCPU() * 2,
		historyPeriods: defaultHistoryPeriods,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.pool = worker.NewPool(s.workerCount, worker.WithName("athletes"))
	s.builder = features.NewBuilder(s.featureOpts...)
	s.registry = predictor.NewRegistry()
	s.trainer = predictor.NewTrainer(s.registry, s.builder, s.trainerOpts...)

	// The baseline is registered so a validated heuristic version can be
	// fine-tuned like any other.
	baseline := predictor.Baseline(s.trainer.Family(), s.trainer.Params())
	s.registry.Register(baseline)
	s.predictor = predictor.NewPredictor(s.registry, s.pool,
		append([]predictor.Option{predictor.WithBaseline(baseline)}, s.predictorOpts...)...)

	s.optimizer = optimizer.NewOptimizer(s.optimizerOpts...)
	s.validator = validation.NewValidator(store, src, store, s.registry, s.trainer, s.validationOpts...)
	return s
}

// ActiveModelVersion is the version projections are currently made with.
func (s *Service) ActiveModelVersion() string {
	return s.predictor.Current().Version
}

// ModelVersions lists every registered model version, oldest first.
func (s *Service) ModelVersions() []string {
	return s.registry.Versions()
}

// Train fits a model set on the closed periods up to and including
// through and makes it active.
func (s *Service) Train(ctx context.Context, through int) (*predictor.ModelSet, error) {
	history, err := s.source.History(ctx, through+1)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	oldest := through - s.historyPeriods + 1
	var recent []model.AthleteRecord
	for _, r := range history {
		if r.Period >= oldest {
			recent = append(recent, r)
		}
	}
	return s.trainer.Train(ctx, recent, through)
}

// GetProjections returns the active model's projections for period,
// computing and storing them on first use. It fails with
// model.ErrStaleData when period has no fixtures.
func (s *Service) GetProjections(ctx context.Context, period int) ([]model.Projection, error) {
	set := s.predictor.Current()
	return s.projections(ctx, set, period)
}

func (s *Service) projections(ctx context.Context, set *predictor.ModelSet, period int) ([]model.Projection, error) {
	fixtures, err := s.source.Fixtures(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("fixtures for period %d: %w", period, err)
	}
	if len(fixtures) == 0 {
		return nil, fmt.Errorf("period %d has no fixtures: %w", period, model.ErrStaleData)
	}

	stored, err := s.store.Projections(ctx, period, set.Version)
	if err != nil {
		return nil, fmt.Errorf("load projections: %w", err)
	}
	if len(stored) > 0 {
		return stored, nil
	}

	athletes, err := s.source.Athletes(ctx)
	if err != nil {
		return nil, fmt.Errorf("athletes: %w", err)
	}
	history, err := s.source.History(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("history before period %d: %w", period, err)
	}
	byAthlete := make(map[int][]model.AthleteRecord, len(athletes))
	for _, r := range history {
		byAthlete[r.AthleteID] = append(byAthlete[r.AthleteID], r)
	}

	vectors, err := worker.Map(ctx, s.pool, athletes, func(_ context.Context, a model.Athlete) (features.Vector, error) {
		v, err := s.builder.Build(a, byAthlete[a.ID], fixtures, period)
		insufficient := errors.Is(err, model.ErrDataInsufficient)
		if err != nil && !insufficient {
			return features.Vector{}, err
		}
		metrics.RecordFeatureBuilt(a.Role.String(), insufficient)
		return v, nil
	})
	if err != nil {
		return nil, fmt.Errorf("build features for period %d: %w", period, err)
	}

	projected, err := s.predictor.PredictWith(ctx, set, vectors, period)
	if err != nil {
		return nil, fmt.Errorf("project period %d: %w", period, err)
	}
	if err := s.store.SaveProjections(ctx, projected); err != nil {
		return nil, fmt.Errorf("save projections: %w", err)
	}
	s.logger.Info(ctx, "projections generated",
		logger.Int("period", period),
		logger.String("version", set.Version),
		logger.Int("athletes", len(projected)),
	)
	// Read back so that a concurrent first writer wins.
	return s.store.Projections(ctx, period, set.Version)
}

// GenerateRecommendation recommends changes to a manager's roster for
// period. A negative maxChanges selects the configured default.
func (s *Service) GenerateRecommendation(ctx context.Context, managerID, period, maxChanges int, forcedOut []int) (model.Recommendation, error) {
	roster, err := s.source.Roster(ctx, managerID)
	if err != nil {
		return model.Recommendation{}, err
	}
	roster.Period = period

	set := s.predictor.Current()
	projections, err := s.projections(ctx, set, period)
	if err != nil {
		return model.Recommendation{}, err
	}
	athletes, err := s.source.Athletes(ctx)
	if err != nil {
		return model.Recommendation{}, fmt.Errorf("athletes: %w", err)
	}

	rec, err := s.optimizer.Optimize(ctx, optimizer.Request{
		Roster:       roster,
		Projections:  projections,
		Athletes:     athletes,
		MaxChanges:   maxChanges,
		ForcedOut:    forcedOut,
		ModelVersion: set.Version,
	})
	if err != nil {
		return model.Recommendation{}, err
	}
	if err := s.store.SaveRecommendation(ctx, rec); err != nil {
		return model.Recommendation{}, fmt.Errorf("save recommendation: %w", err)
	}
	return rec, nil
}

// Recommendations lists what was recommended to a manager for period.
func (s *Service) Recommendations(ctx context.Context, managerID, period int) ([]model.Recommendation, error) {
	return s.store.Recommendations(ctx, managerID, period)
}

// AcceptRecommendation applies a stored recommendation to the manager's
// current roster and returns the result. The roster is written back when
// the source supports it.
func (s *Service) AcceptRecommendation(ctx context.Context, rec model.Recommendation) (model.RosterState, error) {
	stored, err := s.store.Recommendation(ctx, rec.ID)
	if err != nil {
		return model.RosterState{}, err
	}
	roster, err := s.source.Roster(ctx, stored.ManagerID)
	if err != nil {
		return model.RosterState{}, err
	}
	next, err := roster.Apply(stored)
	if err != nil {
		return model.RosterState{}, fmt.Errorf("accept %s: %w", stored.ID, err)
	}
	if w, ok := s.source.(RosterWriter); ok {
		w.PutRoster(next)
	}
	s.logger.Info(ctx, "recommendation accepted",
		logger.String("id", stored.ID),
		logger.Int("manager", stored.ManagerID),
		logger.Int("transfers", len(stored.Transfers)),
	)
	return next, nil
}

// ValidatePeriod scores the projections of version for a closed period.
// An empty version selects the latest projections stored for the period.
// With auto fine-tuning enabled the validated model is then blended with
// a fit on the new outcomes.
func (s *Service) ValidatePeriod(ctx context.Context, period int, version string) (model.ValidationSummary, error) {
	s.validateMu.Lock()
	defer s.validateMu.Unlock()

	summary, err := s.validator.Validate(ctx, period, version)
	if err != nil {
		return model.ValidationSummary{}, err
	}
	if !s.autoFineTune {
		return summary, nil
	}
	tuned, err := s.validator.FineTune(ctx, period, summary.ModelVersion)
	if err != nil {
		s.logger.Warn(ctx, "fine-tune skipped",
			logger.Int("period", period),
			logger.String("version", summary.ModelVersion),
			logger.Error(err),
		)
		return summary, nil
	}
	summary.FineTunedVersion = tuned.Version
	return summary, nil
}

// FineTune blends version with a fit on outcomes through period and
// activates the result.
func (s *Service) FineTune(ctx context.Context, period int, version string) (*predictor.ModelSet, error) {
	s.validateMu.Lock()
	defer s.validateMu.Unlock()
	return s.validator.FineTune(ctx, period, version)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"workerCount":    s.pool.Size(),
		"activeVersion":  s.ActiveModelVersion(),
		"modelVersions":  len(s.registry.Versions()),
		"autoFineTune":   s.autoFineTune,
		"historyPeriods": s.historyPeriods,
	}
}

// Stop releases the store.
func (s *Service) Stop() error {
	return s.store.Close()
}

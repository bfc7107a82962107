package service

import (
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/config"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/features"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/optimizer"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/optimizer/milp"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/predictor"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/validation"
)

// FromConfig translates cfg into service options.
func FromConfig(cfg *config.Config) []Option {
	solver := milp.NewSolver(milp.WithMaxNodes(cfg.Optimizer.MaxNodes))
	return []Option{
		WithWorkerCount(cfg.WorkerCount),
		WithHistoryPeriods(cfg.Predictor.HistoryPeriods),
		WithAutoFineTune(cfg.Feedback.AutoFineTune),
		WithFeatureOptions(
			features.WithWindow(cfg.Features.Window),
			features.WithDecay(cfg.Features.Decay),
			features.WithOpponentCap(cfg.Features.OpponentCap),
		),
		WithTrainerOptions(
			predictor.WithFamily(cfg.Predictor.Family),
			predictor.WithRidge(cfg.Predictor.Ridge),
			predictor.WithMinTrainingRows(cfg.Predictor.MinTrainingRows),
		),
		WithPredictorOptions(
			predictor.WithWindow(cfg.Features.Window),
			predictor.WithZeroMinuteStreak(cfg.Predictor.ZeroMinuteStreak),
			predictor.WithHeuristicFactor(cfg.Predictor.HeuristicFactor),
		),
		WithOptimizerOptions(
			optimizer.WithPenalty(cfg.Optimizer.TransactionPenalty),
			optimizer.WithMaxChanges(cfg.Optimizer.MaxChanges),
			optimizer.WithSolverTimeout(cfg.Optimizer.SolverTimeout),
			optimizer.WithBreaker(cfg.Optimizer.Breaker.MaxFailures, cfg.Optimizer.Breaker.OpenTimeout),
			optimizer.WithPrimary(optimizer.NewMILPStrategy(solver, cfg.Optimizer.CandidatesPerRole, cfg.Optimizer.CheapestPerRole)),
			optimizer.WithAutoForceUnavailable(cfg.Optimizer.AutoForceUnavailable),
			optimizer.WithChipAdvisor(optimizer.NewChipAdvisor(cfg.Chips.BenchBoostThreshold, cfg.Chips.TripleCaptainThreshold)),
		),
		WithValidationOptions(validation.WithBlendWeight(cfg.Feedback.BlendWeight)),
	}
}

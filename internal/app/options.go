package service

import (
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/features"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/optimizer"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/predictor"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/validation"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the size of the per-athlete worker pool.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithHistoryPeriods limits how many closed periods Train reads.
func WithHistoryPeriods(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historyPeriods = n
		}
	}
}

// WithAutoFineTune fine-tunes the validated model after every validation.
func WithAutoFineTune(enabled bool) Option {
	return func(s *Service) {
		s.autoFineTune = enabled
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFeatureOptions configures the feature builder.
func WithFeatureOptions(opts ...features.Option) Option {
	return func(s *Service) {
		s.featureOpts = append(s.featureOpts, opts...)
	}
}

// WithTrainerOptions configures model training.
func WithTrainerOptions(opts ...predictor.TrainerOption) Option {
	return func(s *Service) {
		s.trainerOpts = append(s.trainerOpts, opts...)
	}
}

// WithPredictorOptions configures projection.
func WithPredictorOptions(opts ...predictor.Option) Option {
	return func(s *Service) {
		s.predictorOpts = append(s.predictorOpts, opts...)
	}
}

// WithOptimizerOptions configures squad optimisation.
func WithOptimizerOptions(opts ...optimizer.Option) Option {
	return func(s *Service) {
		s.optimizerOpts = append(s.optimizerOpts, opts...)
	}
}

// WithValidationOptions configures the validation loop.
func WithValidationOptions(opts ...validation.Option) Option {
	return func(s *Service) {
		s.validationOpts = append(s.validationOpts, opts...)
	}
}

// Package config defines the engine configuration and its loading hooks.
//
// Conventions:
//   - New() returns a Config populated with defaults.
//   - Load layers a YAML file and ROSTER_ environment variables on top.
//   - Validate reports problems wrapped in ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"time"
)

// Storage drivers.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	Log LogConfig `koanf:"log"`

	// MetricsAddr serves /metrics when non-empty, e.g. ":9100".
	MetricsAddr string `koanf:"metrics_addr"`

	// WorkerCount bounds the per-athlete parallel map.
	WorkerCount int `koanf:"worker_count"`

	Features  FeaturesConfig  `koanf:"features"`
	Predictor PredictorConfig `koanf:"predictor"`
	Optimizer OptimizerConfig `koanf:"optimizer"`
	Chips     ChipsConfig     `koanf:"chips"`
	Feedback  FeedbackConfig  `koanf:"feedback"`
	Storage   StorageConfig   `koanf:"storage"`
	Source    SourceConfig    `koanf:"source"`
}

// LogConfig controls verbosity and output format.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is text or json.
	Format string `koanf:"format"`
}

// FeaturesConfig tunes the feature builder.
type FeaturesConfig struct {
	Window      int     `koanf:"window"`
	Decay       float64 `koanf:"decay"`
	OpponentCap float64 `koanf:"opponent_cap"`
}

// PredictorConfig tunes training and confidence scoring.
type PredictorConfig struct {
	Family          string  `koanf:"family"`
	Ridge           float64 `koanf:"ridge"`
	MinTrainingRows int     `koanf:"min_training_rows"`
	HeuristicFactor float64 `koanf:"heuristic_factor"`
	// ZeroMinuteStreak is the run of trailing zero-minute periods after
	// which confidence is penalised.
	ZeroMinuteStreak int `koanf:"zero_minute_streak"`
	// HistoryPeriods limits how many closed periods Train reads.
	HistoryPeriods int `koanf:"history_periods"`
}

// OptimizerConfig tunes squad selection and the escalation policy.
type OptimizerConfig struct {
	TransactionPenalty   float64       `koanf:"transaction_penalty"`
	MaxChanges           int           `koanf:"max_changes"`
	SolverTimeout        time.Duration `koanf:"solver_timeout"`
	CandidatesPerRole    int           `koanf:"candidates_per_role"`
	CheapestPerRole      int           `koanf:"cheapest_per_role"`
	MaxNodes             int           `koanf:"max_nodes"`
	AutoForceUnavailable bool          `koanf:"auto_force_unavailable"`
	Breaker              BreakerConfig `koanf:"breaker"`
}

// BreakerConfig configures the circuit breaker around the integer solver.
type BreakerConfig struct {
	MaxFailures uint32        `koanf:"max_failures"`
	OpenTimeout time.Duration `koanf:"open_timeout"`
}

// ChipsConfig holds the chip activation thresholds in projected points.
type ChipsConfig struct {
	BenchBoostThreshold    float64 `koanf:"bench_boost_threshold"`
	TripleCaptainThreshold float64 `koanf:"triple_captain_threshold"`
}

// FeedbackConfig tunes the validation loop.
type FeedbackConfig struct {
	// BlendWeight is the share kept from the original model when fine-tuning.
	BlendWeight float64 `koanf:"blend_weight"`
	// AutoFineTune fine-tunes after every validation run.
	AutoFineTune bool `koanf:"auto_fine_tune"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver          string        `koanf:"driver"`
	DSN             string        `koanf:"dsn"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	Redis           RedisConfig   `koanf:"redis"`
}

// RedisConfig enables the projection cache when Addr is set.
type RedisConfig struct {
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	TTL      time.Duration `koanf:"ttl"`
}

// SourceConfig points at the dataset file the CLI reads.
type SourceConfig struct {
	Path string `koanf:"path"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		Log:         LogConfig{Level: "info", Format: "text"},
		WorkerCount: runtime.NumCPU() * 2,
		Features: FeaturesConfig{
			Window:      6,
			Decay:       0.9,
			OpponentCap: 0.25,
		},
		Predictor: PredictorConfig{
			Family:           "ridge",
			Ridge:            1.0,
			MinTrainingRows:  30,
			HeuristicFactor:  0.5,
			ZeroMinuteStreak: 2,
			HistoryPeriods:   38,
		},
		Optimizer: OptimizerConfig{
			TransactionPenalty:   4,
			MaxChanges:           2,
			SolverTimeout:        5 * time.Second,
			CandidatesPerRole:    12,
			CheapestPerRole:      4,
			MaxNodes:             20_000,
			AutoForceUnavailable: true,
			Breaker: BreakerConfig{
				MaxFailures: 3,
				OpenTimeout: 30 * time.Second,
			},
		},
		Chips: ChipsConfig{
			BenchBoostThreshold:    15,
			TripleCaptainThreshold: 10,
		},
		Feedback: FeedbackConfig{BlendWeight: 0.9},
		Storage: StorageConfig{
			Driver:          StorageMemory,
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			Redis:           RedisConfig{TTL: 10 * time.Minute},
		},
	}
}

// Validate checks ranges and cross-field requirements.
func (c *Config) Validate() error {
	switch {
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.Features.Window <= 0:
		return fmt.Errorf("%w: features.window must be positive", ErrInvalidConfig)
	case c.Features.Decay <= 0 || c.Features.Decay > 1:
		return fmt.Errorf("%w: features.decay must be in (0,1]", ErrInvalidConfig)
	case c.Features.OpponentCap < 0 || c.Features.OpponentCap >= 1:
		return fmt.Errorf("%w: features.opponent_cap must be in [0,1)", ErrInvalidConfig)
	case c.Predictor.Family == "":
		return fmt.Errorf("%w: predictor.family must not be empty", ErrInvalidConfig)
	case c.Predictor.Ridge < 0:
		return fmt.Errorf("%w: predictor.ridge must not be negative", ErrInvalidConfig)
	case c.Predictor.HeuristicFactor <= 0 || c.Predictor.HeuristicFactor > 1:
		return fmt.Errorf("%w: predictor.heuristic_factor must be in (0,1]", ErrInvalidConfig)
	case c.Optimizer.TransactionPenalty < 0:
		return fmt.Errorf("%w: optimizer.transaction_penalty must not be negative", ErrInvalidConfig)
	case c.Optimizer.MaxChanges < 0:
		return fmt.Errorf("%w: optimizer.max_changes must not be negative", ErrInvalidConfig)
	case c.Optimizer.SolverTimeout <= 0:
		return fmt.Errorf("%w: optimizer.solver_timeout must be positive", ErrInvalidConfig)
	case c.Feedback.BlendWeight < 0 || c.Feedback.BlendWeight > 1:
		return fmt.Errorf("%w: feedback.blend_weight must be in [0,1]", ErrInvalidConfig)
	}
	switch c.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("%w: storage.dsn is required for postgres", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage.driver %q", ErrInvalidConfig, c.Storage.Driver)
	}
	return nil
}

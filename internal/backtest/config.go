package backtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
)

// ErrInvalidConfig reports an unusable backtest configuration.
var ErrInvalidConfig = errors.New("invalid backtest config")

const minTeams = 6

// Config holds configuration for a backtest run.
type Config struct {
	Seed         uint64 // Seed of the synthetic league
	Teams        int    // Number of teams
	Periods      int    // Periods in the season
	WarmUp       int    // Closed periods before the first recommendation
	Managers     int    // Simulated managers
	RetrainEvery int    // Retrain every n periods; 0 disables retraining
	OutputFile   string // Optional dataset dump (.json, .yaml)
	Verbose      bool   // Log every recommendation
}

// DefaultConfig returns a 20 team, 38 period season with one manager.
func DefaultConfig() Config {
	return Config{
		Seed:         1,
		Teams:        20,
		Periods:      38,
		WarmUp:       6,
		Managers:     1,
		RetrainEvery: 1,
	}
}

// Validate checks ranges.
func (c Config) Validate() error {
	switch {
	case c.Teams < minTeams:
		return fmt.Errorf("%w: need at least %d teams", ErrInvalidConfig, minTeams)
	case c.WarmUp < 1:
		return fmt.Errorf("%w: warm-up must be at least one period", ErrInvalidConfig)
	case c.Periods <= c.WarmUp:
		return fmt.Errorf("%w: periods must exceed warm-up", ErrInvalidConfig)
	case c.Managers < 1:
		return fmt.Errorf("%w: need at least one manager", ErrInvalidConfig)
	case c.RetrainEvery < 0:
		return fmt.Errorf("%w: retrain interval must not be negative", ErrInvalidConfig)
	}
	return nil
}

// PeriodReport summarises one simulated period.
type PeriodReport struct {
	Period          int                     `json:"period"`
	ModelVersion    string                  `json:"model_version"`
	Recommendations int                     `json:"recommendations"`
	Transfers       int                     `json:"transfers"`
	Fallbacks       int                     `json:"fallbacks"`
	Projected       float64                 `json:"projected"`
	Realized        float64                 `json:"realized"`
	Validation      model.ValidationSummary `json:"validation"`
}

// Report holds the outcome of a backtest.
type Report struct {
	Seed      uint64         `json:"seed"`
	Periods   []PeriodReport `json:"periods"`
	Projected float64        `json:"projected"`
	Realized  float64        `json:"realized"`
	MeanMAE   float64        `json:"mean_mae"`
	Duration  time.Duration  `json:"duration"`
}

package model

import "time"

// ValidationRecord pairs one projection with its realised outcome.
type ValidationRecord struct {
	AthleteID    int     `json:"athlete_id"`
	Period       int     `json:"period"`
	ModelVersion string  `json:"model_version"`
	Predicted    float64 `json:"predicted"`
	Realized     float64 `json:"realized"`
	AbsError     float64 `json:"abs_error"`
	SqError      float64 `json:"sq_error"`
	Played       bool    `json:"played"`
	// Missing is set when no outcome row existed for the athlete.
	Missing bool `json:"missing"`
}

// ErrorStats aggregates error over a group of validation records.
type ErrorStats struct {
	Count int     `json:"count"`
	MAE   float64 `json:"mae"`
	RMSE  float64 `json:"rmse"`
	R2    float64 `json:"r2"`
	// MAPE is computed over records with a non-zero realised value only;
	// MAPECount says how many that was.
	MAPE      float64 `json:"mape"`
	MAPECount int     `json:"mape_count"`
	Bias      float64 `json:"bias"`
}

// ValidationSummary is the outcome of validating one period and version.
type ValidationSummary struct {
	RunID            string     `json:"run_id"`
	Period           int        `json:"period"`
	ModelVersion     string     `json:"model_version"`
	Played           ErrorStats `json:"played"`
	DidNotPlay       ErrorStats `json:"did_not_play"`
	Missing          int        `json:"missing"`
	FineTunedVersion string     `json:"fine_tuned_version,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

package model

import "time"

// Projection is one model version's expectation for one athlete in one
// period. Projections are appended; a later model version supersedes an
// earlier one without overwriting it.
type Projection struct {
	AthleteID      int       `json:"athlete_id"`
	Period         int       `json:"period"`
	ModelVersion   string    `json:"model_version"`
	Role           Role      `json:"role"`
	ExpectedPoints float64   `json:"expected_points"`
	PointsPer90    float64   `json:"points_per_90"`
	Confidence     float64   `json:"confidence"`
	Heuristic      bool      `json:"heuristic"`
	FixtureCount   int       `json:"fixture_count"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// IndexProjections keys projections by athlete id. When an athlete appears
// more than once the last entry wins.
func IndexProjections(ps []Projection) map[int]Projection {
	out := make(map[int]Projection, len(ps))
	for _, p := range ps {
		out[p.AthleteID] = p
	}
	return out
}

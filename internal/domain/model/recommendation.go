package model

import "time"

// Strategy names recorded on recommendations.
const (
	StrategyMILP   = "milp"
	StrategyGreedy = "greedy"
)

// Transfer is one roster change: Out leaves, In arrives.
type Transfer struct {
	Out       int     `json:"out"`
	In        int     `json:"in"`
	Role      Role    `json:"role"`
	OutTeam   int     `json:"out_team"`
	InTeam    int     `json:"in_team"`
	SellPrice int     `json:"sell_price"`
	BuyPrice  int     `json:"buy_price"`
	Gain      float64 `json:"gain"`
}

// Lineup is the starting eleven, bench order and armband choice.
type Lineup struct {
	Starters       []int   `json:"starters"`
	Bench          []int   `json:"bench"`
	Captain        int     `json:"captain"`
	ViceCaptain    int     `json:"vice_captain"`
	ExpectedPoints float64 `json:"expected_points"`
}

// ChipAdvice is the chip-timing verdict for a period. Activate is
// ChipNone when the advice is to hold.
type ChipAdvice struct {
	Activate      Chip    `json:"activate,omitempty"`
	Reason        string  `json:"reason"`
	BenchPoints   float64 `json:"bench_points"`
	CaptainPoints float64 `json:"captain_points"`
}

// Hold reports whether no chip should be played.
func (c ChipAdvice) Hold() bool { return c.Activate == ChipNone }

// Recommendation is an immutable optimizer verdict for one roster and
// period.
type Recommendation struct {
	ID             string      `json:"id"`
	ManagerID      int         `json:"manager_id"`
	Period         int         `json:"period"`
	ModelVersion   string      `json:"model_version"`
	Roster         RosterState `json:"roster"`
	Transfers      []Transfer  `json:"transfers"`
	GrossGain      float64     `json:"gross_gain"`
	Penalty        float64     `json:"penalty"`
	NetGain        float64     `json:"net_gain"`
	Lineup         Lineup      `json:"lineup"`
	Chip           ChipAdvice  `json:"chip"`
	Strategy       string      `json:"strategy"`
	FallbackReason string      `json:"fallback_reason,omitempty"`
	// Constrained marks a verdict that had to raise the change limit or
	// relax the per-team cap. One that relaxed the cap is advisory only:
	// RosterState.Apply rejects it with ErrInvalidRoster.
	Constrained bool      `json:"constrained"`
	CreatedAt   time.Time `json:"created_at"`
}

// NoChange reports whether the recommendation keeps the squad as is.
func (r Recommendation) NoChange() bool { return len(r.Transfers) == 0 }

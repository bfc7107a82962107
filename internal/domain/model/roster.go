package model

import (
	"fmt"
	"sort"
)

// Chip is a limited-use special play.
type Chip string

// Known chips.
const (
	ChipNone          Chip = ""
	ChipBenchBoost    Chip = "bench_boost"
	ChipTripleCaptain Chip = "triple_captain"
	ChipWildcard      Chip = "wildcard"
	ChipFreeHit       Chip = "free_hit"
)

// SquadMember is one athlete held in a roster.
type SquadMember struct {
	AthleteID     int  `json:"athlete_id" yaml:"athlete_id"`
	TeamID        int  `json:"team_id" yaml:"team_id"`
	Role          Role `json:"role" yaml:"role"`
	PurchasePrice int  `json:"purchase_price" yaml:"purchase_price"`
	SellingPrice  int  `json:"selling_price" yaml:"selling_price"`
	Starting      bool `json:"starting" yaml:"starting"`
	Captain       bool `json:"captain" yaml:"captain"`
	ViceCaptain   bool `json:"vice_captain" yaml:"vice_captain"`
	BenchOrder    int  `json:"bench_order,omitempty" yaml:"bench_order,omitempty"`
}

// RosterState is one manager's current squad.
type RosterState struct {
	ManagerID      int           `json:"manager_id" yaml:"manager_id"`
	Period         int           `json:"period" yaml:"period"`
	Members        []SquadMember `json:"members" yaml:"members"`
	Bank           int           `json:"bank" yaml:"bank"`
	FreeChanges    int           `json:"free_changes" yaml:"free_changes"`
	AvailableChips []Chip        `json:"available_chips,omitempty" yaml:"available_chips,omitempty"`
	ActiveChip     Chip          `json:"active_chip,omitempty" yaml:"active_chip,omitempty"`
}

// Value is the total selling value of the squad.
func (r RosterState) Value() int {
	total := 0
	for _, m := range r.Members {
		total += m.SellingPrice
	}
	return total
}

// Budget is the most that may be spent on the final squad.
func (r RosterState) Budget() int { return r.Value() + r.Bank }

// Member looks up a squad member by athlete id.
func (r RosterState) Member(id int) (SquadMember, bool) {
	for _, m := range r.Members {
		if m.AthleteID == id {
			return m, true
		}
	}
	return SquadMember{}, false
}

// HasChip reports whether c is still available.
func (r RosterState) HasChip(c Chip) bool {
	for _, a := range r.AvailableChips {
		if a == c {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (r RosterState) Clone() RosterState {
	out := r
	out.Members = append([]SquadMember(nil), r.Members...)
	out.AvailableChips = append([]Chip(nil), r.AvailableChips...)
	return out
}

// Validate checks the squad invariants: exact role quotas, at most
// MaxPerTeam per team, unique athletes and a non-negative bank.
func (r RosterState) Validate() error {
	if r.Bank < 0 {
		return fmt.Errorf("%w: bank %d is negative", ErrInvalidRoster, r.Bank)
	}
	roles := make([]Role, len(r.Members))
	teams := make([]int, len(r.Members))
	seen := make(map[int]bool, len(r.Members))
	var starters []Role
	captains, vices := 0, 0
	for i, m := range r.Members {
		if seen[m.AthleteID] {
			return fmt.Errorf("%w: athlete %d listed twice", ErrInvalidRoster, m.AthleteID)
		}
		seen[m.AthleteID] = true
		roles[i] = m.Role
		teams[i] = m.TeamID
		if m.Starting {
			starters = append(starters, m.Role)
		}
		if m.Captain {
			captains++
		}
		if m.ViceCaptain {
			vices++
		}
	}
	if err := CheckSquad(roles, teams, MaxPerTeam); err != nil {
		return err
	}
	if len(starters) > 0 {
		if err := CheckLineup(starters); err != nil {
			return err
		}
	}
	if captains > 1 || vices > 1 {
		return fmt.Errorf("%w: %d captains, %d vice-captains", ErrInvalidRoster, captains, vices)
	}
	return nil
}

// CheckSquad validates a 15-athlete composition. A teamCap <= 0 disables
// the per-team check.
func CheckSquad(roles []Role, teams []int, teamCap int) error {
	if len(roles) != SquadSize {
		return fmt.Errorf("%w: squad has %d athletes, want %d", ErrInvalidRoster, len(roles), SquadSize)
	}
	counts := make(map[Role]int, len(Roles))
	for _, role := range roles {
		if !role.Valid() {
			return fmt.Errorf("%w: invalid role %d", ErrInvalidRoster, int(role))
		}
		counts[role]++
	}
	for _, role := range Roles {
		if counts[role] != role.SquadQuota() {
			return fmt.Errorf("%w: %d %s, want %d", ErrInvalidRoster, counts[role], role, role.SquadQuota())
		}
	}
	if teamCap > 0 {
		perTeam := make(map[int]int)
		for _, t := range teams {
			perTeam[t]++
			if perTeam[t] > teamCap {
				return fmt.Errorf("%w: more than %d athletes from team %d", ErrInvalidRoster, teamCap, t)
			}
		}
	}
	return nil
}

// CheckLineup validates a starting eleven formation.
func CheckLineup(roles []Role) error {
	if len(roles) != LineupSize {
		return fmt.Errorf("%w: lineup has %d starters, want %d", ErrInvalidRoster, len(roles), LineupSize)
	}
	counts := make(map[Role]int, len(Roles))
	for _, role := range roles {
		counts[role]++
	}
	for _, role := range Roles {
		if counts[role] < role.MinStarters() || counts[role] > role.MaxStarters() {
			return fmt.Errorf("%w: %d starting %s", ErrInvalidRoster, counts[role], role)
		}
	}
	return nil
}

// Apply returns the roster that results from accepting rec. The receiver
// is not modified. The result must pass Validate, so a recommendation
// whose forced replacement relaxed the team cap fails with ErrInvalidRoster.
func (r RosterState) Apply(rec Recommendation) (RosterState, error) {
	if rec.ManagerID != r.ManagerID {
		return RosterState{}, fmt.Errorf("%w: recommendation for manager %d applied to %d", ErrInvalidRoster, rec.ManagerID, r.ManagerID)
	}
	next := r.Clone()
	for _, t := range rec.Transfers {
		idx := -1
		for i, m := range next.Members {
			if m.AthleteID == t.Out {
				idx = i
				break
			}
		}
		if idx < 0 {
			return RosterState{}, fmt.Errorf("%w: athlete %d not in squad", ErrUnknownAthlete, t.Out)
		}
		next.Bank += next.Members[idx].SellingPrice - t.BuyPrice
		next.Members[idx] = SquadMember{
			AthleteID:     t.In,
			TeamID:        t.InTeam,
			Role:          t.Role,
			PurchasePrice: t.BuyPrice,
			SellingPrice:  t.BuyPrice,
		}
	}
	used := len(rec.Transfers)
	next.FreeChanges -= used
	if next.FreeChanges < 0 {
		next.FreeChanges = 0
	}
	next.Period = rec.Period

	starting := make(map[int]bool, len(rec.Lineup.Starters))
	for _, id := range rec.Lineup.Starters {
		starting[id] = true
	}
	bench := make(map[int]int, len(rec.Lineup.Bench))
	for i, id := range rec.Lineup.Bench {
		bench[id] = i + 1
	}
	for i := range next.Members {
		m := &next.Members[i]
		m.Starting = starting[m.AthleteID]
		m.Captain = m.AthleteID == rec.Lineup.Captain
		m.ViceCaptain = m.AthleteID == rec.Lineup.ViceCaptain
		m.BenchOrder = bench[m.AthleteID]
	}
	sort.SliceStable(next.Members, func(i, j int) bool {
		return next.Members[i].Role < next.Members[j].Role
	})

	if rec.Chip.Activate != ChipNone {
		next.ActiveChip = rec.Chip.Activate
		chips := next.AvailableChips[:0]
		for _, c := range next.AvailableChips {
			if c != rec.Chip.Activate {
				chips = append(chips, c)
			}
		}
		next.AvailableChips = chips
	}
	if err := next.Validate(); err != nil {
		return RosterState{}, err
	}
	return next, nil
}

// Package modeltest provides a small hand-built league for tests.
//
// The squad (athletes 1-15) costs exactly 835 with an empty bank, so it
// sits at its budget cap. Athletes 101+ are unowned alternatives.
package modeltest

import (
	"time"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
)

// ManagerID owns the test roster.
const ManagerID = 7

type entry struct {
	id, team int
	role     model.Role
	price    int
	points   float64
}

var squad = []entry{ //nolint:gochecknoglobals // test fixture table
	{1, 1, model.Goalkeeper, 45, 4.0},
	{2, 2, model.Goalkeeper, 40, 2.0},
	{3, 1, model.Defender, 50, 4.5},
	{4, 2, model.Defender, 45, 4.0},
	{5, 3, model.Defender, 45, 3.8},
	{6, 4, model.Defender, 40, 3.5},
	{7, 5, model.Defender, 40, 3.0},
	{8, 3, model.Midfielder, 80, 6.0},
	{9, 4, model.Midfielder, 70, 5.0},
	{10, 5, model.Midfielder, 60, 4.5},
	{11, 6, model.Midfielder, 55, 4.0},
	{12, 7, model.Midfielder, 50, 3.5},
	{13, 6, model.Forward, 90, 6.5},
	{14, 7, model.Forward, 70, 5.0},
	{15, 8, model.Forward, 55, 4.0},
}

var pool = []entry{ //nolint:gochecknoglobals // test fixture table
	{101, 9, model.Goalkeeper, 45, 3.5},
	{102, 10, model.Goalkeeper, 40, 2.5},
	{201, 8, model.Defender, 55, 5.0},
	{202, 9, model.Defender, 45, 3.2},
	{203, 10, model.Defender, 40, 3.0},
	{301, 8, model.Midfielder, 100, 7.5},
	{302, 9, model.Midfielder, 75, 4.8},
	{303, 10, model.Midfielder, 50, 3.6},
	{401, 9, model.Forward, 110, 8.0},
	{402, 10, model.Forward, 75, 4.5},
	{403, 1, model.Forward, 50, 4.2},
}

// Roster returns the test manager's squad with no lineup flags set.
func Roster(period int) model.RosterState {
	members := make([]model.SquadMember, 0, len(squad))
	for _, e := range squad {
		members = append(members, model.SquadMember{
			AthleteID:     e.id,
			TeamID:        e.team,
			Role:          e.role,
			PurchasePrice: e.price,
			SellingPrice:  e.price,
		})
	}
	return model.RosterState{
		ManagerID:      ManagerID,
		Period:         period,
		Members:        members,
		Bank:           0,
		FreeChanges:    1,
		AvailableChips: []model.Chip{model.ChipBenchBoost, model.ChipTripleCaptain},
	}
}

// Athletes returns every athlete in the league, squad first.
func Athletes() []model.Athlete {
	out := make([]model.Athlete, 0, len(squad)+len(pool))
	for _, e := range append(append([]entry(nil), squad...), pool...) {
		out = append(out, model.Athlete{
			ID:     e.id,
			Name:   "athlete",
			TeamID: e.team,
			Role:   e.role,
			Price:  e.price,
		})
	}
	return out
}

// Projections returns one projection per athlete for period. overrides
// replaces the expected points of the given athletes.
func Projections(period int, overrides map[int]float64) []model.Projection {
	out := make([]model.Projection, 0, len(squad)+len(pool))
	for _, e := range append(append([]entry(nil), squad...), pool...) {
		pts := e.points
		if v, ok := overrides[e.id]; ok {
			pts = v
		}
		out = append(out, model.Projection{
			AthleteID:      e.id,
			Period:         period,
			ModelVersion:   "test-000000000000",
			Role:           e.role,
			ExpectedPoints: pts,
			PointsPer90:    pts,
			Confidence:     0.8,
			FixtureCount:   1,
			GeneratedAt:    time.Unix(0, 0).UTC(),
		})
	}
	return out
}

// Fixtures returns one fixture per team pair for period, all at league
// average strength.
func Fixtures(period int) []model.Fixture {
	out := make([]model.Fixture, 0, 5)
	for i := 0; i < 5; i++ {
		out = append(out, model.Fixture{
			ID:          period*100 + i,
			Period:      period,
			HomeTeam:    2*i + 1,
			AwayTeam:    2*i + 2,
			HomeDefence: 1, HomeAttack: 1,
			AwayDefence: 1, AwayAttack: 1,
		})
	}
	return out
}

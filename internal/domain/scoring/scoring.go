// Package scoring turns an athlete's match output into fantasy points.
package scoring

import (
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
)

// Minutes thresholds for appearance and clean-sheet points.
const (
	fullAppearanceMinutes = 60
	savesPerPoint         = 3
	concededPerDeduction  = 2
)

// Rules holds the point values of each scoring event.
type Rules struct {
	ShortAppearance int
	FullAppearance  int
	Goal            map[model.Role]int
	Assist          int
	CleanSheet      map[model.Role]int
	// ConcededDeduction is taken per two goals conceded, for the roles listed.
	ConcededDeduction map[model.Role]int
	SaveBlock         int
	PenaltySaved      int
	PenaltyMissed     int
	OwnGoal           int
	YellowCard        int
	RedCard           int
}

// DefaultRules returns the standard fantasy points table.
func DefaultRules() Rules {
	return Rules{
		ShortAppearance: 1,
		FullAppearance:  2,
		Goal: map[model.Role]int{
			model.Goalkeeper: 10,
			model.Defender:   6,
			model.Midfielder: 5,
			model.Forward:    4,
		},
		Assist: 3,
		CleanSheet: map[model.Role]int{
			model.Goalkeeper: 4,
			model.Defender:   4,
			model.Midfielder: 1,
		},
		ConcededDeduction: map[model.Role]int{
			model.Goalkeeper: -1,
			model.Defender:   -1,
		},
		SaveBlock:     1,
		PenaltySaved:  5,
		PenaltyMissed: -2,
		OwnGoal:       -2,
		YellowCard:    -1,
		RedCard:       -3,
	}
}

// Option applies a configuration option to the RuleScorer.
type Option func(*RuleScorer)

// WithRules replaces the points table.
func WithRules(r Rules) Option {
	return func(s *RuleScorer) {
		if r.Goal != nil {
			s.rules = r
		}
	}
}

// Breakdown itemises the points of one record.
type Breakdown struct {
	Appearance int
	Goals      int
	Assists    int
	CleanSheet int
	Conceded   int
	Saves      int
	Penalties  int
	Discipline int
	Bonus      int
}

// Total sums the breakdown.
func (b Breakdown) Total() int {
	return b.Appearance + b.Goals + b.Assists + b.CleanSheet + b.Conceded +
		b.Saves + b.Penalties + b.Discipline + b.Bonus
}

// Scorer computes fantasy points for a closed-period record.
type Scorer interface {
	Score(rec model.AthleteRecord) int
}

// RuleScorer implements Scorer with a fixed points table.
type RuleScorer struct {
	rules Rules
}

// NewRuleScorer creates a scorer using DefaultRules unless overridden.
func NewRuleScorer(opts ...Option) *RuleScorer {
	s := &RuleScorer{rules: DefaultRules()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score returns the total points of rec.
func (s *RuleScorer) Score(rec model.AthleteRecord) int {
	return s.Breakdown(rec).Total()
}

// Breakdown itemises the points of rec. An athlete who did not play scores
// nothing.
func (s *RuleScorer) Breakdown(rec model.AthleteRecord) Breakdown {
	var b Breakdown
	if rec.Minutes <= 0 {
		return b
	}
	r := s.rules
	b.Appearance = r.ShortAppearance
	if rec.Minutes >= fullAppearanceMinutes {
		b.Appearance = r.FullAppearance
	}
	b.Goals = rec.Goals * r.Goal[rec.Role]
	b.Assists = rec.Assists * r.Assist
	if rec.Minutes >= fullAppearanceMinutes && rec.CleanSheets > 0 {
		b.CleanSheet = r.CleanSheet[rec.Role]
	}
	b.Conceded = (rec.GoalsConceded / concededPerDeduction) * r.ConcededDeduction[rec.Role]
	if rec.Role == model.Goalkeeper {
		b.Saves = (rec.Saves / savesPerPoint) * r.SaveBlock
	}
	b.Penalties = rec.PenaltiesSaved*r.PenaltySaved + rec.PenaltiesMissed*r.PenaltyMissed
	b.Discipline = rec.YellowCards*r.YellowCard + rec.RedCards*r.RedCard + rec.OwnGoals*r.OwnGoal
	b.Bonus = rec.Bonus
	return b
}

// Fill sets Points on every record that has played minutes but no points
// recorded, and returns the slice.
func Fill(s Scorer, recs []model.AthleteRecord) []model.AthleteRecord {
	for i := range recs {
		if recs[i].Points == 0 && recs[i].Minutes > 0 {
			recs[i].Points = s.Score(recs[i])
		}
	}
	return recs
}

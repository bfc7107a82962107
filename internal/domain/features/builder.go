// Package features turns athlete history into numeric feature vectors.
//
// Building is a pure function of the history and fixture metadata passed in.
// Nothing here is persisted; AthleteRecord history stays the source of truth.
package features

import (
	"fmt"
	"math"
	"sort"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
)

// Default builder configuration.
const (
	defaultWindow      = 6
	defaultDecay       = 0.9
	defaultOpponentCap = 0.25
	priceScale         = 10.0
	fullMatchMinutes   = 90.0
	defensiveBlend     = 0.5
)

// Common holds the aggregates shared by every role. Rates are decayed means
// per fixture played or scheduled.
type Common struct {
	Points       float64
	PointsPer90  float64
	MinutesShare float64
	Involvement  float64
	Bonus        float64
	Price        float64
	Ownership    float64
	HomeShare    float64
	Opponent     float64
}

// Values returns the common features in schema order.
func (c Common) Values() []float64 {
	return []float64{
		c.Points, c.PointsPer90, c.MinutesShare, c.Involvement, c.Bonus,
		c.Price, c.Ownership, c.HomeShare, c.Opponent,
	}
}

// Vector is the feature vector of one athlete for one target period.
type Vector struct {
	AthleteID    int
	TeamID       int
	Role         model.Role
	TargetPeriod int

	// History counts distinct periods inside the window.
	History          int
	Appearances      int
	ZeroMinuteStreak int
	// FixtureCount is 0 for a blank period and 2 for a double.
	FixtureCount int
	Availability float64
	// Expectation is the decayed per-fixture points mean scaled by the
	// opponent adjustment.
	Expectation float64

	Common       Common
	RoleFeatures RoleFeatures
}

// Values flattens the vector for regression, common features first.
func (v Vector) Values() []float64 {
	out := v.Common.Values()
	if v.RoleFeatures != nil {
		out = append(out, v.RoleFeatures.Values()...)
	}
	return out
}

// Names returns the schema matching Values.
func (v Vector) Names() []string { return Names(v.Role) }

// Builder computes feature vectors.
type Builder struct {
	window      int
	decay       float64
	opponentCap float64
}

// NewBuilder creates a Builder with defaults adjusted by opts.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		window:      defaultWindow,
		decay:       defaultDecay,
		opponentCap: defaultOpponentCap,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Window is the number of trailing periods aggregated.
func (b *Builder) Window() int { return b.window }

// Build returns the feature vector of athlete for target. Only records with
// a period before target are used. With no usable history the returned
// vector is still valid (zero aggregates) and the error wraps
// model.ErrDataInsufficient.
func (b *Builder) Build(athlete model.Athlete, history []model.AthleteRecord, fixtures []model.Fixture, target int) (Vector, error) {
	opps := model.OppositionFor(fixtures, athlete.TeamID)
	v := b.build(athlete.ID, athlete.TeamID, athlete.Role, athlete.Price, athlete.Availability(), history, opps, target)
	if v.History == 0 {
		return v, fmt.Errorf("athlete %d before period %d: %w", athlete.ID, target, model.ErrDataInsufficient)
	}
	return v, nil
}

// aggregate holds decayed per-fixture means of the raw events.
type aggregate struct {
	points          float64
	minutes         float64
	bonus           float64
	goals           float64
	assists         float64
	cleanSheets     float64
	conceded        float64
	saves           float64
	penaltiesSaved  float64
	penaltiesMissed float64
	points90        float64
	involvement     float64
}

func (b *Builder) build(id, team int, role model.Role, price int, availability float64,
	history []model.AthleteRecord, opps []model.Opposition, target int) Vector {
	v := Vector{
		AthleteID:    id,
		TeamID:       team,
		Role:         role,
		TargetPeriod: target,
		FixtureCount: len(opps),
		Availability: availability,
	}

	window := make([]model.AthleteRecord, 0, b.window)
	for _, r := range history {
		if r.Period < target && r.Period >= target-b.window {
			window = append(window, r)
		}
	}
	sort.SliceStable(window, func(i, j int) bool { return window[i].Period < window[j].Period })

	agg, periods, appearances, streak := b.aggregate(window, target)
	v.History = periods
	v.Appearances = appearances
	v.ZeroMinuteStreak = streak

	opponent, home := b.opposition(role, opps)
	ownership := 0.0
	if n := len(window); n > 0 {
		ownership = window[n-1].Ownership
	}
	v.Common = Common{
		Points:       agg.points,
		PointsPer90:  agg.points90,
		MinutesShare: agg.minutes / fullMatchMinutes,
		Involvement:  agg.involvement,
		Bonus:        agg.bonus,
		Price:        float64(price) / priceScale,
		Ownership:    ownership,
		HomeShare:    home,
		Opponent:     opponent,
	}
	v.Expectation = agg.points * opponent
	if build, ok := roleBuilders[role]; ok {
		v.RoleFeatures = build(agg)
	}
	return v
}

// aggregate computes decayed means over window, which must be sorted by
// period. It also returns the number of distinct periods, the number of
// appearances and the trailing run of periods without minutes.
func (b *Builder) aggregate(window []model.AthleteRecord, target int) (aggregate, int, int, int) {
	var (
		agg                     aggregate
		wSum, wMinutes, wPlayed float64
		wInvolve, wPointsPlayed float64
		appearances             int
	)
	playedIn := map[int]bool{}
	for _, r := range window {
		w := math.Pow(b.decay, float64(target-r.Period))
		wSum += w
		agg.points += w * float64(r.Points)
		agg.minutes += w * float64(r.Minutes)
		agg.bonus += w * float64(r.Bonus)
		agg.goals += w * float64(r.Goals)
		agg.assists += w * float64(r.Assists)
		agg.cleanSheets += w * float64(r.CleanSheets)
		agg.conceded += w * float64(r.GoalsConceded)
		agg.saves += w * float64(r.Saves)
		agg.penaltiesSaved += w * float64(r.PenaltiesSaved)
		agg.penaltiesMissed += w * float64(r.PenaltiesMissed)
		if _, seen := playedIn[r.Period]; !seen {
			playedIn[r.Period] = false
		}
		if r.Played() {
			appearances++
			playedIn[r.Period] = true
			wPlayed += w
			wMinutes += w * float64(r.Minutes)
			wPointsPlayed += w * float64(r.Points)
			wInvolve += w * float64(r.Goals+r.Assists)
		}
	}
	if wSum > 0 {
		for _, f := range []*float64{
			&agg.points, &agg.minutes, &agg.bonus, &agg.goals, &agg.assists,
			&agg.cleanSheets, &agg.conceded, &agg.saves, &agg.penaltiesSaved, &agg.penaltiesMissed,
		} {
			*f /= wSum
		}
	}
	if wMinutes > 0 {
		agg.points90 = wPointsPlayed / wMinutes * fullMatchMinutes
	}
	if wPlayed > 0 {
		agg.involvement = wInvolve / wPlayed
	}

	streak := 0
	for i := len(window) - 1; i >= 0; i-- {
		p := window[i].Period
		if playedIn[p] {
			break
		}
		if i == len(window)-1 || window[i+1].Period != p {
			streak++
		}
	}
	return agg, len(playedIn), appearances, streak
}

// opposition averages the capped opponent adjustment over the fixtures and
// reports the share played at home. A blank period is neutral.
func (b *Builder) opposition(role model.Role, opps []model.Opposition) (float64, float64) {
	if len(opps) == 0 {
		return 1, 0
	}
	factor, home := 0.0, 0.0
	for _, o := range opps {
		f := b.adjust(o.Defence)
		if role == model.Goalkeeper || role == model.Defender {
			f = defensiveBlend*f + (1-defensiveBlend)*b.adjust(o.Attack)
		}
		factor += f
		if o.Home {
			home++
		}
	}
	n := float64(len(opps))
	return factor / n, home / n
}

// adjust maps an opponent rating (1 = league average, higher = stronger) to
// a multiplier clamped to [1-cap, 1+cap].
func (b *Builder) adjust(rating float64) float64 {
	if rating <= 0 || math.IsNaN(rating) {
		return 1
	}
	return math.Min(math.Max(1/rating, 1-b.opponentCap), 1+b.opponentCap)
}

package backtest

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/adapters/source"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
)

// League shape and budget.
const (
	squadBudget      = 1000
	seedMix          = 0x9e3779b97f4a7c15
	leagueGoals      = 1.35
	homeAdvantage    = 1.1
	saveRate         = 2.5
	yellowCardRate   = 0.08
	starterPlayRate  = 0.9
	reservePlayRate  = 0.25
	fullMatchRate    = 0.8
	minPrice         = 40
	maxPrice         = 130
	priceStep        = 25
	cheapShare       = 0.6
	idsPerTeam       = 100
	fixtureIDsPerRun = 1000
)

type roleShape struct {
	depth, starters int
	basePrice       int
	value           float64
	goals, assists  float64
}

var shapes = map[model.Role]roleShape{ //nolint:gochecknoglobals // league table
	model.Goalkeeper: {depth: 2, starters: 1, basePrice: 40, value: 0.4, goals: 0, assists: 0.01},
	model.Defender:   {depth: 6, starters: 4, basePrice: 40, value: 0.6, goals: 0.05, assists: 0.07},
	model.Midfielder: {depth: 6, starters: 4, basePrice: 45, value: 1.2, goals: 0.18, assists: 0.16},
	model.Forward:    {depth: 4, starters: 2, basePrice: 45, value: 1.3, goals: 0.38, assists: 0.14},
}

type team struct {
	id              int
	attack, defence float64
}

type profile struct {
	athlete model.Athlete
	ability float64
	starter bool
}

// Generator builds a deterministic synthetic league from a seed.
type Generator struct {
	cfg      Config
	src      rand.Source
	rng      *rand.Rand
	teams    []team
	profiles []profile
}

// NewGenerator creates a generator for cfg.
func NewGenerator(cfg Config) *Generator {
	src := rand.NewPCG(cfg.Seed, cfg.Seed^seedMix)
	return &Generator{cfg: cfg, src: src, rng: rand.New(src)}
}

// Generate returns the whole season: catalogue, fixtures and records of
// every period, and one starting roster per manager.
func (g *Generator) Generate() source.Dataset {
	g.league()
	ds := source.Dataset{Athletes: make([]model.Athlete, 0, len(g.profiles))}
	for _, p := range g.profiles {
		ds.Athletes = append(ds.Athletes, p.athlete)
	}
	for period := 1; period <= g.cfg.Periods; period++ {
		fixtures := g.fixtures(period)
		ds.Fixtures = append(ds.Fixtures, fixtures...)
		ds.Records = append(ds.Records, g.records(period, fixtures)...)
	}
	for m := 1; m <= g.cfg.Managers; m++ {
		ds.Rosters = append(ds.Rosters, g.roster(m))
	}
	return ds
}

func (g *Generator) normal(mu, sigma, lo, hi float64) float64 {
	v := distuv.Normal{Mu: mu, Sigma: sigma, Src: g.src}.Rand()
	return math.Min(math.Max(v, lo), hi)
}

func (g *Generator) poisson(lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	return int(distuv.Poisson{Lambda: lambda, Src: g.src}.Rand())
}

func (g *Generator) chance(p float64) bool {
	return distuv.Bernoulli{P: p, Src: g.src}.Rand() == 1
}

func (g *Generator) league() {
	g.teams = make([]team, 0, g.cfg.Teams)
	g.profiles = g.profiles[:0]
	for id := 1; id <= g.cfg.Teams; id++ {
		t := team{
			id:      id,
			attack:  g.normal(1, 0.15, 0.6, 1.4),
			defence: g.normal(1, 0.15, 0.6, 1.4),
		}
		g.teams = append(g.teams, t)
		n := 0
		for _, role := range model.Roles {
			shape := shapes[role]
			for d := 0; d < shape.depth; d++ {
				n++
				starter := d < shape.starters
				mu := 0.8
				if starter {
					mu = 1.1
				}
				ability := g.normal(mu, 0.2, 0.3, 2)
				price := shape.basePrice + int(math.Round(priceStep*ability*shape.value))
				g.profiles = append(g.profiles, profile{
					athlete: model.Athlete{
						ID:     id*idsPerTeam + n,
						Name:   fmt.Sprintf("%s %d-%d", role, id, d+1),
						TeamID: id,
						Role:   role,
						Price:  min(max(price, minPrice), maxPrice),
					},
					ability: ability,
					starter: starter,
				})
			}
		}
	}
}

// fixtures pairs teams with the circle method so each team plays once per
// period. With an odd team count one team has a blank period.
func (g *Generator) fixtures(period int) []model.Fixture {
	ids := make([]int, 0, len(g.teams)+1)
	for _, t := range g.teams {
		ids = append(ids, t.id)
	}
	if len(ids)%2 == 1 {
		ids = append(ids, 0)
	}
	n := len(ids)
	round := (period - 1) % (n - 1)
	rotated := make([]int, n)
	rotated[0] = ids[0]
	for i := 1; i < n; i++ {
		rotated[i] = ids[1+(i-1+round)%(n-1)]
	}

	var out []model.Fixture
	for i := 0; i < n/2; i++ {
		home, away := rotated[i], rotated[n-1-i]
		if home == 0 || away == 0 {
			continue
		}
		if period%2 == 0 {
			home, away = away, home
		}
		h, a := g.teams[home-1], g.teams[away-1]
		out = append(out, model.Fixture{
			ID:          period*fixtureIDsPerRun + i,
			Period:      period,
			HomeTeam:    h.id,
			AwayTeam:    a.id,
			HomeDefence: h.defence,
			HomeAttack:  h.attack,
			AwayDefence: a.defence,
			AwayAttack:  a.attack,
		})
	}
	return out
}

func (g *Generator) records(period int, fixtures []model.Fixture) []model.AthleteRecord {
	var out []model.AthleteRecord
	for _, f := range fixtures {
		home, away := g.teams[f.HomeTeam-1], g.teams[f.AwayTeam-1]
		homeConceded := g.poisson(leagueGoals * away.attack / home.defence)
		awayConceded := g.poisson(leagueGoals * homeAdvantage * home.attack / away.defence)
		out = append(out, g.teamRecords(period, home, away, true, homeConceded)...)
		out = append(out, g.teamRecords(period, away, home, false, awayConceded)...)
	}
	return out
}

func (g *Generator) teamRecords(period int, own, opp team, home bool, conceded int) []model.AthleteRecord {
	var out []model.AthleteRecord
	for _, p := range g.profiles {
		if p.athlete.TeamID != own.id {
			continue
		}
		a := p.athlete
		rec := model.AthleteRecord{
			AthleteID:       a.ID,
			TeamID:          a.TeamID,
			Role:            a.Role,
			Period:          period,
			Price:           a.Price,
			OpponentID:      opp.id,
			OpponentDefence: opp.defence,
			OpponentAttack:  opp.attack,
			Home:            home,
		}
		rate := reservePlayRate
		if p.starter {
			rate = starterPlayRate
		}
		if g.chance(rate) {
			switch {
			case p.starter && g.chance(fullMatchRate):
				rec.Minutes = 90
			case p.starter:
				rec.Minutes = 60 + g.rng.IntN(30)
			default:
				rec.Minutes = 10 + g.rng.IntN(40)
			}
		}
		if rec.Minutes > 0 {
			share := float64(rec.Minutes) / 90
			shape := shapes[a.Role]
			rec.Goals = g.poisson(shape.goals * p.ability * share / opp.defence)
			rec.Assists = g.poisson(shape.assists * p.ability * share / opp.defence)
			if rec.Minutes >= 60 {
				rec.GoalsConceded = conceded
				if conceded == 0 {
					rec.CleanSheets = 1
				}
			}
			if a.Role == model.Goalkeeper {
				rec.Saves = g.poisson(saveRate * opp.attack)
			}
			if g.chance(yellowCardRate) {
				rec.YellowCards = 1
			}
			rec.Bonus = min(3, 2*rec.Goals+rec.Assists)
		}
		out = append(out, rec)
	}
	return out
}

// roster draws a legal squad from the cheaper part of the catalogue.
func (g *Generator) roster(managerID int) model.RosterState {
	perTeam := make(map[int]int)
	var members []model.SquadMember
	cost := 0
	for _, role := range model.Roles {
		var pool []model.Athlete
		for _, p := range g.profiles {
			if p.athlete.Role == role {
				pool = append(pool, p.athlete)
			}
		}
		sort.SliceStable(pool, func(i, j int) bool { return pool[i].Price < pool[j].Price })
		cheap := pool[:max(role.SquadQuota(), int(float64(len(pool))*cheapShare))]
		g.rng.Shuffle(len(cheap), func(i, j int) { cheap[i], cheap[j] = cheap[j], cheap[i] })
		// Shuffled cheap athletes first, then everything else by price.
		ordered := append(append([]model.Athlete(nil), cheap...), pool[len(cheap):]...)

		picked := 0
		for _, a := range ordered {
			if picked == role.SquadQuota() {
				break
			}
			if perTeam[a.TeamID] >= model.MaxPerTeam {
				continue
			}
			perTeam[a.TeamID]++
			picked++
			cost += a.Price
			members = append(members, model.SquadMember{
				AthleteID:     a.ID,
				TeamID:        a.TeamID,
				Role:          a.Role,
				PurchasePrice: a.Price,
				SellingPrice:  a.Price,
			})
		}
	}
	return model.RosterState{
		ManagerID:      managerID,
		Period:         g.cfg.WarmUp,
		Members:        members,
		Bank:           max(0, squadBudget-cost),
		FreeChanges:    1,
		AvailableChips: []model.Chip{model.ChipBenchBoost, model.ChipTripleCaptain},
	}
}

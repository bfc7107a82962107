package optimizer

import (
	"math"
	"sort"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
)

// Candidate is an athlete the optimizer may hold. For squad members Price
// is the selling price; for everyone else it is the purchase price.
type Candidate struct {
	ID         int
	TeamID     int
	Role       model.Role
	Price      int
	Value      float64
	Confidence float64
}

// better orders candidates by value, then by tie order.
func better(a, b Candidate) bool {
	if a.Value != b.Value {
		return a.Value > b.Value
	}
	return tieAhead(a, b)
}

// tieAhead orders equally valued candidates: higher confidence first, then
// lower price, then lower id.
func tieAhead(a, b Candidate) bool {
	switch {
	case a.Confidence != b.Confidence:
		return a.Confidence > b.Confidence
	case a.Price != b.Price:
		return a.Price < b.Price
	}
	return a.ID < b.ID
}

// tieTolerance is the largest value gap still treated as a tie.
const tieTolerance = 1e-9

// Problem is the normalised selection problem handed to a Strategy.
type Problem struct {
	// Squad is the current roster in athlete id order.
	Squad []Candidate
	// Pool holds every unowned athlete with a projection, in id order.
	Pool        []Candidate
	Forced      map[int]bool
	Bank        int
	MaxChanges  int
	FreeChanges int
	Penalty     float64
	// TeamCap bounds athletes per team; zero or less disables the check.
	TeamCap int
}

// Budget is the most the final squad may cost.
func (p *Problem) Budget() int {
	total := p.Bank
	for _, c := range p.Squad {
		total += c.Price
	}
	return total
}

// chargeable is the number of changes beyond the free allowance.
func (p *Problem) chargeable(changes int) int {
	return max(0, changes-p.FreeChanges)
}

// Selection is a strategy's answer: the final squad ids.
type Selection struct {
	Squad []int
	Nodes int
}

// evaluation summarises a selection against its problem.
type evaluation struct {
	final     []Candidate
	transfers []model.Transfer
	gross     float64
	penalty   float64
}

func (p *Problem) evaluate(sel Selection) evaluation {
	keep := make(map[int]bool, len(sel.Squad))
	for _, id := range sel.Squad {
		keep[id] = true
	}
	owned := make(map[int]bool, len(p.Squad))
	outs := make(map[model.Role][]Candidate)
	var final []Candidate
	var before, after float64
	for _, c := range p.Squad {
		owned[c.ID] = true
		before += c.Value
		if keep[c.ID] {
			final = append(final, c)
			after += c.Value
		} else {
			outs[c.Role] = append(outs[c.Role], c)
		}
	}
	ins := make(map[model.Role][]Candidate)
	for _, c := range p.Pool {
		if keep[c.ID] && !owned[c.ID] {
			final = append(final, c)
			after += c.Value
			ins[c.Role] = append(ins[c.Role], c)
		}
	}

	var transfers []model.Transfer
	for _, role := range model.Roles {
		o, in := outs[role], ins[role]
		sort.Slice(o, func(i, j int) bool { return better(o[j], o[i]) })
		sort.Slice(in, func(i, j int) bool { return better(in[i], in[j]) })
		for i := 0; i < len(o) && i < len(in); i++ {
			transfers = append(transfers, model.Transfer{
				Out:       o[i].ID,
				In:        in[i].ID,
				Role:      role,
				OutTeam:   o[i].TeamID,
				InTeam:    in[i].TeamID,
				SellPrice: o[i].Price,
				BuyPrice:  in[i].Price,
				Gain:      in[i].Value - o[i].Value,
			})
		}
	}
	return evaluation{
		final:     final,
		transfers: transfers,
		gross:     after - before,
		penalty:   p.Penalty * float64(p.chargeable(len(transfers))),
	}
}

// valid checks the hard constraints of a selection.
func (p *Problem) valid(sel Selection) error {
	ev := p.evaluate(sel)
	if len(ev.final) != len(sel.Squad) {
		return model.ErrUnknownAthlete
	}
	roles := make([]model.Role, len(ev.final))
	teams := make([]int, len(ev.final))
	cost := 0
	for i, c := range ev.final {
		roles[i], teams[i] = c.Role, c.TeamID
		cost += c.Price
		if p.Forced[c.ID] {
			return model.ErrInfeasibleConstraint
		}
	}
	if err := model.CheckSquad(roles, teams, p.TeamCap); err != nil {
		return err
	}
	if cost > p.Budget() || len(ev.transfers) > p.MaxChanges {
		return model.ErrInfeasibleConstraint
	}
	return nil
}

// settleTies swaps every incoming athlete of sel for the equally valued
// pool athlete of the same role that is furthest ahead in tie order, as
// long as the squad stays within budget and team cap. The objective is
// unchanged; only the choice among ties is.
func (p *Problem) settleTies(sel Selection) Selection {
	byID := make(map[int]Candidate, len(p.Squad)+len(p.Pool))
	owned := make(map[int]bool, len(p.Squad))
	for _, c := range p.Squad {
		byID[c.ID] = c
		owned[c.ID] = true
	}
	for _, c := range p.Pool {
		byID[c.ID] = c
	}

	chosen := make(map[int]bool, len(sel.Squad))
	teams := make(map[int]int)
	cost := 0
	for _, id := range sel.Squad {
		c, ok := byID[id]
		if !ok {
			return sel
		}
		chosen[id] = true
		teams[c.TeamID]++
		cost += c.Price
	}

	budget := p.Budget()
	out := Selection{Squad: append([]int(nil), sel.Squad...), Nodes: sel.Nodes}
	for i, id := range out.Squad {
		if owned[id] {
			continue
		}
		cur := byID[id]
		best := cur
		for _, alt := range p.Pool {
			if chosen[alt.ID] || alt.Role != cur.Role || math.Abs(alt.Value-cur.Value) > tieTolerance {
				continue
			}
			if !tieAhead(alt, best) || cost-cur.Price+alt.Price > budget {
				continue
			}
			if p.TeamCap > 0 && alt.TeamID != cur.TeamID && teams[alt.TeamID] >= p.TeamCap {
				continue
			}
			best = alt
		}
		if best.ID == cur.ID {
			continue
		}
		delete(chosen, cur.ID)
		chosen[best.ID] = true
		teams[cur.TeamID]--
		teams[best.TeamID]++
		cost += best.Price - cur.Price
		out.Squad[i] = best.ID
	}
	sort.Ints(out.Squad)
	return out
}

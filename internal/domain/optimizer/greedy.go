package optimizer

import (
	"context"
	"fmt"
	"sort"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
)

const gainTolerance = 1e-9

// GreedyStrategy makes one swap at a time: forced replacements first, then
// the best marginal net gain while it stays positive. It always returns a
// squad that satisfies the hard constraints, or ErrInfeasibleConstraint.
type GreedyStrategy struct{}

// NewGreedyStrategy creates the fallback strategy.
func NewGreedyStrategy() *GreedyStrategy { return &GreedyStrategy{} }

// Name implements Strategy.
func (*GreedyStrategy) Name() string { return model.StrategyGreedy }

type greedyState struct {
	p       *Problem
	squad   map[int]Candidate
	teams   map[int]int
	bank    int
	changes int
}

func (st *greedyState) fits(out, in Candidate) bool {
	if in.Role != out.Role || in.Price > st.bank+out.Price {
		return false
	}
	if _, held := st.squad[in.ID]; held {
		return false
	}
	if st.p.TeamCap > 0 && in.TeamID != out.TeamID && st.teams[in.TeamID]+1 > st.p.TeamCap {
		return false
	}
	return true
}

func (st *greedyState) swap(out, in Candidate) {
	delete(st.squad, out.ID)
	st.squad[in.ID] = in
	st.teams[out.TeamID]--
	st.teams[in.TeamID]++
	st.bank += out.Price - in.Price
	st.changes++
}

// Solve implements Strategy.
func (g *GreedyStrategy) Solve(ctx context.Context, p *Problem) (Selection, error) {
	st := &greedyState{
		p:     p,
		squad: make(map[int]Candidate, len(p.Squad)),
		teams: make(map[int]int),
		bank:  p.Bank,
	}
	for _, c := range p.Squad {
		st.squad[c.ID] = c
		st.teams[c.TeamID]++
	}

	for _, out := range p.Squad {
		if !p.Forced[out.ID] {
			continue
		}
		in, ok := g.bestReplacement(st, out)
		if !ok {
			return Selection{}, fmt.Errorf("%w: no affordable %s to replace %d", model.ErrInfeasibleConstraint, out.Role, out.ID)
		}
		st.swap(out, in)
	}

	for st.changes < p.MaxChanges {
		if err := ctx.Err(); err != nil {
			return Selection{}, err
		}
		penalty := 0.0
		if st.changes+1 > p.FreeChanges {
			penalty = p.Penalty
		}
		var (
			bestOut, bestIn Candidate
			bestGain        = gainTolerance
			found           bool
		)
		for _, out := range p.Squad {
			if _, held := st.squad[out.ID]; !held {
				continue
			}
			in, ok := g.bestReplacement(st, out)
			if !ok {
				continue
			}
			gain := in.Value - out.Value - penalty
			if gain > bestGain+gainTolerance || (found && gain > bestGain-gainTolerance && tieAhead(in, bestIn)) {
				bestOut, bestIn, bestGain, found = out, in, gain, true
			}
		}
		if !found {
			break
		}
		st.swap(bestOut, bestIn)
	}

	out := Selection{Squad: make([]int, 0, len(st.squad))}
	for id := range st.squad {
		out.Squad = append(out.Squad, id)
	}
	sort.Ints(out.Squad)
	return out, nil
}

// bestReplacement picks the best-ranked pool athlete that can take out's
// place.
func (g *GreedyStrategy) bestReplacement(st *greedyState, out Candidate) (Candidate, bool) {
	var best Candidate
	found := false
	for _, in := range st.p.Pool {
		if !st.fits(out, in) {
			continue
		}
		if !found || better(in, best) {
			best, found = in, true
		}
	}
	return best, found
}

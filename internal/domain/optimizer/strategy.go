package optimizer

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/optimizer/milp"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/metrics"
)

// Strategy selects a final squad for a Problem.
type Strategy interface {
	Name() string
	Solve(ctx context.Context, p *Problem) (Selection, error)
}

// confidenceEpsilon nudges the solver towards confident athletes without
// outweighing a tenth of a projected point across a full squad. Exact tie
// order is settled after the solve.
const (
	confidenceEpsilon = 1e-6
	defaultCandidates = 12
	defaultCheapest   = 4
)

// MILPStrategy formulates selection as a 0/1 program and solves it exactly
// with branch-and-bound.
type MILPStrategy struct {
	solver     *milp.Solver
	candidates int
	cheapest   int
}

// NewMILPStrategy creates the exact strategy. candidates is the number of
// best-value unowned athletes kept per role, cheapest the number of
// lowest-priced ones added on top.
func NewMILPStrategy(solver *milp.Solver, candidates, cheapest int) *MILPStrategy {
	if solver == nil {
		solver = milp.NewSolver()
	}
	if candidates <= 0 {
		candidates = defaultCandidates
	}
	if cheapest < 0 {
		cheapest = defaultCheapest
	}
	return &MILPStrategy{solver: solver, candidates: candidates, cheapest: cheapest}
}

// Name implements Strategy.
func (s *MILPStrategy) Name() string { return model.StrategyMILP }

// Solve implements Strategy. The objective is the projected value of the
// final squad minus the penalty on changes beyond the free allowance; the
// chargeable excess is a continuous variable bounded below by
// (squad size - kept members - free changes).
func (s *MILPStrategy) Solve(ctx context.Context, p *Problem) (Selection, error) {
	pool := s.shortlist(p.Pool)
	squad := make([]Candidate, 0, len(p.Squad))
	for _, c := range p.Squad {
		if !p.Forced[c.ID] {
			squad = append(squad, c)
		}
	}
	all := append(append([]Candidate(nil), squad...), pool...)

	prob := milp.NewProblem()
	vars := make([]int, len(all))
	for i, c := range all {
		obj := c.Value + confidenceEpsilon*c.Confidence
		vars[i] = prob.AddBinary(fmt.Sprintf("x%d", c.ID), obj)
	}

	roleTerms := make(map[model.Role][]milp.Term, len(model.Roles))
	teamTerms := make(map[int][]milp.Term)
	budget := make([]milp.Term, 0, len(all))
	for i, c := range all {
		roleTerms[c.Role] = append(roleTerms[c.Role], milp.Term{Var: vars[i], Coef: 1})
		teamTerms[c.TeamID] = append(teamTerms[c.TeamID], milp.Term{Var: vars[i], Coef: 1})
		budget = append(budget, milp.Term{Var: vars[i], Coef: float64(c.Price)})
	}
	for _, role := range model.Roles {
		prob.AddConstraint(milp.Constraint{
			Name:  "role_" + role.String(),
			Terms: roleTerms[role],
			Sense: milp.Equal,
			RHS:   float64(role.SquadQuota()),
		})
	}
	if p.TeamCap > 0 {
		teams := make([]int, 0, len(teamTerms))
		for t := range teamTerms {
			teams = append(teams, t)
		}
		sort.Ints(teams)
		for _, t := range teams {
			if len(teamTerms[t]) <= p.TeamCap {
				continue
			}
			prob.AddConstraint(milp.Constraint{
				Name:  fmt.Sprintf("team_%d", t),
				Terms: teamTerms[t],
				Sense: milp.LessEq,
				RHS:   float64(p.TeamCap),
			})
		}
	}
	prob.AddConstraint(milp.Constraint{Name: "budget", Terms: budget, Sense: milp.LessEq, RHS: float64(p.Budget())})

	kept := make([]milp.Term, len(squad))
	for i := range squad {
		kept[i] = milp.Term{Var: vars[i], Coef: 1}
	}
	prob.AddConstraint(milp.Constraint{
		Name:  "max_changes",
		Terms: kept,
		Sense: milp.GreaterEq,
		RHS:   float64(model.SquadSize - p.MaxChanges),
	})
	if p.Penalty > 0 {
		excess := prob.AddVariable(milp.Variable{Name: "excess", Upper: model.SquadSize, Objective: -p.Penalty})
		prob.AddConstraint(milp.Constraint{
			Name:  "excess",
			Terms: append([]milp.Term{{Var: excess, Coef: 1}}, kept...),
			Sense: milp.GreaterEq,
			RHS:   float64(model.SquadSize - p.FreeChanges),
		})
	}

	sol, err := s.solver.Solve(ctx, prob)
	if sol.Nodes > 0 {
		metrics.RecordSolverNodes(sol.Nodes)
	}
	if err != nil {
		return Selection{Nodes: sol.Nodes}, classify(err)
	}
	out := Selection{Nodes: sol.Nodes}
	for i, c := range all {
		if sol.Values[vars[i]] > 0.5 {
			out.Squad = append(out.Squad, c.ID)
		}
	}
	return p.settleTies(out), nil
}

// shortlist keeps the best candidates per role by value plus the cheapest
// ones, so that a budget-bound squad can always be completed.
func (s *MILPStrategy) shortlist(pool []Candidate) []Candidate {
	byRole := make(map[model.Role][]Candidate, len(model.Roles))
	for _, c := range pool {
		byRole[c.Role] = append(byRole[c.Role], c)
	}
	var out []Candidate
	for _, role := range model.Roles {
		cs := byRole[role]
		picked := make(map[int]bool)
		sort.Slice(cs, func(i, j int) bool { return better(cs[i], cs[j]) })
		for i := 0; i < len(cs) && i < s.candidates; i++ {
			picked[cs[i].ID] = true
			out = append(out, cs[i])
		}
		sort.SliceStable(cs, func(i, j int) bool { return cs[i].Price < cs[j].Price })
		added := 0
		for i := 0; i < len(cs) && added < s.cheapest; i++ {
			if picked[cs[i].ID] {
				continue
			}
			picked[cs[i].ID] = true
			out = append(out, cs[i])
			added++
		}
	}
	return out
}

func classify(err error) error {
	switch {
	case errors.Is(err, milp.ErrInfeasible):
		return fmt.Errorf("%w: %w", model.ErrInfeasibleConstraint, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", model.ErrSolverTimeout, err)
	}
	return err
}

package milp_test

import (
	"context"
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/optimizer/milp"
)

func knapsack() (*milp.Problem, []int) {
	p := milp.NewProblem()
	values := []float64{10, 13, 7, 8}
	weights := []float64{4, 6, 3, 5}
	vars := make([]int, len(values))
	terms := make([]milp.Term, len(values))
	for i := range values {
		vars[i] = p.AddBinary("item", values[i])
		terms[i] = milp.Term{Var: vars[i], Coef: weights[i]}
	}
	p.AddConstraint(milp.Constraint{Name: "capacity", Terms: terms, Sense: milp.LessEq, RHS: 10})
	return p, vars
}

func TestSolveKnapsack(t *testing.T) {
	Convey("Given a 0/1 knapsack whose LP relaxation is fractional", t, func() {
		p, vars := knapsack()
		solver := milp.NewSolver()

		Convey("When it is solved", func() {
			sol, err := solver.Solve(context.Background(), p)

			Convey("Then the integer optimum is found", func() {
				So(err, ShouldBeNil)
				So(sol.Status, ShouldEqual, milp.Optimal)
				So(sol.Objective, ShouldAlmostEqual, 23, 1e-6)
				So(sol.Values[vars[0]], ShouldEqual, 1)
				So(sol.Values[vars[1]], ShouldEqual, 1)
				So(sol.Values[vars[2]], ShouldEqual, 0)
				So(sol.Values[vars[3]], ShouldEqual, 0)
				So(p.Feasible(sol.Values, 1e-6), ShouldBeTrue)
				So(sol.Nodes, ShouldBeGreaterThan, 1)
			})

			Convey("Then a second solve returns the same answer", func() {
				again, err := solver.Solve(context.Background(), p)
				So(err, ShouldBeNil)
				So(again.Values, ShouldResemble, sol.Values)
				So(again.Nodes, ShouldEqual, sol.Nodes)
			})
		})

		Convey("When the node budget is a single node", func() {
			_, err := milp.NewSolver(milp.WithMaxNodes(1)).Solve(context.Background(), p)
			So(errors.Is(err, milp.ErrNodeLimit), ShouldBeTrue)
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := solver.Solve(ctx, p)
			So(errors.Is(err, milp.ErrAborted), ShouldBeTrue)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestSolveEqualityAndContinuous(t *testing.T) {
	Convey("Given a pick-exactly-two problem", t, func() {
		p := milp.NewProblem()
		values := []float64{1, 5, 3, 4}
		terms := make([]milp.Term, len(values))
		for i, v := range values {
			terms[i] = milp.Term{Var: p.AddBinary("x", v), Coef: 1}
		}
		p.AddConstraint(milp.Constraint{Terms: terms, Sense: milp.Equal, RHS: 2})

		sol, err := milp.NewSolver().Solve(context.Background(), p)
		So(err, ShouldBeNil)
		So(sol.Objective, ShouldAlmostEqual, 9, 1e-6)
		So(sol.Values, ShouldResemble, []float64{0, 1, 0, 1})
	})

	Convey("Given a penalty carried by a continuous excess variable", t, func() {
		// Taking both items costs one unit of excess at price 3.
		p := milp.NewProblem()
		a := p.AddBinary("a", 1)
		b := p.AddBinary("b", 1)
		e := p.AddVariable(milp.Variable{Name: "excess", Lower: 0, Upper: 2, Objective: -3})
		p.AddConstraint(milp.Constraint{
			Terms: []milp.Term{{Var: a, Coef: 1}, {Var: b, Coef: 1}, {Var: e, Coef: -1}},
			Sense: milp.LessEq, RHS: 1,
		})

		sol, err := milp.NewSolver().Solve(context.Background(), p)
		So(err, ShouldBeNil)
		So(sol.Objective, ShouldAlmostEqual, 1, 1e-6)
		So(sol.Values[a]+sol.Values[b], ShouldEqual, 1)
		So(sol.Values[e], ShouldAlmostEqual, 0, 1e-9)
	})

	Convey("Given a lower-bounded integer variable", t, func() {
		p := milp.NewProblem()
		x := p.AddVariable(milp.Variable{Lower: 2, Upper: 7, Integer: true, Objective: 1})
		p.AddConstraint(milp.Constraint{Terms: []milp.Term{{Var: x, Coef: 2}}, Sense: milp.LessEq, RHS: 9})

		sol, err := milp.NewSolver().Solve(context.Background(), p)
		So(err, ShouldBeNil)
		So(sol.Values[x], ShouldEqual, 4)
	})
}

func TestSolveFailures(t *testing.T) {
	Convey("Given an infeasible binary problem", t, func() {
		p := milp.NewProblem()
		x := p.AddBinary("x", 1)
		p.AddConstraint(milp.Constraint{Terms: []milp.Term{{Var: x, Coef: 1}}, Sense: milp.GreaterEq, RHS: 2})
		_, err := milp.NewSolver().Solve(context.Background(), p)
		So(errors.Is(err, milp.ErrInfeasible), ShouldBeTrue)
	})

	Convey("Given an unbounded continuous variable", t, func() {
		p := milp.NewProblem()
		x := p.AddVariable(milp.Variable{Lower: 0, Upper: posInf(), Objective: 1})
		y := p.AddBinary("y", 0)
		p.AddConstraint(milp.Constraint{Terms: []milp.Term{{Var: x, Coef: 1}, {Var: y, Coef: -1}}, Sense: milp.GreaterEq, RHS: 0})
		_, err := milp.NewSolver().Solve(context.Background(), p)
		So(errors.Is(err, milp.ErrUnbounded), ShouldBeTrue)
	})

	Convey("Given malformed problems", t, func() {
		_, err := milp.NewSolver().Solve(context.Background(), milp.NewProblem())
		So(errors.Is(err, milp.ErrInvalidProblem), ShouldBeTrue)

		p := milp.NewProblem()
		p.AddVariable(milp.Variable{Lower: 0, Upper: posInf(), Integer: true})
		_, err = milp.NewSolver().Solve(context.Background(), p)
		So(errors.Is(err, milp.ErrInvalidProblem), ShouldBeTrue)
	})
}

func posInf() float64 { return math.Inf(1) }

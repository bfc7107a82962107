// Package milp solves small mixed 0/1 integer linear programs by depth-first
// branch-and-bound over LP relaxations.
//
// Problems are always maximised. Every variable carries a finite lower bound;
// the upper bound may be +Inf for continuous variables.
package milp

import (
	"fmt"
	"math"
)

// Sense is the direction of a linear constraint.
type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	case Equal:
		return "="
	}
	return "?"
}

// Term is one coefficient of a constraint.
type Term struct {
	Var  int
	Coef float64
}

// Variable is a decision variable.
type Variable struct {
	Name      string
	Lower     float64
	Upper     float64
	Integer   bool
	Objective float64
}

// Constraint is Σ terms (sense) RHS.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Problem is a maximisation MILP under construction.
type Problem struct {
	vars []Variable
	cons []Constraint
}

// NewProblem returns an empty problem.
func NewProblem() *Problem { return &Problem{} }

// AddVariable appends v and returns its index.
func (p *Problem) AddVariable(v Variable) int {
	p.vars = append(p.vars, v)
	return len(p.vars) - 1
}

// AddBinary appends a 0/1 variable and returns its index.
func (p *Problem) AddBinary(name string, objective float64) int {
	return p.AddVariable(Variable{Name: name, Lower: 0, Upper: 1, Integer: true, Objective: objective})
}

// AddConstraint appends c.
func (p *Problem) AddConstraint(c Constraint) {
	p.cons = append(p.cons, c)
}

// NumVariables is the number of variables added so far.
func (p *Problem) NumVariables() int { return len(p.vars) }

// NumConstraints is the number of constraints added so far.
func (p *Problem) NumConstraints() int { return len(p.cons) }

// Objective evaluates the objective at x.
func (p *Problem) Objective(x []float64) float64 {
	total := 0.0
	for j, v := range p.vars {
		total += v.Objective * x[j]
	}
	return total
}

// Feasible reports whether x satisfies every bound and constraint within tol.
func (p *Problem) Feasible(x []float64, tol float64) bool {
	if len(x) != len(p.vars) {
		return false
	}
	for j, v := range p.vars {
		if x[j] < v.Lower-tol || x[j] > v.Upper+tol {
			return false
		}
		if v.Integer && math.Abs(x[j]-math.Round(x[j])) > tol {
			return false
		}
	}
	for _, c := range p.cons {
		lhs := 0.0
		for _, t := range c.Terms {
			lhs += t.Coef * x[t.Var]
		}
		switch c.Sense {
		case LessEq:
			if lhs > c.RHS+tol {
				return false
			}
		case GreaterEq:
			if lhs < c.RHS-tol {
				return false
			}
		case Equal:
			if math.Abs(lhs-c.RHS) > tol {
				return false
			}
		}
	}
	return true
}

func (p *Problem) validate() error {
	if len(p.vars) == 0 {
		return fmt.Errorf("%w: no variables", ErrInvalidProblem)
	}
	for j, v := range p.vars {
		if math.IsInf(v.Lower, 0) || math.IsNaN(v.Lower) || math.IsNaN(v.Upper) {
			return fmt.Errorf("%w: variable %d (%s) needs a finite lower bound", ErrInvalidProblem, j, v.Name)
		}
		if v.Upper < v.Lower {
			return fmt.Errorf("%w: variable %d (%s) has upper < lower", ErrInvalidProblem, j, v.Name)
		}
		if v.Integer && math.IsInf(v.Upper, 1) {
			return fmt.Errorf("%w: integer variable %d (%s) needs a finite upper bound", ErrInvalidProblem, j, v.Name)
		}
	}
	for i, c := range p.cons {
		for _, t := range c.Terms {
			if t.Var < 0 || t.Var >= len(p.vars) {
				return fmt.Errorf("%w: constraint %d (%s) references variable %d", ErrInvalidProblem, i, c.Name, t.Var)
			}
		}
	}
	return nil
}

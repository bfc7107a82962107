package milp

import "errors"

// Sentinel errors returned by Solve.
var (
	ErrInfeasible     = errors.New("milp: problem is infeasible")
	ErrUnbounded      = errors.New("milp: problem is unbounded")
	ErrNumerical      = errors.New("milp: numerical failure")
	ErrNodeLimit      = errors.New("milp: node limit reached without a feasible solution")
	ErrAborted        = errors.New("milp: solve aborted")
	ErrInvalidProblem = errors.New("milp: invalid problem")
)

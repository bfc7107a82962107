package model

import "errors"

// Sentinel error kinds shared across the engine. Callers match them with
// errors.Is.
var (
	// ErrDataInsufficient means there was not enough history to build a
	// reliable feature vector or model. Recovered with heuristics.
	ErrDataInsufficient = errors.New("insufficient data")
	// ErrInfeasibleConstraint means no squad satisfies the hard
	// constraints, even after relaxing the team cap.
	ErrInfeasibleConstraint = errors.New("infeasible constraints")
	// ErrSolverTimeout means the integer solver did not finish in time.
	ErrSolverTimeout = errors.New("solver timeout")
	// ErrStaleData means fixture or outcome data for the target period is
	// missing.
	ErrStaleData = errors.New("stale data")

	ErrInvalidRoster  = errors.New("invalid roster")
	ErrUnknownAthlete = errors.New("unknown athlete")
	ErrModelNotFound  = errors.New("model not found")
)

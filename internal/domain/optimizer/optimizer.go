// Package optimizer turns projections into a roster recommendation: which
// athletes to swap, who starts, who captains and whether to play a chip.
//
// Selection is exact (a 0/1 program solved by branch-and-bound) under a
// time limit and a circuit breaker. When the exact path times out, trips
// the breaker or fails numerically, a greedy strategy answers instead and
// the recommendation records why.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/optimizer/milp"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/logger"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/metrics"
)

// Optimizer defaults.
const (
	DefaultPenalty         = 4.0
	DefaultMaxChanges      = 2
	defaultTimeout         = 5 * time.Second
	defaultBreakerFailures = 3
	defaultBreakerTimeout  = 30 * time.Second
)

// Fallback reasons recorded on recommendations.
const (
	ReasonTimeout     = "timeout"
	ReasonBreakerOpen = "breaker_open"
	ReasonNodeLimit   = "node_limit"
	ReasonInvalid     = "invalid_solution"
	ReasonSolverError = "solver_error"
)

// Request asks for a recommendation for one roster.
type Request struct {
	Roster      model.RosterState
	Projections []model.Projection
	Athletes    []model.Athlete
	// MaxChanges below zero selects the optimizer default.
	MaxChanges   int
	ForcedOut    []int
	ModelVersion string
}

// Optimizer produces recommendations. It is safe for concurrent use.
type Optimizer struct {
	primary         Strategy
	fallback        Strategy
	chips           *ChipAdvisor
	breaker         *gobreaker.CircuitBreaker
	breakerFailures uint32
	breakerTimeout  time.Duration
	timeout         time.Duration
	penalty         float64
	maxChanges      int
	autoForce       bool
	logger          logger.Logger
	now             func() time.Time
	newID           func() string
}

// NewOptimizer creates an optimizer with defaults adjusted by opts.
func NewOptimizer(opts ...Option) *Optimizer {
	o := &Optimizer{
		breakerFailures: defaultBreakerFailures,
		breakerTimeout:  defaultBreakerTimeout,
		timeout:         defaultTimeout,
		penalty:         DefaultPenalty,
		maxChanges:      DefaultMaxChanges,
		autoForce:       true,
		now:             time.Now,
		newID:           func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.primary == nil {
		o.primary = NewMILPStrategy(milp.NewSolver(), defaultCandidates, defaultCheapest)
	}
	if o.fallback == nil {
		o.fallback = NewGreedyStrategy()
	}
	if o.chips == nil {
		o.chips = NewChipAdvisor(DefaultBenchBoostThreshold, DefaultTripleCaptainThreshold)
	}
	if o.logger == nil {
		o.logger = logger.Get().Named("optimizer")
	}
	o.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "squad-solver",
		Timeout: o.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= o.breakerFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || (errors.Is(err, model.ErrInfeasibleConstraint) && !errors.Is(err, errInvalidSelection))
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			o.logger.Warn(context.Background(), "solver breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})
	return o
}

// Optimize returns the best recommendation for req. The roster in req is
// never modified.
func (o *Optimizer) Optimize(ctx context.Context, req Request) (model.Recommendation, error) {
	start := time.Now()
	if err := req.Roster.Validate(); err != nil {
		return model.Recommendation{}, err
	}
	prob, constrained := o.problem(ctx, req)

	sel, strategy, reason, err := o.solve(ctx, prob)
	if errors.Is(err, model.ErrInfeasibleConstraint) && prob.TeamCap > 0 {
		o.logger.Warn(ctx, "no feasible squad, relaxing team cap",
			logger.Int("manager", req.Roster.ManagerID), logger.Error(err))
		prob.TeamCap = 0
		constrained = true
		sel, strategy, reason, err = o.solve(ctx, prob)
	}
	if err != nil {
		return model.Recommendation{}, fmt.Errorf("optimize manager %d period %d: %w", req.Roster.ManagerID, req.Roster.Period, err)
	}

	ev := prob.evaluate(sel)
	if len(prob.Forced) == 0 && len(ev.transfers) > 0 && ev.gross-ev.penalty <= gainTolerance {
		ev = prob.evaluate(Selection{Squad: squadIDs(prob.Squad)})
	}

	lineup := SelectLineup(ev.final)
	rec := model.Recommendation{
		ID:             o.newID(),
		ManagerID:      req.Roster.ManagerID,
		Period:         req.Roster.Period,
		ModelVersion:   req.ModelVersion,
		Roster:         req.Roster.Clone(),
		Transfers:      ev.transfers,
		GrossGain:      ev.gross,
		Penalty:        ev.penalty,
		NetGain:        ev.gross - ev.penalty,
		Lineup:         lineup,
		Chip:           o.chips.Advise(lineup, model.IndexProjections(req.Projections), req.Roster.AvailableChips),
		Strategy:       strategy,
		FallbackReason: reason,
		Constrained:    constrained,
		CreatedAt:      o.now().UTC(),
	}
	metrics.RecordRecommendation(strategy, constrained, time.Since(start))
	o.logger.Info(ctx, "recommendation ready",
		logger.Int("manager", rec.ManagerID),
		logger.Int("period", rec.Period),
		logger.Int("transfers", len(rec.Transfers)),
		logger.Float64("net_gain", rec.NetGain),
		logger.String("strategy", strategy),
		logger.String("chip", string(rec.Chip.Activate)),
	)
	return rec, nil
}

// problem normalises a request. constrained is set when the forced-out
// list had to raise the change limit.
func (o *Optimizer) problem(ctx context.Context, req Request) (*Problem, bool) {
	proj := model.IndexProjections(req.Projections)
	athletes := make(map[int]model.Athlete, len(req.Athletes))
	for _, a := range req.Athletes {
		athletes[a.ID] = a
	}

	p := &Problem{
		Forced:      make(map[int]bool),
		Bank:        req.Roster.Bank,
		MaxChanges:  req.MaxChanges,
		FreeChanges: req.Roster.FreeChanges,
		Penalty:     o.penalty,
		TeamCap:     model.MaxPerTeam,
	}
	if p.MaxChanges < 0 {
		p.MaxChanges = o.maxChanges
	}

	owned := make(map[int]bool, len(req.Roster.Members))
	for _, m := range req.Roster.Members {
		owned[m.AthleteID] = true
		pr := proj[m.AthleteID]
		p.Squad = append(p.Squad, Candidate{
			ID:         m.AthleteID,
			TeamID:     m.TeamID,
			Role:       m.Role,
			Price:      m.SellingPrice,
			Value:      pr.ExpectedPoints,
			Confidence: pr.Confidence,
		})
		if a, ok := athletes[m.AthleteID]; ok && o.autoForce && a.ChanceOfPlaying != nil && a.Availability() == 0 {
			p.Forced[m.AthleteID] = true
		}
	}
	sort.Slice(p.Squad, func(i, j int) bool { return p.Squad[i].ID < p.Squad[j].ID })

	for _, id := range req.ForcedOut {
		if !owned[id] {
			o.logger.Warn(ctx, "forced-out athlete not in squad, ignoring",
				logger.Int("manager", req.Roster.ManagerID), logger.Int("athlete", id))
			continue
		}
		p.Forced[id] = true
	}

	for _, a := range req.Athletes {
		pr, ok := proj[a.ID]
		if !ok || owned[a.ID] || !a.Role.Valid() {
			continue
		}
		p.Pool = append(p.Pool, Candidate{
			ID:         a.ID,
			TeamID:     a.TeamID,
			Role:       a.Role,
			Price:      a.Price,
			Value:      pr.ExpectedPoints,
			Confidence: pr.Confidence,
		})
	}
	sort.Slice(p.Pool, func(i, j int) bool { return p.Pool[i].ID < p.Pool[j].ID })

	constrained := false
	if len(p.Forced) > p.MaxChanges {
		o.logger.Warn(ctx, "forced changes exceed limit, raising it",
			logger.Int("forced", len(p.Forced)), logger.Int("max_changes", p.MaxChanges))
		p.MaxChanges = len(p.Forced)
		constrained = true
	}
	return p, constrained
}

// solve runs the exact strategy under the timeout and breaker and falls
// back to the greedy strategy on anything but infeasibility or caller
// cancellation.
func (o *Optimizer) solve(ctx context.Context, p *Problem) (Selection, string, string, error) {
	res, err := o.breaker.Execute(func() (interface{}, error) {
		sctx, cancel := context.WithTimeout(ctx, o.timeout)
		defer cancel()
		sel, err := o.primary.Solve(sctx, p)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil && !errors.Is(err, model.ErrSolverTimeout) {
				err = fmt.Errorf("%w: %w", model.ErrSolverTimeout, err)
			}
			return nil, err
		}
		if verr := p.valid(sel); verr != nil {
			return nil, fmt.Errorf("%w: %w", errInvalidSelection, verr)
		}
		return sel, nil
	})
	if err == nil {
		return res.(Selection), o.primary.Name(), "", nil
	}
	if errors.Is(err, model.ErrInfeasibleConstraint) && !errors.Is(err, errInvalidSelection) {
		return Selection{}, "", "", err
	}
	if cerr := ctx.Err(); cerr != nil {
		return Selection{}, "", "", cerr
	}

	reason := fallbackReason(err)
	metrics.RecordSolverFallback(reason)
	o.logger.Warn(ctx, "exact solver unavailable, using fallback",
		logger.String("reason", reason), logger.Error(err))

	sel, ferr := o.fallback.Solve(ctx, p)
	if ferr != nil {
		return Selection{}, "", "", ferr
	}
	if verr := p.valid(sel); verr != nil {
		return Selection{}, "", "", fmt.Errorf("fallback selection: %w", verr)
	}
	return sel, o.fallback.Name(), reason, nil
}

var errInvalidSelection = errors.New("selection violates constraints")

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, model.ErrSolverTimeout):
		return ReasonTimeout
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return ReasonBreakerOpen
	case errors.Is(err, milp.ErrNodeLimit):
		return ReasonNodeLimit
	case errors.Is(err, errInvalidSelection):
		return ReasonInvalid
	}
	return ReasonSolverError
}

func squadIDs(cs []Candidate) []int {
	out := make([]int, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

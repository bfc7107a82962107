package optimizer

import (
	"fmt"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
)

// Default chip thresholds in projected points.
const (
	DefaultBenchBoostThreshold    = 15.0
	DefaultTripleCaptainThreshold = 10.0
)

// ChipAdvisor decides whether a period is worth spending a chip on.
type ChipAdvisor struct {
	benchBoost    float64
	tripleCaptain float64
}

// NewChipAdvisor creates an advisor with the given thresholds.
func NewChipAdvisor(benchBoost, tripleCaptain float64) *ChipAdvisor {
	return &ChipAdvisor{benchBoost: benchBoost, tripleCaptain: tripleCaptain}
}

// Advise compares the bench total and the captain's projection with their
// thresholds. Only chips in available are ever recommended. When both
// clear, the one exceeding its threshold by the larger relative margin
// wins; otherwise the advice is to hold.
func (a *ChipAdvisor) Advise(lineup model.Lineup, projections map[int]model.Projection, available []model.Chip) model.ChipAdvice {
	has := func(c model.Chip) bool {
		for _, x := range available {
			if x == c {
				return true
			}
		}
		return false
	}
	advice := model.ChipAdvice{CaptainPoints: projections[lineup.Captain].ExpectedPoints}
	for _, id := range lineup.Bench {
		advice.BenchPoints += projections[id].ExpectedPoints
	}

	bbMargin, bbOK := margin(advice.BenchPoints, a.benchBoost)
	tcMargin, tcOK := margin(advice.CaptainPoints, a.tripleCaptain)
	bbOK = bbOK && has(model.ChipBenchBoost)
	tcOK = tcOK && has(model.ChipTripleCaptain)

	switch {
	case bbOK && (!tcOK || bbMargin >= tcMargin):
		advice.Activate = model.ChipBenchBoost
		advice.Reason = fmt.Sprintf("bench projects %.1f, threshold %.1f", advice.BenchPoints, a.benchBoost)
	case tcOK:
		advice.Activate = model.ChipTripleCaptain
		advice.Reason = fmt.Sprintf("captain projects %.1f, threshold %.1f", advice.CaptainPoints, a.tripleCaptain)
	default:
		advice.Reason = fmt.Sprintf("hold: bench %.1f/%.1f, captain %.1f/%.1f",
			advice.BenchPoints, a.benchBoost, advice.CaptainPoints, a.tripleCaptain)
	}
	return advice
}

func margin(v, threshold float64) (float64, bool) {
	if v < threshold {
		return 0, false
	}
	if threshold <= 0 {
		return v, true
	}
	return (v - threshold) / threshold, true
}

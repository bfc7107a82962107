package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/adapters/repository"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/adapters/source"
	service "github.com/vituk123/fpl-ai-thinktank4-sub000/internal/app"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/logger"
)

const maxBankedChanges = 2

// Run plays a synthetic season through the engine. Outcomes of a period
// are revealed only after every manager has accepted a recommendation for
// it, then the period is validated.
func Run(ctx context.Context, cfg Config, opts ...service.Option) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	log := logger.Get().Named("backtest")
	start := time.Now()

	log.Info(ctx, "starting backtest",
		logger.Any("seed", cfg.Seed),
		logger.Int("teams", cfg.Teams),
		logger.Int("periods", cfg.Periods),
		logger.Int("warmUp", cfg.WarmUp),
		logger.Int("managers", cfg.Managers),
		logger.Int("retrainEvery", cfg.RetrainEvery))

	// Step 1: Generate the season
	season := NewGenerator(cfg).Generate()
	if cfg.OutputFile != "" {
		if err := source.WriteFile(cfg.OutputFile, season); err != nil {
			log.Warn(ctx, "failed to save dataset", logger.Error(err))
		} else {
			log.Info(ctx, "dataset saved", logger.String("file", cfg.OutputFile))
		}
	}

	// Step 2: Expose only the warm-up outcomes
	src := source.NewMemory(source.Dataset{
		Athletes: season.Athletes,
		Fixtures: season.Fixtures,
		Rosters:  season.Rosters,
	})
	src.AddRecords(upTo(season.Records, cfg.WarmUp)...)

	svc := service.New(src, repository.NewMemoryStore(), opts...)
	defer func() {
		if err := svc.Stop(); err != nil {
			log.Error(context.Background(), "failed to stop service", logger.Error(err))
		}
	}()

	report := Report{Seed: cfg.Seed}
	var maes []float64
	for period := cfg.WarmUp + 1; period <= cfg.Periods; period++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		// Step 3: Retrain on everything closed so far
		if cfg.RetrainEvery > 0 && (period-cfg.WarmUp-1)%cfg.RetrainEvery == 0 {
			if _, err := svc.Train(ctx, period-1); err != nil {
				if !errors.Is(err, model.ErrDataInsufficient) {
					return report, fmt.Errorf("train through period %d: %w", period-1, err)
				}
				log.Warn(ctx, "training skipped", logger.Int("period", period), logger.Error(err))
			}
		}

		// Step 4: Recommend and accept for every manager
		pr, lineups, err := recommend(ctx, svc, src, cfg, period)
		if err != nil {
			return report, err
		}

		// Step 5: Reveal outcomes and score the accepted lineups
		revealed := only(season.Records, period)
		src.AddRecords(revealed...)
		outcomes, err := src.Records(ctx, period)
		if err != nil {
			return report, fmt.Errorf("outcomes for period %d: %w", period, err)
		}
		points := make(map[int]int, len(outcomes))
		for _, r := range outcomes {
			points[r.AthleteID] += r.Points
		}
		for _, l := range lineups {
			pr.Realized += realized(l, points)
		}

		// Step 6: Validate the projections the recommendations used
		summary, err := svc.ValidatePeriod(ctx, period, pr.ModelVersion)
		if err != nil {
			return report, fmt.Errorf("validate period %d: %w", period, err)
		}
		pr.Validation = summary
		maes = append(maes, summary.Played.MAE)

		report.Periods = append(report.Periods, pr)
		report.Projected += pr.Projected
		report.Realized += pr.Realized

		log.Info(ctx, "period simulated",
			logger.Int("period", period),
			logger.String("version", pr.ModelVersion),
			logger.Int("transfers", pr.Transfers),
			logger.Float64("projected", pr.Projected),
			logger.Float64("realized", pr.Realized),
			logger.Float64("mae", summary.Played.MAE))
	}

	if len(maes) > 0 {
		report.MeanMAE = stat.Mean(maes, nil)
	}
	report.Duration = time.Since(start)
	displayFinalStats(ctx, log, report)
	return report, nil
}

type played struct {
	lineup model.Lineup
	chip   model.Chip
}

func recommend(ctx context.Context, svc *service.Service, src *source.Memory, cfg Config, period int) (PeriodReport, []played, error) {
	log := logger.Get().Named("backtest")
	pr := PeriodReport{Period: period, ModelVersion: svc.ActiveModelVersion()}
	lineups := make([]played, 0, cfg.Managers)

	for m := 1; m <= cfg.Managers; m++ {
		roster, err := src.Roster(ctx, m)
		if err != nil {
			return pr, nil, err
		}
		if period > cfg.WarmUp+1 {
			roster.FreeChanges = min(roster.FreeChanges+1, maxBankedChanges)
		}
		roster.ActiveChip = model.ChipNone
		src.PutRoster(roster)

		rec, err := svc.GenerateRecommendation(ctx, m, period, -1, nil)
		if err != nil {
			return pr, nil, fmt.Errorf("recommend for manager %d in period %d: %w", m, period, err)
		}
		if _, err := svc.AcceptRecommendation(ctx, rec); err != nil {
			return pr, nil, fmt.Errorf("accept for manager %d in period %d: %w", m, period, err)
		}

		pr.ModelVersion = rec.ModelVersion
		pr.Recommendations++
		pr.Transfers += len(rec.Transfers)
		pr.Projected += rec.Lineup.ExpectedPoints
		if rec.Strategy == model.StrategyGreedy {
			pr.Fallbacks++
		}
		lineups = append(lineups, played{lineup: rec.Lineup, chip: rec.Chip.Activate})

		if cfg.Verbose {
			log.Info(ctx, "recommendation accepted",
				logger.Int("manager", m),
				logger.Int("period", period),
				logger.String("strategy", rec.Strategy),
				logger.Int("transfers", len(rec.Transfers)),
				logger.Float64("netGain", rec.NetGain),
				logger.Int("captain", rec.Lineup.Captain),
				logger.String("chip", string(rec.Chip.Activate)))
		}
	}
	return pr, lineups, nil
}

// realized scores a lineup the way the game does: starters count, the
// captain's points are doubled (tripled with the chip) and pass to the
// vice-captain when the captain scored nothing. The bench counts only
// under bench boost.
func realized(p played, points map[int]int) float64 {
	total := 0
	for _, id := range p.lineup.Starters {
		total += points[id]
	}
	if p.chip == model.ChipBenchBoost {
		for _, id := range p.lineup.Bench {
			total += points[id]
		}
	}
	armband := p.lineup.Captain
	if points[armband] == 0 {
		armband = p.lineup.ViceCaptain
	}
	extra := 1
	if p.chip == model.ChipTripleCaptain {
		extra = 2
	}
	total += extra * points[armband]
	return float64(total)
}

func upTo(records []model.AthleteRecord, period int) []model.AthleteRecord {
	var out []model.AthleteRecord
	for _, r := range records {
		if r.Period <= period {
			out = append(out, r)
		}
	}
	return out
}

func only(records []model.AthleteRecord, period int) []model.AthleteRecord {
	var out []model.AthleteRecord
	for _, r := range records {
		if r.Period == period {
			out = append(out, r)
		}
	}
	return out
}

func displayFinalStats(ctx context.Context, log logger.Logger, r Report) {
	var ratio float64
	if r.Projected > 0 {
		ratio = r.Realized / r.Projected
	}
	log.Info(ctx, "final statistics",
		logger.Int("periods", len(r.Periods)),
		logger.Float64("projected", r.Projected),
		logger.Float64("realized", r.Realized),
		logger.Float64("realizedRatio", ratio),
		logger.Float64("meanMAE", r.MeanMAE),
		logger.Duration("duration", r.Duration))
}

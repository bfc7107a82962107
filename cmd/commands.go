package main

import (
	"context"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/logger"
)

// trainSummary is the printable part of a trained model set.
type trainSummary struct {
	Version        string   `json:"version" yaml:"version"`
	Family         string   `json:"family" yaml:"family"`
	TrainedThrough int      `json:"trained_through" yaml:"trained_through"`
	Rows           int      `json:"rows" yaml:"rows"`
	HeuristicRoles []string `json:"heuristic_roles,omitempty" yaml:"heuristic_roles,omitempty"`
}

type recommendOutput struct {
	Recommendation model.Recommendation `json:"recommendation" yaml:"recommendation"`
	Roster         *model.RosterState   `json:"roster,omitempty" yaml:"roster,omitempty"`
}

// latestClosed returns the last period with recorded outcomes.
func latestClosed(e *engine) int {
	last := 0
	for _, r := range e.src.Snapshot().Records {
		last = max(last, r.Period)
	}
	return last
}

// prepare trains on every period closed before period unless skipped.
func (e *engine) prepare(ctx context.Context, period int, skip bool) error {
	if skip || period <= 1 {
		return nil
	}
	_, err := e.svc.Train(ctx, period-1)
	return err
}

func (c *cli) trainCmd() *cobra.Command {
	var through int
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the per-role models on closed periods",
		Long: `Fit one ridge model per role on every closed period up to --through
(default: the last period with outcomes) and print the resulting version.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			if through <= 0 {
				through = latestClosed(e)
			}
			set, err := e.svc.Train(ctx, through)
			if err != nil {
				return err
			}
			out := trainSummary{
				Version:        set.Version,
				Family:         set.Family,
				TrainedThrough: set.TrainedThrough,
				Rows:           set.Rows,
			}
			for _, role := range model.Roles {
				if set.Model(role).Heuristic {
					out.HeuristicRoles = append(out.HeuristicRoles, role.String())
				}
			}
			return c.print(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().IntVar(&through, "through", 0, "Last closed period to train on")
	return cmd
}

func (c *cli) projectCmd() *cobra.Command {
	var (
		period    int
		top       int
		skipTrain bool
	)
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project expected points for a period",
		Example: `  roster project --data league.json --period 12
  roster project --data league.json --period 12 --top 20 --output yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			if err := e.prepare(ctx, period, skipTrain); err != nil {
				return err
			}
			projections, err := e.svc.GetProjections(ctx, period)
			if err != nil {
				return err
			}
			sort.SliceStable(projections, func(i, j int) bool {
				if projections[i].ExpectedPoints != projections[j].ExpectedPoints {
					return projections[i].ExpectedPoints > projections[j].ExpectedPoints
				}
				return projections[i].AthleteID < projections[j].AthleteID
			})
			if top > 0 && top < len(projections) {
				projections = projections[:top]
			}
			return c.print(cmd.OutOrStdout(), projections)
		},
	}
	cmd.Flags().IntVar(&period, "period", 0, "Target period")
	cmd.Flags().IntVar(&top, "top", 0, "Print only the best n projections")
	cmd.Flags().BoolVar(&skipTrain, "skip-train", false, "Use the baseline model instead of training first")
	_ = cmd.MarkFlagRequired("period")
	return cmd
}

func (c *cli) recommendCmd() *cobra.Command {
	var (
		managerID  int
		period     int
		maxChanges int
		forcedOut  []int
		accept     bool
		skipTrain  bool
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend roster changes for a manager",
		Long: `Recommend the roster changes with the best expected gain net of the
transaction penalty, plus the starting lineup, captaincy and chip advice.
With --accept the recommendation is applied and the dataset file updated.`,
		Example: `  roster recommend --data league.json --manager 1 --period 12
  roster recommend --data league.json --manager 1 --period 12 --force-out 305,412 --accept`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			if err := e.prepare(ctx, period, skipTrain); err != nil {
				return err
			}
			rec, err := e.svc.GenerateRecommendation(ctx, managerID, period, maxChanges, forcedOut)
			if err != nil {
				return err
			}
			out := recommendOutput{Recommendation: rec}
			if accept {
				roster, err := e.svc.AcceptRecommendation(ctx, rec)
				if err != nil {
					return err
				}
				if err := e.save(); err != nil {
					return err
				}
				out.Roster = &roster
			}
			return c.print(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().IntVar(&managerID, "manager", 0, "Manager whose roster is optimised")
	cmd.Flags().IntVar(&period, "period", 0, "Target period")
	cmd.Flags().IntVar(&maxChanges, "max-changes", -1, "Change limit; negative uses optimizer.max_changes")
	cmd.Flags().IntSliceVar(&forcedOut, "force-out", nil, "Athletes that must leave the squad")
	cmd.Flags().BoolVar(&accept, "accept", false, "Apply the recommendation and save the dataset")
	cmd.Flags().BoolVar(&skipTrain, "skip-train", false, "Use the baseline model instead of training first")
	_ = cmd.MarkFlagRequired("manager")
	_ = cmd.MarkFlagRequired("period")
	return cmd
}

func (c *cli) acceptCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "accept",
		Short: "Apply a stored recommendation to its manager's roster",
		Long: `Apply a recommendation previously stored by "recommend" and save the
dataset. Needs a persistent store (storage.driver=postgres).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			roster, err := e.svc.AcceptRecommendation(ctx, model.Recommendation{ID: id})
			if err != nil {
				return err
			}
			if err := e.save(); err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), roster)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Recommendation ID")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func (c *cli) validateCmd() *cobra.Command {
	var (
		period    int
		version   string
		fineTune  bool
		skipTrain bool
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Score a closed period's projections against outcomes",
		Long: `Compare the projections of a closed period with what happened and print
MAE, RMSE, R², MAPE and bias for athletes who played and who did not.
Without --version the model is retrained as it would have been before the
period and its projections are validated.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if fineTune {
				c.cfg.Feedback.AutoFineTune = true
			}
			ctx := cmd.Context()
			e, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			if version == "" {
				if err := e.prepare(ctx, period, skipTrain); err != nil {
					return err
				}
				if _, err := e.svc.GetProjections(ctx, period); err != nil {
					return err
				}
				version = e.svc.ActiveModelVersion()
			}
			summary, err := e.svc.ValidatePeriod(ctx, period, version)
			if err != nil {
				return err
			}
			logger.Get().Info(ctx, "period validated",
				logger.Int("period", period),
				logger.String("version", summary.ModelVersion),
				logger.Float64("mae", summary.Played.MAE),
				logger.Float64("rmse", summary.Played.RMSE))
			return c.print(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().IntVar(&period, "period", 0, "Closed period to validate")
	cmd.Flags().StringVar(&version, "version", "", "Model version whose stored projections are scored")
	cmd.Flags().BoolVar(&fineTune, "fine-tune", false, "Blend the validated model with a fit on the new outcomes")
	cmd.Flags().BoolVar(&skipTrain, "skip-train", false, "Validate the baseline model instead of training first")
	_ = cmd.MarkFlagRequired("period")
	return cmd
}

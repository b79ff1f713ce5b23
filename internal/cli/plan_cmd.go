package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/waypoint/internal/cli/formatter"
	"github.com/alexanderramin/waypoint/internal/domain"
)

func newPlanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Create and manage roadmaps",
	}

	cmd.AddCommand(
		newPlanCreateCmd(app),
		newPlanListCmd(app),
		newPlanShowCmd(app),
		newPlanDeleteCmd(app),
	)
	return cmd
}

func newPlanCreateCmd(app *App) *cobra.Command {
	var (
		flags planFlags
		lazy  bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a plan, or return the existing one for the same goal",
		Long: "Create a plan for a goal. The whole roadmap is generated at once unless\n" +
			"--lazy is set, in which case weeks are generated as they are opened.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(flags.goal) == "" {
				if !app.interactive() {
					return fmt.Errorf("--goal is required")
				}
				weeks := strconv.Itoa(flags.weeks)
				if err := newPlanForm(&flags.goal, &flags.tier, &weeks).Run(); err != nil {
					return err
				}
				if strings.TrimSpace(weeks) != "" {
					n, err := strconv.Atoi(strings.TrimSpace(weeks))
					if err != nil {
						return fmt.Errorf("invalid week count %q", weeks)
					}
					flags.weeks = n
				}
			}

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if lazy {
				plan, err := app.Roadmap.StartPlan(ctx, app.Session(), flags.request())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Plan %s for %q: %d weeks, %d generated so far.\n",
					plan.ID, plan.Goal, plan.WeekCount, len(plan.Weeks))
				return nil
			}

			stop := func() {}
			if app.interactive() {
				stop = formatter.StartSpinner(cmd.ErrOrStderr(), "Generating your roadmap...")
			}
			plan, err := app.Roadmap.GetOrCreateFullPlan(ctx, app.Session(), flags.request())
			stop()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, formatter.FormatPlan(plan, nil))
			return nil
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().BoolVar(&lazy, "lazy", false, "Create the plan without generating weeks")
	return cmd
}

func newPlanListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			plans, err := app.Roadmap.ListPlans(cmd.Context(), app.Session())
			if err != nil {
				return err
			}
			if len(plans) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No plans yet. Create one with `waypoint plan create`.")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPlanList(plans))
			return nil
		},
	}
}

func newPlanShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show PLAN",
		Short: "Show a plan's weeks and progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			plan, err := loadPlan(ctx, app, args[0])
			if err != nil {
				return err
			}
			stats, err := app.Progress.Stats(ctx, app.Session(), plan.ID, 0)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatPlan(plan, stats))
			return nil
		},
	}
}

func newPlanDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete PLAN",
		Short: "Delete a plan with its weeks, progress and reflections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			planID, err := resolvePlanID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Roadmap.DeletePlan(ctx, app.Session(), planID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted plan %s\n", planID)
			return nil
		},
	}
}

func loadPlan(ctx context.Context, app *App, input string) (*domain.Plan, error) {
	planID, err := resolvePlanID(ctx, app, input)
	if err != nil {
		return nil, err
	}
	return app.Roadmap.GetPlan(ctx, app.Session(), planID)
}

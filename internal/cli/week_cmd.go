package cli

import (
	"fmt"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alexanderramin/waypoint/internal/cli/formatter"
	"github.com/alexanderramin/waypoint/internal/service"
)

func newWeekCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Open and prefetch plan weeks",
	}
	cmd.AddCommand(
		newWeekShowCmd(app),
		newWeekPrefetchCmd(app),
	)
	return cmd
}

func newWeekShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show PLAN [WEEK]",
		Short: "Show a week, generating it on first open",
		Long:  "Show a week of a plan. Without WEEK the week you last opened is shown.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			plan, err := loadPlan(ctx, app, args[0])
			if err != nil {
				return err
			}
			n := plan.ResumeWeek()
			if len(args) == 2 {
				if n, err = parseWeek(args[1]); err != nil {
					return err
				}
			}

			stop := func() {}
			if app.interactive() && plan.Week(n) == nil {
				stop = formatter.StartSpinner(cmd.ErrOrStderr(), fmt.Sprintf("Generating week %d...", n))
			}
			week, err := app.Roadmap.GetOrCreateWeek(ctx, app.Session(), service.WeekRequest{PlanID: plan.ID, Week: n})
			stop()
			if err != nil {
				return err
			}
			status, err := app.Progress.WeekStatus(ctx, app.Session(), plan.ID, n)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatWeek(week, status))
			return nil
		},
	}
}

func newWeekPrefetchCmd(app *App) *cobra.Command {
	var parallel int

	cmd := &cobra.Command{
		Use:   "prefetch PLAN",
		Short: "Generate every week of a plan that is not generated yet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			plan, err := loadPlan(ctx, app, args[0])
			if err != nil {
				return err
			}
			missing := plan.MissingWeeks()
			if len(missing) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "All weeks are already generated.")
				return nil
			}

			stop := func() {}
			if app.interactive() {
				stop = formatter.StartSpinner(cmd.ErrOrStderr(), fmt.Sprintf("Generating %d weeks...", len(missing)))
			}
			sess := app.Session()
			var done atomic.Int32
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(max(parallel, 1))
			for _, n := range missing {
				n := n
				g.Go(func() error {
					_, err := app.Roadmap.GetOrCreateWeek(gctx, sess, service.WeekRequest{PlanID: plan.ID, Week: n, Prefetch: true})
					if err != nil {
						return err
					}
					done.Add(1)
					return nil
				})
			}
			err = g.Wait()
			stop()
			fmt.Fprintf(cmd.OutOrStdout(), "Generated %d of %d missing weeks.\n", done.Load(), len(missing))
			return err
		},
	}

	cmd.Flags().IntVar(&parallel, "parallel", 2, "Weeks generated at the same time")
	return cmd
}

package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/waypoint/internal/cli/formatter"
	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/alexanderramin/waypoint/internal/service"
)

func newProgressCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Check off tasks, habits and milestones",
	}
	cmd.AddCommand(
		newProgressToggleCmd(app),
		newProgressMilestoneCmd(app),
		newProgressStatusCmd(app),
		newProgressStatsCmd(app),
	)
	return cmd
}

func newProgressToggleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle PLAN WEEK DAY task|habit INDEX",
		Short: "Flip one task or habit checkbox",
		Long:  "Flip one checkbox. DAY is a weekday name or 0-6 from Monday; INDEX is 0-based.",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			planID, err := resolvePlanID(ctx, app, args[0])
			if err != nil {
				return err
			}
			week, err := parseWeek(args[1])
			if err != nil {
				return err
			}
			day, err := parseDay(args[2])
			if err != nil {
				return err
			}
			kind, err := domain.ParseItemKind(args[3])
			if err != nil {
				return err
			}
			index, err := strconv.Atoi(args[4])
			if err != nil {
				return fmt.Errorf("invalid index %q: must be a number", args[4])
			}

			res, err := app.Progress.Toggle(ctx, app.Session(), service.ToggleRequest{
				PlanID:    planID,
				Week:      week,
				DayIndex:  day,
				Kind:      kind,
				ItemIndex: index,
			})
			if err != nil {
				return err
			}

			var checked bool
			if kind == domain.ItemTask {
				checked = res.Day.TasksCompleted[index]
			} else {
				checked = res.Day.HabitsCompleted[index]
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s %d\n", formatter.Checkbox(checked), domain.DayName(day), kind, index)
			printToggleOutcome(cmd.OutOrStdout(), planID, res)
			return nil
		},
	}
}

func newProgressMilestoneCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "milestone PLAN WEEK",
		Short: "Flip a week's milestone checkbox",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			planID, err := resolvePlanID(ctx, app, args[0])
			if err != nil {
				return err
			}
			week, err := parseWeek(args[1])
			if err != nil {
				return err
			}
			res, err := app.Progress.ToggleMilestone(ctx, app.Session(), planID, week)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s week %d milestone\n", formatter.Checkbox(res.WeekRecord.MilestoneCompleted), week)
			printToggleOutcome(cmd.OutOrStdout(), planID, res)
			return nil
		},
	}
}

func printToggleOutcome(out io.Writer, planID string, res *service.ToggleResult) {
	fmt.Fprintf(out, "%s\n", formatter.StateIndicator(res.Status.Completion.State))
	if res.CheckInDue {
		fmt.Fprintf(out, "\nWeek %d complete! Record how it went:\n  waypoint reflect add %s %d \"...\"\n",
			res.Status.Week, planID, res.Status.Week)
	}
}

func newProgressStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status PLAN WEEK",
		Short: "Show a week with its checkbox state",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			plan, err := loadPlan(ctx, app, args[0])
			if err != nil {
				return err
			}
			n, err := parseWeek(args[1])
			if err != nil {
				return err
			}
			status, err := app.Progress.WeekStatus(ctx, app.Session(), plan.ID, n)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatWeek(plan.Week(n), status))
			return nil
		},
	}
}

func newProgressStatsCmd(app *App) *cobra.Command {
	var current int

	cmd := &cobra.Command{
		Use:   "stats PLAN",
		Short: "Show completion across the plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			planID, err := resolvePlanID(ctx, app, args[0])
			if err != nil {
				return err
			}
			stats, err := app.Progress.Stats(ctx, app.Session(), planID, current)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatStats(stats))
			return nil
		},
	}

	cmd.Flags().IntVar(&current, "current", 0, "Week the streak is measured from (default: last opened)")
	return cmd
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/waypoint/internal/cli/formatter"
)

func newReflectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reflect",
		Aliases: []string{"checkin"},
		Short:   "Record and read weekly check-ins",
	}
	cmd.AddCommand(
		newReflectAddCmd(app),
		newReflectListCmd(app),
	)
	return cmd
}

func newReflectAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add PLAN WEEK TEXT...",
		Short: "Record a check-in for a week",
		Args:  cobra.MinimumNArgs(3),
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
			r, err := app.Progress.RecordReflection(ctx, app.Session(), planID, week, strings.Join(args[2:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved check-in for week %d %s\n", r.Week, formatter.TruncID(r.ID))
			return nil
		},
	}
}

func newReflectListCmd(app *App) *cobra.Command {
	var week int

	cmd := &cobra.Command{
		Use:   "list PLAN",
		Short: "List check-ins, optionally for one week",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			planID, err := resolvePlanID(ctx, app, args[0])
			if err != nil {
				return err
			}
			items, err := app.Progress.ListReflections(ctx, app.Session(), planID, week)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatReflections(items))
			return nil
		},
	}

	cmd.Flags().IntVar(&week, "week", 0, "Only this week (default: all weeks)")
	return cmd
}

package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/alexanderramin/waypoint/internal/service"
)

const weekBarWidth = 12

// FormatPlanList renders the owner's plans as a table.
func FormatPlanList(plans []*domain.Plan) string {
	headers := []string{"ID", "GOAL", "TIER", "WEEKS", "UPDATED"}
	rows := make([][]string, 0, len(plans))
	for _, p := range plans {
		weeks := fmt.Sprintf("%d/%d", len(p.Weeks), p.WeekCount)
		if p.Complete() {
			weeks = StyleGreen.Render(weeks)
		}
		rows = append(rows, []string{
			TruncID(p.ID),
			Bold(p.Goal),
			TierBadge(p.TimeCommitment),
			weeks,
			Dim(HumanTimestamp(p.UpdatedAt)),
		})
	}
	return RenderTable(headers, rows)
}

// FormatPlan renders a plan overview: one line per week with its theme and,
// when stats are given, its completion.
func FormatPlan(p *domain.Plan, stats *service.PlanStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", Bold(p.Goal), TierBadge(p.TimeCommitment))
	fmt.Fprintf(&b, "%s\n\n", Dim(fmt.Sprintf("%s · %d weeks", p.ID, p.WeekCount)))

	completion := make(map[int]domain.WeekCompletion)
	if stats != nil {
		for _, c := range stats.Weeks {
			completion[c.Week] = c
		}
	}

	rows := make([][]string, 0, p.WeekCount)
	for n := 1; n <= p.WeekCount; n++ {
		w := p.Week(n)
		if w == nil {
			rows = append(rows, []string{fmt.Sprintf("%d", n), Dim("not generated yet"), "", ""})
			continue
		}
		c, ok := completion[n]
		progress, state := "", ""
		if ok {
			progress = RenderProgress(c.Pct(), weekBarWidth)
			state = StateIndicator(c.State)
		}
		rows = append(rows, []string{fmt.Sprintf("%d", n), w.Theme, progress, state})
	}
	b.WriteString(RenderTable([]string{"WEEK", "THEME", "PROGRESS", "STATE"}, rows))

	if stats != nil {
		b.WriteString("\n")
		b.WriteString(formatStatsSummary(stats))
	}
	return RenderBox("Plan", b.String())
}

// FormatWeek renders a week with its checkbox state. status may be nil, in
// which case every box is unchecked.
func FormatWeek(w *domain.Week, status *service.WeekStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n\n", Bold(fmt.Sprintf("Week %d: %s", w.Number, w.Theme)), w.Summary)

	milestoneDone := status != nil && status.Milestone
	fmt.Fprintf(&b, "%s %s %s\n", Checkbox(milestoneDone), StyleHeader.Render("Milestone:"), w.Milestone)
	if w.Reward != "" {
		fmt.Fprintf(&b, "    %s %s\n", StylePurple.Render("Reward:"), w.Reward)
	}
	if len(w.Resources) > 0 {
		b.WriteString("\n" + Header("Resources") + "\n")
		for _, r := range w.Resources {
			fmt.Fprintf(&b, "  • %s\n", Resource(r))
		}
	}

	for i, d := range w.Days {
		var rec *domain.DayProgress
		if status != nil && i < len(status.Days) {
			rec = status.Days[i]
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "%s %s\n", StyleHeader.Render(d.Name.String()), Dim(d.Focus))
		for j, task := range d.Tasks {
			fmt.Fprintf(&b, "  %s %d. %s\n", Checkbox(rec != nil && j < len(rec.TasksCompleted) && rec.TasksCompleted[j]), j, task)
		}
		for j, habit := range d.Habits {
			fmt.Fprintf(&b, "  %s %s %s\n", Checkbox(rec != nil && j < len(rec.HabitsCompleted) && rec.HabitsCompleted[j]), StyleBlue.Render(fmt.Sprintf("h%d.", j)), habit)
		}
		if d.ReflectionPrompt != "" {
			fmt.Fprintf(&b, "  %s\n", Dim("? "+d.ReflectionPrompt))
		}
	}

	if status != nil {
		fmt.Fprintf(&b, "\n%s  %s\n", RenderProgress(status.Completion.Pct(), weekBarWidth), StateIndicator(status.Completion.State))
	}
	return RenderBox(fmt.Sprintf("Week %d", w.Number), b.String())
}

// FormatStats renders plan-wide progress.
func FormatStats(stats *service.PlanStats) string {
	var b strings.Builder
	rows := make([][]string, 0, len(stats.Weeks))
	for _, c := range stats.Weeks {
		rows = append(rows, []string{
			fmt.Sprintf("%d", c.Week),
			fmt.Sprintf("%d/%d", c.TasksDone, c.TasksTotal),
			fmt.Sprintf("%d/%d", c.HabitsDone, c.HabitsTotal),
			Checkbox(c.MilestoneCompleted),
			StateIndicator(c.State),
		})
	}
	b.WriteString(RenderTable([]string{"WEEK", "TASKS", "HABITS", "MILESTONE", "STATE"}, rows))
	b.WriteString("\n")
	b.WriteString(formatStatsSummary(stats))
	return RenderBox("Progress", b.String())
}

func formatStatsSummary(stats *service.PlanStats) string {
	streak := fmt.Sprintf("%d week streak", stats.Streak)
	if stats.Streak == 1 {
		streak = "1 week streak"
	}
	if stats.Streak > 0 {
		streak = StyleGreen.Render(streak)
	} else {
		streak = Dim(streak)
	}
	return fmt.Sprintf("%s  %s  %s\n",
		RenderProgress(stats.OverallPct, weekBarWidth),
		fmt.Sprintf("%d/%d weeks complete", stats.CompletedWeeks, stats.WeekCount),
		streak,
	)
}

// FormatReflections renders check-in answers, oldest first.
func FormatReflections(items []*domain.Reflection) string {
	if len(items) == 0 {
		return Dim("No reflections yet.")
	}
	var b strings.Builder
	for _, r := range items {
		fmt.Fprintf(&b, "%s %s\n  %s\n", StyleHeader.Render(fmt.Sprintf("Week %d", r.Week)), Dim(HumanTimestamp(r.CreatedAt)), r.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

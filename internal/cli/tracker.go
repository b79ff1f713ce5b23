package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/waypoint/internal/cli/formatter"
	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/alexanderramin/waypoint/internal/service"
)

type rowKind int

const (
	rowMilestone rowKind = iota
	rowTask
	rowHabit
)

// trackerRow is one checkable line of the week view.
type trackerRow struct {
	kind  rowKind
	day   int
	index int
	label string
}

type trackerKeys struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Prev   key.Binding
	Next   key.Binding
	Retry  key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func (k trackerKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Prev, k.Next, k.Help, k.Quit}
}

func (k trackerKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Toggle}, {k.Prev, k.Next, k.Retry}, {k.Help, k.Quit}}
}

func newTrackerKeys() trackerKeys {
	return trackerKeys{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle: key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "check")),
		Prev:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev week")),
		Next:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next week")),
		Retry:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type weekLoadedMsg struct {
	plan   *domain.Plan
	week   *domain.Week
	status *service.WeekStatus
	err    error
}

type toggledMsg struct {
	res *service.ToggleResult
	err error
}

type reflectionSavedMsg struct {
	week int
	err  error
}

// trackerModel is the interactive week tracker: it shows one week with
// checkboxes, generates weeks on demand while paging, and asks for a
// check-in when a week is completed.
type trackerModel struct {
	app    *App
	planID string

	plan    *domain.Plan
	weekNum int
	week    *domain.Week
	status  *service.WeekStatus
	rows    []trackerRow
	cursor  int
	loading bool
	err     error
	notice  string

	checkIn bool
	input   textinput.Model

	spinner  spinner.Model
	help     help.Model
	keys     trackerKeys
	width    int
	quitting bool
}

func newTrackerModel(app *App, planID string, week int) trackerModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = formatter.StylePurple

	ti := textinput.New()
	ti.Placeholder = "What went well? What was hard?"
	ti.CharLimit = service.MaxReflectionLength

	return trackerModel{
		app:     app,
		planID:  planID,
		weekNum: week,
		loading: true,
		input:   ti,
		spinner: sp,
		help:    help.New(),
		keys:    newTrackerKeys(),
	}
}

func (m trackerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadWeek(m.weekNum))
}

// loadWeek fetches the plan, the week (generating it if needed) and its
// status. week <= 0 opens the plan's resume week.
func (m trackerModel) loadWeek(week int) tea.Cmd {
	app, planID := m.app, m.planID
	return func() tea.Msg {
		ctx := context.Background()
		sess := app.Session()
		plan, err := app.Roadmap.GetPlan(ctx, sess, planID)
		if err != nil {
			return weekLoadedMsg{err: err}
		}
		if week <= 0 {
			week = plan.ResumeWeek()
		}
		w, err := app.Roadmap.GetOrCreateWeek(ctx, sess, service.WeekRequest{PlanID: planID, Week: week})
		if err != nil {
			return weekLoadedMsg{plan: plan, err: err}
		}
		st, err := app.Progress.WeekStatus(ctx, sess, planID, week)
		return weekLoadedMsg{plan: plan, week: w, status: st, err: err}
	}
}

func (m trackerModel) toggle(row trackerRow) tea.Cmd {
	app, planID, week := m.app, m.planID, m.weekNum
	return func() tea.Msg {
		ctx := context.Background()
		if row.kind == rowMilestone {
			res, err := app.Progress.ToggleMilestone(ctx, app.Session(), planID, week)
			return toggledMsg{res: res, err: err}
		}
		kind := domain.ItemTask
		if row.kind == rowHabit {
			kind = domain.ItemHabit
		}
		res, err := app.Progress.Toggle(ctx, app.Session(), service.ToggleRequest{
			PlanID:    planID,
			Week:      week,
			DayIndex:  row.day,
			Kind:      kind,
			ItemIndex: row.index,
		})
		return toggledMsg{res: res, err: err}
	}
}

func (m trackerModel) saveReflection(text string) tea.Cmd {
	app, planID, week := m.app, m.planID, m.weekNum
	return func() tea.Msg {
		_, err := app.Progress.RecordReflection(context.Background(), app.Session(), planID, week, text)
		return reflectionSavedMsg{week: week, err: err}
	}
}

func (m trackerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case weekLoadedMsg:
		m.loading = false
		if msg.plan != nil {
			m.plan = msg.plan
		}
		if msg.err != nil {
			m.err = msg.err
			m.week, m.status, m.rows = nil, nil, nil
			return m, nil
		}
		m.err = nil
		m.week = msg.week
		m.weekNum = msg.week.Number
		m.status = msg.status
		m.rows = buildTrackerRows(msg.week)
		m.cursor = 0
		return m, nil

	case toggledMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
			return m, nil
		}
		m.status = &msg.res.Status
		m.notice = ""
		if msg.res.CheckInDue {
			m.checkIn = true
			m.input.SetValue("")
			cmd := m.input.Focus()
			return m, cmd
		}
		return m, nil

	case reflectionSavedMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
			return m, nil
		}
		m.notice = fmt.Sprintf("Check-in saved for week %d.", msg.week)
		return m, nil

	case tea.KeyMsg:
		if m.checkIn {
			return m.updateCheckIn(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m trackerModel) updateCheckIn(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.checkIn = false
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		text := strings.TrimSpace(m.input.Value())
		m.checkIn = false
		m.input.Blur()
		if text == "" {
			return m, nil
		}
		return m, m.saveReflection(text)
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m trackerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	if m.loading {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		if m.week != nil && m.cursor < len(m.rows) {
			return m, m.toggle(m.rows[m.cursor])
		}
	case key.Matches(msg, m.keys.Prev):
		return m.page(m.weekNum - 1)
	case key.Matches(msg, m.keys.Next):
		return m.page(m.weekNum + 1)
	case key.Matches(msg, m.keys.Retry):
		if m.err != nil {
			return m.page(m.weekNum)
		}
	}
	return m, nil
}

func (m trackerModel) page(week int) (tea.Model, tea.Cmd) {
	if m.plan == nil || !m.plan.InRange(week) {
		return m, nil
	}
	m.loading = true
	m.notice = ""
	m.weekNum = week
	return m, tea.Batch(m.spinner.Tick, m.loadWeek(week))
}

func buildTrackerRows(w *domain.Week) []trackerRow {
	rows := []trackerRow{{kind: rowMilestone, label: w.Milestone}}
	for d, day := range w.Days {
		for i, t := range day.Tasks {
			rows = append(rows, trackerRow{kind: rowTask, day: d, index: i, label: t})
		}
		for i, h := range day.Habits {
			rows = append(rows, trackerRow{kind: rowHabit, day: d, index: i, label: h})
		}
	}
	return rows
}

func (m trackerModel) checked(row trackerRow) bool {
	if m.status == nil {
		return false
	}
	if row.kind == rowMilestone {
		return m.status.Milestone
	}
	if row.day >= len(m.status.Days) || m.status.Days[row.day] == nil {
		return false
	}
	rec := m.status.Days[row.day]
	vals := rec.TasksCompleted
	if row.kind == rowHabit {
		vals = rec.HabitsCompleted
	}
	return row.index < len(vals) && vals[row.index]
}

func (m trackerModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	if m.plan != nil {
		fmt.Fprintf(&b, "%s  %s\n", formatter.Bold(m.plan.Goal), formatter.TierBadge(m.plan.TimeCommitment))
	}

	switch {
	case m.loading:
		fmt.Fprintf(&b, "\n%s %s\n", m.spinner.View(), formatter.Dim(fmt.Sprintf("Loading week %d...", m.weekNum)))
	case m.err != nil:
		fmt.Fprintf(&b, "\n%s\n", formatter.StyleRed.Render("Error: "+m.err.Error()))
	case m.week != nil:
		b.WriteString(m.weekView())
	}

	if m.notice != "" {
		fmt.Fprintf(&b, "\n%s\n", formatter.StyleYellow.Render(m.notice))
	}
	if m.checkIn {
		fmt.Fprintf(&b, "\n%s\n%s\n%s\n",
			formatter.StyleGreen.Render(fmt.Sprintf("Week %d complete! How did it go?", m.weekNum)),
			m.input.View(),
			formatter.Dim("enter save · esc skip"))
	} else {
		fmt.Fprintf(&b, "\n%s", m.help.View(m.keys))
	}
	return b.String()
}

func (m trackerModel) weekView() string {
	var b strings.Builder
	total := 0
	if m.plan != nil {
		total = m.plan.WeekCount
	}
	fmt.Fprintf(&b, "%s\n%s\n\n",
		formatter.Header(fmt.Sprintf("Week %d/%d: %s", m.week.Number, total, m.week.Theme)),
		formatter.Dim(m.week.Summary))

	cursorStyle := lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	lastDay := -1
	for i, row := range m.rows {
		if row.kind != rowMilestone && row.day != lastDay {
			lastDay = row.day
			day := m.week.Days[row.day]
			fmt.Fprintf(&b, "\n%s %s\n", formatter.StyleHeader.Render(day.Name.String()), formatter.Dim(day.Focus))
		}
		pointer := "  "
		if i == m.cursor {
			pointer = cursorStyle.Render("> ")
		}
		label := row.label
		switch row.kind {
		case rowMilestone:
			label = formatter.StyleHeader.Render("Milestone: ") + label
		case rowHabit:
			label = formatter.StyleBlue.Render("habit ") + label
		}
		fmt.Fprintf(&b, "%s%s %s\n", pointer, formatter.Checkbox(m.checked(row)), label)
	}

	if m.status != nil {
		fmt.Fprintf(&b, "\n%s  %s\n",
			formatter.RenderProgress(m.status.Completion.Pct(), 12),
			formatter.StateIndicator(m.status.Completion.State))
	}
	return b.String()
}

func newTrackCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "track PLAN [WEEK]",
		Aliases: []string{"tui"},
		Short:   "Open the interactive week tracker",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			planID, err := resolvePlanID(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			week := 0
			if len(args) == 2 {
				if week, err = parseWeek(args[1]); err != nil {
					return err
				}
			}
			_, err = tea.NewProgram(newTrackerModel(app, planID, week), tea.WithAltScreen()).Run()
			return err
		},
	}
}

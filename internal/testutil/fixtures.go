package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/alexanderramin/waypoint/internal/planschema"
)

// Week options
type WeekOption func(*domain.Week)

func WithTheme(theme string) WeekOption {
	return func(w *domain.Week) {
		w.Theme = theme
	}
}

func WithReward(reward string) WeekOption {
	return func(w *domain.Week) {
		w.Reward = reward
	}
}

// WithDayTasks replaces the tasks of the day at index (0 = Monday).
func WithDayTasks(index int, tasks ...string) WeekOption {
	return func(w *domain.Week) {
		w.Days[index].Tasks = tasks
	}
}

// WithDayHabits replaces the habits of the day at index (0 = Monday).
func WithDayHabits(index int, habits ...string) WeekOption {
	return func(w *domain.Week) {
		w.Days[index].Habits = habits
	}
}

// NewTestWeek returns a valid, normalized week n: seven days Monday..Sunday,
// two tasks and one habit per day.
func NewTestWeek(n int, opts ...WeekOption) *domain.Week {
	w := &domain.Week{
		Number:    n,
		Theme:     fmt.Sprintf("Week %d theme", n),
		Summary:   fmt.Sprintf("What week %d covers.", n),
		Milestone: fmt.Sprintf("Finish milestone %d", n),
		Reward:    "",
		Resources: []domain.ResourceRef{
			{Title: "Reference", URL: "https://example.com/docs"},
		},
		Days: make([]domain.Day, domain.DaysPerWeek),
	}
	for i := range w.Days {
		w.Days[i] = domain.Day{
			Name:             domain.DayName(i),
			Focus:            fmt.Sprintf("Focus %d.%d", n, i+1),
			Tasks:            []string{fmt.Sprintf("Task %d.%d.a", n, i+1), fmt.Sprintf("Task %d.%d.b", n, i+1)},
			Habits:           []string{"Practice 15 minutes"},
			ReflectionPrompt: "What went well?",
		}
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// NewTestWeeks returns weeks 1..count.
func NewTestWeeks(count int) []domain.Week {
	weeks := make([]domain.Week, 0, count)
	for n := 1; n <= count; n++ {
		weeks = append(weeks, *NewTestWeek(n))
	}
	return weeks
}

// Plan options
type PlanOption func(*domain.Plan)

func WithWeeks(weeks ...domain.Week) PlanOption {
	return func(p *domain.Plan) {
		p.Weeks = weeks
	}
}

func WithAllWeeks() PlanOption {
	return func(p *domain.Plan) {
		p.Weeks = NewTestWeeks(p.WeekCount)
	}
}

func WithCommitment(tc domain.TimeCommitment) PlanOption {
	return func(p *domain.Plan) {
		p.TimeCommitment = tc
	}
}

// NewTestPlan returns an unsaved plan for ownerID with no weeks generated.
func NewTestPlan(ownerID, goal string, weekCount int, opts ...PlanOption) *domain.Plan {
	now := time.Now().UTC().Truncate(time.Second)
	p := &domain.Plan{
		ID:             uuid.New().String(),
		OwnerID:        ownerID,
		Goal:           goal,
		TimeCommitment: domain.Commitment5h,
		WeekCount:      weekCount,
		Weeks:          []domain.Week{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WeekJSON returns the generator wire text for NewTestWeek(n, opts...).
func WeekJSON(n int, opts ...WeekOption) string {
	data, err := planschema.MarshalWeek(NewTestWeek(n, opts...))
	if err != nil {
		panic(err)
	}
	return string(data)
}

// PlanJSON returns the generator wire text for weeks 1..count.
func PlanJSON(count int) string {
	data, err := planschema.MarshalPlan(NewTestWeeks(count))
	if err != nil {
		panic(err)
	}
	return string(data)
}

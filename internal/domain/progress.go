package domain

import "time"

// DayProgress is the checkbox state for one day of a plan week, keyed by
// (OwnerID, PlanID, Week, DayIndex). The slices are positionally aligned with
// the Day's Tasks and Habits.
type DayProgress struct {
	OwnerID         string    `json:"ownerId"`
	PlanID          string    `json:"planId"`
	Week            int       `json:"week"`
	DayIndex        int       `json:"dayIndex"`
	TasksCompleted  []bool    `json:"tasksCompleted"`
	HabitsCompleted []bool    `json:"habitsCompleted"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// WeekProgress is the per-week milestone state, keyed by (OwnerID, PlanID, Week).
type WeekProgress struct {
	OwnerID            string    `json:"ownerId"`
	PlanID             string    `json:"planId"`
	Week               int       `json:"week"`
	MilestoneCompleted bool      `json:"milestoneCompleted"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Reflection is a free-text weekly check-in answer.
type Reflection struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	PlanID    string    `json:"planId"`
	Week      int       `json:"week"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewDayProgress returns an all-unchecked record sized to day.
func NewDayProgress(ownerID, planID string, week, dayIndex int, day *Day) *DayProgress {
	return &DayProgress{
		OwnerID:         ownerID,
		PlanID:          planID,
		Week:            week,
		DayIndex:        dayIndex,
		TasksCompleted:  make([]bool, len(day.Tasks)),
		HabitsCompleted: make([]bool, len(day.Habits)),
	}
}

// AlignTo resizes the completion slices to match day, keeping existing
// positions and treating new positions as unchecked.
func (p *DayProgress) AlignTo(day *Day) {
	p.TasksCompleted = resizeBools(p.TasksCompleted, len(day.Tasks))
	p.HabitsCompleted = resizeBools(p.HabitsCompleted, len(day.Habits))
}

func resizeBools(in []bool, n int) []bool {
	out := make([]bool, n)
	copy(out, in)
	return out
}

// WeekCompletion is the derived checkbox tally for one week.
type WeekCompletion struct {
	Week               int       `json:"week"`
	TasksDone          int       `json:"tasksDone"`
	TasksTotal         int       `json:"tasksTotal"`
	HabitsDone         int       `json:"habitsDone"`
	HabitsTotal        int       `json:"habitsTotal"`
	MilestoneCompleted bool      `json:"milestoneCompleted"`
	State              WeekState `json:"state"`
}

// Complete reports whether every tracked boolean in the week is true.
func (c WeekCompletion) Complete() bool {
	return c.State == WeekComplete
}

// Pct returns the share of tracked booleans that are checked, in [0,1].
// The milestone counts as one tracked item.
func (c WeekCompletion) Pct() float64 {
	total := c.TasksTotal + c.HabitsTotal + 1
	done := c.TasksDone + c.HabitsDone
	if c.MilestoneCompleted {
		done++
	}
	return float64(done) / float64(total)
}

// ComputeWeekCompletion derives the state of week from its day records
// (indexed by DayIndex; missing days count as unchecked) and milestone flag.
func ComputeWeekCompletion(week *Week, days map[int]*DayProgress, milestone bool) WeekCompletion {
	c := WeekCompletion{Week: week.Number, MilestoneCompleted: milestone}
	for i := range week.Days {
		d := &week.Days[i]
		c.TasksTotal += len(d.Tasks)
		c.HabitsTotal += len(d.Habits)
		rec := days[i]
		if rec == nil {
			continue
		}
		c.TasksDone += countTrue(rec.TasksCompleted, len(d.Tasks))
		c.HabitsDone += countTrue(rec.HabitsCompleted, len(d.Habits))
	}

	switch {
	case c.TasksDone == c.TasksTotal && c.HabitsDone == c.HabitsTotal && milestone:
		c.State = WeekComplete
	case c.TasksDone == 0 && c.HabitsDone == 0 && !milestone:
		c.State = WeekNotStarted
	default:
		c.State = WeekInProgress
	}
	return c
}

func countTrue(vals []bool, limit int) int {
	n := 0
	for i, v := range vals {
		if i >= limit {
			break
		}
		if v {
			n++
		}
	}
	return n
}

// Streak counts consecutive complete weeks backward from current. An
// incomplete current week is still open, so counting starts at the week
// before it instead of breaking the streak.
func Streak(completions map[int]WeekCompletion, current int) int {
	start := current
	if c, ok := completions[current]; !ok || !c.Complete() {
		start = current - 1
	}
	streak := 0
	for w := start; w >= 1; w-- {
		c, ok := completions[w]
		if !ok || !c.Complete() {
			break
		}
		streak++
	}
	return streak
}

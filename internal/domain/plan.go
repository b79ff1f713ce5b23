package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// Plan bounds.
const (
	MinWeekCount  = 4
	MaxWeekCount  = 52
	MaxGoalLength = 200
)

// Plan is the multi-week roadmap generated for one goal. Weeks is ordered by
// week number and may be sparse while weeks are generated lazily.
type Plan struct {
	ID             string         `json:"id,omitempty"`
	OwnerID        string         `json:"ownerId,omitempty"`
	Goal           string         `json:"goal"`
	TimeCommitment TimeCommitment `json:"timeCommitment"`
	WeekCount      int            `json:"weekCount"`
	Weeks          []Week         `json:"weeks"`
	LastViewedWeek int            `json:"lastViewedWeek,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// Week is one fully generated plan week.
type Week struct {
	Number    int           `json:"week"`
	Theme     string        `json:"theme"`
	Summary   string        `json:"summary"`
	Milestone string        `json:"weeklyMilestone"`
	Reward    string        `json:"weeklyReward"`
	Resources []ResourceRef `json:"resources"`
	Days      []Day         `json:"days"`
}

// Day is one weekday inside a Week.
type Day struct {
	Name             DayName  `json:"day"`
	Focus            string   `json:"focus"`
	Tasks            []string `json:"tasks"`
	Habits           []string `json:"habits"`
	ReflectionPrompt string   `json:"reflectionPrompt"`
}

// NormalizeGoal trims the goal and checks it is non-empty and bounded.
func NormalizeGoal(goal string) (string, error) {
	g := strings.Join(strings.Fields(goal), " ")
	if g == "" {
		return "", fmt.Errorf("goal is required")
	}
	if utf8.RuneCountInString(g) > MaxGoalLength {
		return "", fmt.Errorf("goal must be at most %d characters", MaxGoalLength)
	}
	return g, nil
}

// ValidateWeekCount checks n lies within the supported plan length.
func ValidateWeekCount(n int) error {
	if n < MinWeekCount || n > MaxWeekCount {
		return fmt.Errorf("week count must be between %d and %d, got %d", MinWeekCount, MaxWeekCount, n)
	}
	return nil
}

// Week returns the week with the given number, or nil if it has not been
// generated yet.
func (p *Plan) Week(number int) *Week {
	for i := range p.Weeks {
		if p.Weeks[i].Number == number {
			return &p.Weeks[i]
		}
	}
	return nil
}

// PutWeek inserts or replaces a week, keeping Weeks ordered by number.
func (p *Plan) PutWeek(w Week) {
	for i := range p.Weeks {
		if p.Weeks[i].Number == w.Number {
			p.Weeks[i] = w
			return
		}
	}
	p.Weeks = append(p.Weeks, w)
	sort.Slice(p.Weeks, func(i, j int) bool { return p.Weeks[i].Number < p.Weeks[j].Number })
}

// Complete reports whether every week 1..WeekCount is present exactly once.
func (p *Plan) Complete() bool {
	if p.WeekCount <= 0 || len(p.Weeks) != p.WeekCount {
		return false
	}
	for i, w := range p.Weeks {
		if w.Number != i+1 {
			return false
		}
	}
	return true
}

// MissingWeeks lists the week numbers not generated yet.
func (p *Plan) MissingWeeks() []int {
	var missing []int
	for n := 1; n <= p.WeekCount; n++ {
		if p.Week(n) == nil {
			missing = append(missing, n)
		}
	}
	return missing
}

// InRange reports whether week is a valid week number for this plan.
func (p *Plan) InRange(week int) bool {
	return week >= 1 && week <= p.WeekCount
}

// ResumeWeek returns the week a tracker should open on: the last viewed week
// when it is in range, else week 1.
func (p *Plan) ResumeWeek() int {
	if p.InRange(p.LastViewedWeek) {
		return p.LastViewedWeek
	}
	return 1
}

// Day returns the day at index (0 = Monday), or nil when out of range.
func (w *Week) Day(index int) *Day {
	if index < 0 || index >= len(w.Days) {
		return nil
	}
	return &w.Days[index]
}

// TrackedItems returns the number of task and habit checkboxes in the week.
func (w *Week) TrackedItems() (tasks, habits int) {
	for _, d := range w.Days {
		tasks += len(d.Tasks)
		habits += len(d.Habits)
	}
	return tasks, habits
}

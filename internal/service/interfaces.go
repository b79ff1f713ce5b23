package service

import (
	"context"

	"github.com/alexanderramin/waypoint/internal/domain"
)

// PlanRequest identifies a plan by its natural key.
type PlanRequest struct {
	Goal           string                `json:"goal"`
	TimeCommitment domain.TimeCommitment `json:"timeCommitment"`
	WeekCount      int                   `json:"weekCount"`
}

// WeekRequest asks for one week of a plan. When PlanID names a stored plan
// its goal, tier and week count win over the request fields.
type WeekRequest struct {
	PlanID         string                `json:"planId,omitempty"`
	Week           int                   `json:"week"`
	Goal           string                `json:"goal,omitempty"`
	TimeCommitment domain.TimeCommitment `json:"timeCommitment,omitempty"`
	WeekCount      int                   `json:"weekCount,omitempty"`
	// Prefetch leaves the plan's last viewed week untouched.
	Prefetch bool `json:"-"`
}

// RoadmapService resolves plans and weeks from the cache, generating and
// storing them on a miss.
type RoadmapService interface {
	GetOrCreateFullPlan(ctx context.Context, sess *domain.Session, req PlanRequest) (*domain.Plan, error)
	StartPlan(ctx context.Context, sess *domain.Session, req PlanRequest) (*domain.Plan, error)
	GetOrCreateWeek(ctx context.Context, sess *domain.Session, req WeekRequest) (*domain.Week, error)

	GetPlan(ctx context.Context, sess *domain.Session, planID string) (*domain.Plan, error)
	ListPlans(ctx context.Context, sess *domain.Session) ([]*domain.Plan, error)
	DeletePlan(ctx context.Context, sess *domain.Session, planID string) error
}

// ToggleRequest flips one task or habit checkbox.
type ToggleRequest struct {
	PlanID    string          `json:"planId"`
	Week      int             `json:"week"`
	DayIndex  int             `json:"dayIndex"`
	Kind      domain.ItemKind `json:"kind"`
	ItemIndex int             `json:"index"`
}

// WeekStatus is the derived progress view of one week. Days is aligned with
// the week's days; days never touched are all-unchecked records.
type WeekStatus struct {
	PlanID     string                `json:"planId"`
	Week       int                   `json:"week"`
	Days       []*domain.DayProgress `json:"days"`
	Milestone  bool                  `json:"milestoneCompleted"`
	Completion domain.WeekCompletion `json:"completion"`
}

// ToggleResult is returned by every toggle. Day is nil for milestone toggles.
// CheckInDue is set once per session when the week has just become complete.
type ToggleResult struct {
	Day        *domain.DayProgress  `json:"day,omitempty"`
	WeekRecord *domain.WeekProgress `json:"weekRecord"`
	Status     WeekStatus           `json:"status"`
	CheckInDue bool                 `json:"checkInDue"`
}

// PlanStats summarises progress across the generated weeks of a plan.
type PlanStats struct {
	PlanID         string                  `json:"planId"`
	WeekCount      int                     `json:"weekCount"`
	CurrentWeek    int                     `json:"currentWeek"`
	Weeks          []domain.WeekCompletion `json:"weeks"`
	CompletedWeeks int                     `json:"completedWeeks"`
	Streak         int                     `json:"streak"`
	OverallPct     float64                 `json:"overallPct"`
}

// ProgressService records checkbox state and derives completion from it.
type ProgressService interface {
	Toggle(ctx context.Context, sess *domain.Session, req ToggleRequest) (*ToggleResult, error)
	ToggleMilestone(ctx context.Context, sess *domain.Session, planID string, week int) (*ToggleResult, error)
	WeekStatus(ctx context.Context, sess *domain.Session, planID string, week int) (*WeekStatus, error)
	// Stats derives plan-wide progress. currentWeek <= 0 uses the plan's
	// resume week.
	Stats(ctx context.Context, sess *domain.Session, planID string, currentWeek int) (*PlanStats, error)

	RecordReflection(ctx context.Context, sess *domain.Session, planID string, week int, text string) (*domain.Reflection, error)
	ListReflections(ctx context.Context, sess *domain.Session, planID string, week int) ([]*domain.Reflection, error)
}

package repository

import (
	"context"

	"github.com/alexanderramin/waypoint/internal/domain"
)

// PlanCache stores generated plans under their natural key
// (owner, goal, time commitment, week count). Lookups return (nil, nil) on a
// miss. Writes are idempotent upserts.
type PlanCache interface {
	Lookup(ctx context.Context, ownerID, goal string, tc domain.TimeCommitment, weekCount int) (*domain.Plan, error)
	LookupWeek(ctx context.Context, planID string, week int) (*domain.Week, error)
	Store(ctx context.Context, ownerID, goal string, tc domain.TimeCommitment, weekCount int, plan *domain.Plan) (string, error)
	StoreWeek(ctx context.Context, planID string, week int, w *domain.Week) error

	GetPlan(ctx context.Context, ownerID, planID string) (*domain.Plan, error)
	ListPlans(ctx context.Context, ownerID string) ([]*domain.Plan, error)
	DeletePlan(ctx context.Context, ownerID, planID string) error
	SetLastViewedWeek(ctx context.Context, ownerID, planID string, week int) error
}

// ProgressRepo persists checkbox state. Getters return (nil, nil) when the
// owner has not interacted with that day or week yet.
type ProgressRepo interface {
	GetDay(ctx context.Context, ownerID, planID string, week, dayIndex int) (*domain.DayProgress, error)
	UpsertDay(ctx context.Context, p *domain.DayProgress) error
	ListDays(ctx context.Context, ownerID, planID string) ([]*domain.DayProgress, error)

	GetWeek(ctx context.Context, ownerID, planID string, week int) (*domain.WeekProgress, error)
	UpsertWeek(ctx context.Context, p *domain.WeekProgress) error
	ListWeeks(ctx context.Context, ownerID, planID string) ([]*domain.WeekProgress, error)
}

// ReflectionRepo persists weekly check-in answers.
type ReflectionRepo interface {
	Create(ctx context.Context, r *domain.Reflection) error
	// List returns reflections oldest first; week 0 lists every week.
	List(ctx context.Context, ownerID, planID string, week int) ([]*domain.Reflection, error)
}

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/alexanderramin/waypoint/internal/repository"
	"github.com/alexanderramin/waypoint/internal/testutil"
)

type testServices struct {
	cache    *repository.SQLitePlanCache
	gen      *testutil.FakeGenerator
	roadmap  RoadmapService
	progress ProgressService
	observer *recordingObserver
}

func setupServices(t *testing.T, opts RoadmapOptions) *testServices {
	t.Helper()
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)
	cache := repository.NewSQLitePlanCache(database, uow)
	gen := &testutil.FakeGenerator{}
	obs := &recordingObserver{}
	return &testServices{
		cache:   cache,
		gen:     gen,
		roadmap: NewRoadmapService(cache, gen, opts, obs),
		progress: NewProgressService(cache,
			repository.NewSQLiteProgressRepo(database),
			repository.NewSQLiteReflectionRepo(database),
			uow, obs),
		observer: obs,
	}
}

// storePlan saves a plan with every week generated and returns it with its id.
func storePlan(t *testing.T, cache repository.PlanCache, ownerID string, weekCount int) *domain.Plan {
	t.Helper()
	plan := testutil.NewTestPlan(ownerID, "Learn guitar", weekCount, testutil.WithAllWeeks())
	id, err := cache.Store(context.Background(), ownerID, plan.Goal, plan.TimeCommitment, weekCount, plan)
	require.NoError(t, err)
	plan.ID = id
	return plan
}

var guitarRequest = PlanRequest{Goal: "Learn guitar", TimeCommitment: domain.Commitment5h, WeekCount: 4}

// faultyCache fails reads, writes or both on top of a working cache.
type faultyCache struct {
	repository.PlanCache
	failReads  bool
	failWrites bool
}

func (c *faultyCache) Lookup(ctx context.Context, ownerID, goal string, tc domain.TimeCommitment, n int) (*domain.Plan, error) {
	if c.failReads {
		return nil, repository.ErrCacheUnavailable
	}
	return c.PlanCache.Lookup(ctx, ownerID, goal, tc, n)
}

func (c *faultyCache) LookupWeek(ctx context.Context, planID string, week int) (*domain.Week, error) {
	if c.failReads {
		return nil, repository.ErrCacheUnavailable
	}
	return c.PlanCache.LookupWeek(ctx, planID, week)
}

func (c *faultyCache) GetPlan(ctx context.Context, ownerID, planID string) (*domain.Plan, error) {
	if c.failReads {
		return nil, repository.ErrCacheUnavailable
	}
	return c.PlanCache.GetPlan(ctx, ownerID, planID)
}

func (c *faultyCache) Store(ctx context.Context, ownerID, goal string, tc domain.TimeCommitment, n int, p *domain.Plan) (string, error) {
	if c.failWrites {
		return "", repository.ErrCacheUnavailable
	}
	return c.PlanCache.Store(ctx, ownerID, goal, tc, n, p)
}

func (c *faultyCache) StoreWeek(ctx context.Context, planID string, week int, w *domain.Week) error {
	if c.failWrites {
		return repository.ErrCacheUnavailable
	}
	return c.PlanCache.StoreWeek(ctx, planID, week, w)
}

func (c *faultyCache) SetLastViewedWeek(ctx context.Context, ownerID, planID string, week int) error {
	if c.failWrites {
		return repository.ErrCacheUnavailable
	}
	return c.PlanCache.SetLastViewedWeek(ctx, ownerID, planID, week)
}

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) last(name string) (UseCaseEvent, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.events) - 1; i >= 0; i-- {
		if o.events[i].Name == name {
			return o.events[i], true
		}
	}
	return UseCaseEvent{}, false
}

func fastOptions() RoadmapOptions {
	return RoadmapOptions{GenerationTimeout: 2 * time.Second}
}

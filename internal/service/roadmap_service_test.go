package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/alexanderramin/waypoint/internal/generation"
	"github.com/alexanderramin/waypoint/internal/planschema"
	"github.com/alexanderramin/waypoint/internal/repository"
	"github.com/alexanderramin/waypoint/internal/testutil"
)

func TestGetOrCreateFullPlan_LearnGuitarScenario(t *testing.T) {
	svc := setupServices(t, fastOptions())
	svc.gen.PlanFunc = func(req generation.Request) (string, error) {
		return "Here is your roadmap:\n```json\n" + testutil.PlanJSON(req.TotalWeeks) + "\n```\nGood luck!", nil
	}
	ctx := context.Background()
	sess := domain.NewSession("u1")

	plan, err := svc.roadmap.GetOrCreateFullPlan(ctx, sess, guitarRequest)
	require.NoError(t, err)
	require.NotEmpty(t, plan.ID)
	assert.Len(t, plan.Weeks, 4)
	assert.True(t, plan.Complete())
	assert.Equal(t, plan.ID, sess.ActivePlan())

	cached, err := svc.cache.Lookup(ctx, "u1", "Learn guitar", domain.Commitment5h, 4)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, plan.ID, cached.ID)

	again, err := svc.roadmap.GetOrCreateFullPlan(ctx, sess, guitarRequest)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, again.ID)
	assert.Equal(t, plan.Weeks, again.Weeks)
	assert.Equal(t, 1, svc.gen.PlanCalls(), "second request must be served from cache")

	ev, ok := svc.observer.last("get-or-create-plan")
	require.True(t, ok)
	assert.Equal(t, "hit", ev.Fields["cache"])
}

func TestGetOrCreateFullPlan_NormalizesRequest(t *testing.T) {
	svc := setupServices(t, fastOptions())
	ctx := context.Background()
	sess := domain.NewSession("u1")

	first, err := svc.roadmap.GetOrCreateFullPlan(ctx, sess, PlanRequest{Goal: "  Learn   guitar ", TimeCommitment: "5", WeekCount: 4})
	require.NoError(t, err)
	second, err := svc.roadmap.GetOrCreateFullPlan(ctx, sess, guitarRequest)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Learn guitar", first.Goal)
	assert.Equal(t, 1, svc.gen.PlanCalls())
}

func TestGetOrCreateFullPlan_InvalidRequest(t *testing.T) {
	svc := setupServices(t, fastOptions())
	sess := domain.NewSession("u1")

	cases := map[string]PlanRequest{
		"empty goal":   {Goal: "  ", TimeCommitment: domain.Commitment5h, WeekCount: 4},
		"unknown tier": {Goal: "x", TimeCommitment: "20 hrs/week", WeekCount: 4},
		"too short":    {Goal: "x", TimeCommitment: domain.Commitment5h, WeekCount: 3},
		"too long":     {Goal: "x", TimeCommitment: domain.Commitment5h, WeekCount: 53},
	}
	for name, req := range cases {
		_, err := svc.roadmap.GetOrCreateFullPlan(context.Background(), sess, req)
		assert.ErrorIs(t, err, ErrInvalidRequest, name)
	}

	_, err := svc.roadmap.GetOrCreateFullPlan(context.Background(), domain.NewSession(""), guitarRequest)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, 0, svc.gen.PlanCalls())
}

func TestGetOrCreateFullPlan_ValidatorFailureIsGenerationFailed(t *testing.T) {
	svc := setupServices(t, fastOptions())
	svc.gen.PlanFunc = func(generation.Request) (string, error) {
		return "I cannot help with that.", nil
	}
	ctx := context.Background()

	_, err := svc.roadmap.GetOrCreateFullPlan(ctx, domain.NewSession("u1"), guitarRequest)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.ErrorIs(t, err, planschema.ErrParse)

	var gf *GenerationFailedError
	require.True(t, errors.As(err, &gf))
	assert.Equal(t, ScopePlan, gf.Scope)

	cached, err := svc.cache.Lookup(ctx, "u1", "Learn guitar", domain.Commitment5h, 4)
	require.NoError(t, err)
	assert.Nil(t, cached, "nothing is stored after a failed generation")
}

func TestGetOrCreateFullPlan_WeekCountMismatch(t *testing.T) {
	svc := setupServices(t, fastOptions())
	svc.gen.PlanFunc = func(generation.Request) (string, error) {
		return testutil.PlanJSON(3), nil
	}

	_, err := svc.roadmap.GetOrCreateFullPlan(context.Background(), domain.NewSession("u1"), guitarRequest)
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestGetOrCreateFullPlan_UpstreamErrorKeepsKind(t *testing.T) {
	svc := setupServices(t, fastOptions())
	svc.gen.PlanFunc = func(generation.Request) (string, error) {
		return "", &generation.GenerationError{Op: generation.OpPlan, Status: 429, Err: errors.New("rate limited")}
	}

	_, err := svc.roadmap.GetOrCreateFullPlan(context.Background(), domain.NewSession("u1"), guitarRequest)
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.ErrorIs(t, err, generation.ErrGeneration)
}

func TestGetOrCreateFullPlan_CacheReadFailureIsMiss(t *testing.T) {
	svc := setupServices(t, fastOptions())
	roadmap := NewRoadmapService(&faultyCache{PlanCache: svc.cache, failReads: true}, svc.gen, fastOptions())

	plan, err := roadmap.GetOrCreateFullPlan(context.Background(), domain.NewSession("u1"), guitarRequest)
	require.NoError(t, err)
	assert.True(t, plan.Complete())
	assert.NotEmpty(t, plan.ID, "writes still land when only reads fail")
	assert.Equal(t, 1, svc.gen.PlanCalls())
}

func TestGetOrCreateFullPlan_CacheWriteFailureSwallowed(t *testing.T) {
	svc := setupServices(t, fastOptions())
	roadmap := NewRoadmapService(&faultyCache{PlanCache: svc.cache, failWrites: true}, svc.gen, fastOptions())

	plan, err := roadmap.GetOrCreateFullPlan(context.Background(), domain.NewSession("u1"), guitarRequest)
	require.NoError(t, err)
	assert.True(t, plan.Complete())
	assert.Empty(t, plan.ID)
}

func TestGetOrCreateFullPlan_KeepsLazilyCachedWeeks(t *testing.T) {
	svc := setupServices(t, fastOptions())
	ctx := context.Background()
	sess := domain.NewSession("u1")

	started, err := svc.roadmap.StartPlan(ctx, sess, guitarRequest)
	require.NoError(t, err)

	svc.gen.WeekFunc = func(req generation.Request) (string, error) {
		return testutil.WeekJSON(req.Week, testutil.WithTheme("served lazily")), nil
	}
	_, err = svc.roadmap.GetOrCreateWeek(ctx, sess, WeekRequest{PlanID: started.ID, Week: 1})
	require.NoError(t, err)

	plan, err := svc.roadmap.GetOrCreateFullPlan(ctx, sess, guitarRequest)
	require.NoError(t, err)
	assert.Equal(t, started.ID, plan.ID)
	assert.True(t, plan.Complete())
	assert.Equal(t, "served lazily", plan.Week(1).Theme)
	assert.Equal(t, "Week 2 theme", plan.Week(2).Theme)
}

func TestGetOrCreateFullPlan_CoalescesConcurrentRequests(t *testing.T) {
	svc := setupServices(t, fastOptions())
	svc.gen.Delay = 50 * time.Millisecond

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := svc.roadmap.GetOrCreateFullPlan(context.Background(), domain.NewSession("u1"), guitarRequest)
			if err != nil {
				t.Errorf("request %d: %v", i, err)
				return
			}
			ids[i] = p.ID
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, svc.gen.PlanCalls())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestGetOrCreateFullPlan_TimeoutIsGenerationFailed(t *testing.T) {
	svc := setupServices(t, RoadmapOptions{GenerationTimeout: 20 * time.Millisecond})
	svc.gen.Delay = time.Second

	_, err := svc.roadmap.GetOrCreateFullPlan(context.Background(), domain.NewSession("u1"), guitarRequest)
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGetOrCreateFullPlan_CallerCancelStopsWaiting(t *testing.T) {
	svc := setupServices(t, fastOptions())
	svc.gen.Delay = 200 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := svc.roadmap.GetOrCreateFullPlan(ctx, domain.NewSession("u1"), guitarRequest)
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGetOrCreateWeek_CachedWeekNeverRegenerated(t *testing.T) {
	svc := setupServices(t, fastOptions())
	ctx := context.Background()
	sess := domain.NewSession("u1")
	req := WeekRequest{Week: 1, Goal: "Learn guitar", TimeCommitment: domain.Commitment5h, WeekCount: 4}

	first, err := svc.roadmap.GetOrCreateWeek(ctx, sess, req)
	require.NoError(t, err)
	second, err := svc.roadmap.GetOrCreateWeek(ctx, sess, req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, svc.gen.WeekCalls(1))
	assert.Equal(t, 0, svc.gen.PlanCalls())

	plan, err := svc.cache.Lookup(ctx, "u1", "Learn guitar", domain.Commitment5h, 4)
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.Equal(t, []int{2, 3, 4}, plan.MissingWeeks())
}

func TestGetOrCreateWeek_FailureIsolatedToWeek(t *testing.T) {
	svc := setupServices(t, fastOptions())
	ctx := context.Background()
	sess := domain.NewSession("u1")

	plan, err := svc.roadmap.StartPlan(ctx, sess, guitarRequest)
	require.NoError(t, err)
	for n := 1; n <= 2; n++ {
		_, err := svc.roadmap.GetOrCreateWeek(ctx, sess, WeekRequest{PlanID: plan.ID, Week: n})
		require.NoError(t, err)
	}
	week2, err := svc.cache.LookupWeek(ctx, plan.ID, 2)
	require.NoError(t, err)

	svc.gen.WeekFunc = func(req generation.Request) (string, error) {
		return `{"week": 3, "theme": "broken"}`, nil
	}
	_, err = svc.roadmap.GetOrCreateWeek(ctx, sess, WeekRequest{PlanID: plan.ID, Week: 3})
	require.Error(t, err)
	var gf *GenerationFailedError
	require.True(t, errors.As(err, &gf))
	assert.Equal(t, ScopeWeek, gf.Scope)
	assert.Equal(t, 3, gf.Week)
	assert.ErrorIs(t, err, planschema.ErrParse)

	for n := 1; n <= 2; n++ {
		w, err := svc.roadmap.GetOrCreateWeek(ctx, sess, WeekRequest{PlanID: plan.ID, Week: n})
		require.NoError(t, err)
		assert.Equal(t, n, w.Number)
	}
	again, err := svc.cache.LookupWeek(ctx, plan.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, week2, again)

	svc.gen.WeekFunc = nil
	w3, err := svc.roadmap.GetOrCreateWeek(ctx, sess, WeekRequest{PlanID: plan.ID, Week: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, w3.Number)

	assert.Equal(t, 1, svc.gen.WeekCalls(1))
	assert.Equal(t, 1, svc.gen.WeekCalls(2))
	assert.Equal(t, 2, svc.gen.WeekCalls(3))
}

func TestGetOrCreateWeek_OutOfRangeRejectedBeforeGeneration(t *testing.T) {
	svc := setupServices(t, fastOptions())
	ctx := context.Background()
	sess := domain.NewSession("u1")

	_, err := svc.roadmap.GetOrCreateWeek(ctx, sess, WeekRequest{Week: 5, Goal: "Learn guitar", TimeCommitment: domain.Commitment5h, WeekCount: 4})
	assert.ErrorIs(t, err, ErrSchemaMismatch)
	_, err = svc.roadmap.GetOrCreateWeek(ctx, sess, WeekRequest{Week: 0, Goal: "Learn guitar", TimeCommitment: domain.Commitment5h, WeekCount: 4})
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	plan, err := svc.roadmap.StartPlan(ctx, sess, guitarRequest)
	require.NoError(t, err)
	_, err = svc.roadmap.GetOrCreateWeek(ctx, sess, WeekRequest{PlanID: plan.ID, Week: 5})
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	// The stored week count cannot be grown by the request.
	_, err = svc.roadmap.GetOrCreateWeek(ctx, sess, WeekRequest{PlanID: plan.ID, Week: 6, WeekCount: 8, Goal: "Learn guitar", TimeCommitment: domain.Commitment5h})
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	assert.Equal(t, 0, svc.gen.TotalWeekCalls())
}

func TestGetOrCreateWeek_StoredPlanIsAuthoritative(t *testing.T) {
	svc := setupServices(t, fastOptions())
	ctx := context.Background()
	sess := domain.NewSession("u1")

	plan, err := svc.roadmap.StartPlan(ctx, sess, guitarRequest)
	require.NoError(t, err)

	var seen generation.Request
	svc.gen.WeekFunc = func(req generation.Request) (string, error) {
		seen = req
		return testutil.WeekJSON(req.Week), nil
	}
	_, err = svc.roadmap.GetOrCreateWeek(ctx, sess, WeekRequest{PlanID: plan.ID, Week: 2, Goal: "Something else"})
	require.NoError(t, err)
	assert.Equal(t, "Learn guitar", seen.Goal)
	assert.Equal(t, domain.Commitment5h, seen.TimeCommitment)
	assert.Equal(t, 4, seen.TotalWeeks)
	assert.Equal(t, 2, seen.Week)
}

func TestGetOrCreateWeek_ExpectedWeekEnforced(t *testing.T) {
	svc := setupServices(t, fastOptions())
	svc.gen.WeekFunc = func(req generation.Request) (string, error) {
		return testutil.WeekJSON(req.Week + 1), nil
	}

	_, err := svc.roadmap.GetOrCreateWeek(context.Background(), domain.NewSession("u1"),
		WeekRequest{Week: 2, Goal: "Learn guitar", TimeCommitment: domain.Commitment5h, WeekCount: 4})
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.ErrorIs(t, err, planschema.ErrParse)
}

func TestGetOrCreateWeek_RetriesWhenConfigured(t *testing.T) {
	svc := setupServices(t, RoadmapOptions{GenerationTimeout: time.Second, GenerationAttempts: 2})
	calls := 0
	svc.gen.WeekFunc = func(req generation.Request) (string, error) {
		calls++
		if calls == 1 {
			return "not json", nil
		}
		return testutil.WeekJSON(req.Week), nil
	}

	w, err := svc.roadmap.GetOrCreateWeek(context.Background(), domain.NewSession("u1"),
		WeekRequest{Week: 1, Goal: "Learn guitar", TimeCommitment: domain.Commitment5h, WeekCount: 4})
	require.NoError(t, err)
	assert.Equal(t, 1, w.Number)
	assert.Equal(t, 2, svc.gen.WeekCalls(1))
}

func TestGetOrCreateWeek_ForeignPlanNotFound(t *testing.T) {
	svc := setupServices(t, fastOptions())
	ctx := context.Background()

	plan, err := svc.roadmap.StartPlan(ctx, domain.NewSession("u1"), guitarRequest)
	require.NoError(t, err)

	_, err = svc.roadmap.GetOrCreateWeek(ctx, domain.NewSession("u2"), WeekRequest{PlanID: plan.ID, Week: 1})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, 0, svc.gen.TotalWeekCalls())
}

func TestGetOrCreateWeek_RecordsLastViewedWeek(t *testing.T) {
	svc := setupServices(t, fastOptions())
	ctx := context.Background()
	sess := domain.NewSession("u1")

	plan, err := svc.roadmap.StartPlan(ctx, sess, guitarRequest)
	require.NoError(t, err)
	_, err = svc.roadmap.GetOrCreateWeek(ctx, sess, WeekRequest{PlanID: plan.ID, Week: 3})
	require.NoError(t, err)

	got, err := svc.roadmap.GetPlan(ctx, sess, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.ResumeWeek())
}

func TestGetOrCreateWeek_PrefetchKeepsLastViewedWeek(t *testing.T) {
	svc := setupServices(t, fastOptions())
	ctx := context.Background()
	sess := domain.NewSession("u1")

	plan, err := svc.roadmap.StartPlan(ctx, sess, guitarRequest)
	require.NoError(t, err)
	_, err = svc.roadmap.GetOrCreateWeek(ctx, sess, WeekRequest{PlanID: plan.ID, Week: 2})
	require.NoError(t, err)
	_, err = svc.roadmap.GetOrCreateWeek(ctx, sess, WeekRequest{PlanID: plan.ID, Week: 4, Prefetch: true})
	require.NoError(t, err)

	got, err := svc.roadmap.GetPlan(ctx, sess, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ResumeWeek())
	assert.Len(t, got.Weeks, 2)
}

func TestGetOrCreateWeek_ServedWhenCacheDown(t *testing.T) {
	svc := setupServices(t, fastOptions())
	roadmap := NewRoadmapService(&faultyCache{PlanCache: svc.cache, failReads: true, failWrites: true}, svc.gen, fastOptions())

	w, err := roadmap.GetOrCreateWeek(context.Background(), domain.NewSession("u1"),
		WeekRequest{Week: 2, Goal: "Learn guitar", TimeCommitment: domain.Commitment5h, WeekCount: 4})
	require.NoError(t, err)
	assert.Equal(t, 2, w.Number)
}

func TestGetOrCreateWeek_ConcurrentPrefetchCoalesced(t *testing.T) {
	svc := setupServices(t, fastOptions())
	svc.gen.Delay = 30 * time.Millisecond
	ctx := context.Background()

	plan, err := svc.roadmap.StartPlan(ctx, domain.NewSession("u1"), guitarRequest)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n := i%2 + 1
			w, err := svc.roadmap.GetOrCreateWeek(ctx, domain.NewSession("u1"), WeekRequest{PlanID: plan.ID, Week: n})
			if err != nil {
				t.Errorf("fetch %d: %v", i, err)
				return
			}
			if w.Number != n {
				t.Errorf("fetch %d: got week %d", i, w.Number)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, svc.gen.WeekCalls(1))
	assert.Equal(t, 1, svc.gen.WeekCalls(2))
}

func TestPlanManagement_ListAndDelete(t *testing.T) {
	svc := setupServices(t, fastOptions())
	ctx := context.Background()
	sess := domain.NewSession("u1")

	for _, goal := range []string{"Learn guitar", "Run a 10k"} {
		_, err := svc.roadmap.StartPlan(ctx, sess, PlanRequest{Goal: goal, TimeCommitment: domain.Commitment10h, WeekCount: 6})
		require.NoError(t, err)
	}
	plans, err := svc.roadmap.ListPlans(ctx, sess)
	require.NoError(t, err)
	require.Len(t, plans, 2)

	require.NoError(t, svc.roadmap.DeletePlan(ctx, sess, plans[0].ID))
	_, err = svc.roadmap.GetPlan(ctx, sess, plans[0].ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = svc.roadmap.DeletePlan(ctx, domain.NewSession("u2"), plans[1].ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	ev, ok := svc.observer.last("delete-plan")
	require.True(t, ok)
	assert.False(t, ev.Success)
	assert.Equal(t, plans[1].ID, ev.Fields["plan_id"])
}

func TestGetOrCreateFullPlan_SharedSessionConcurrentGoals(t *testing.T) {
	database := testutil.NewFileTestDB(t)
	cache := repository.NewSQLitePlanCache(database, testutil.NewTestUoW(database))
	gen := &testutil.FakeGenerator{Delay: 10 * time.Millisecond}
	roadmap := NewRoadmapService(cache, gen, fastOptions(), &recordingObserver{})
	ctx := context.Background()
	sess := domain.NewSession("u1")

	goals := []string{"Learn guitar", "Learn piano", "Run a 10k", "Read more"}
	ids := make([]string, len(goals))
	var wg sync.WaitGroup
	for i, goal := range goals {
		wg.Add(1)
		go func(i int, goal string) {
			defer wg.Done()
			req := guitarRequest
			req.Goal = goal
			p, err := roadmap.GetOrCreateFullPlan(ctx, sess, req)
			if err != nil {
				t.Errorf("goal %q: %v", goal, err)
				return
			}
			ids[i] = p.ID
			_ = sess.ActivePlan()
		}(i, goal)
	}
	wg.Wait()

	assert.Equal(t, len(goals), gen.PlanCalls())
	assert.Contains(t, ids, sess.ActivePlan())

	require.NoError(t, roadmap.DeletePlan(ctx, sess, sess.ActivePlan()))
	assert.Empty(t, sess.ActivePlan())
}

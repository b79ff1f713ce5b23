package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/alexanderramin/waypoint/internal/testutil"
)

// progressTestSetup stores a two-week plan for u1 and returns its id.
func progressTestSetup(t *testing.T) (*sql.DB, string) {
	t.Helper()
	database := testutil.NewTestDB(t)
	cache := NewSQLitePlanCache(database, nil)
	plan := testutil.NewTestPlan("u1", "Learn guitar", 4, testutil.WithWeeks(*testutil.NewTestWeek(1), *testutil.NewTestWeek(2)))
	id, err := cache.Store(context.Background(), "u1", plan.Goal, plan.TimeCommitment, 4, plan)
	require.NoError(t, err)
	return database, id
}

func TestProgressRepo_GetDayMissingIsNil(t *testing.T) {
	database, planID := progressTestSetup(t)
	repo := NewSQLiteProgressRepo(database)

	p, err := repo.GetDay(context.Background(), "u1", planID, 1, 0)
	require.NoError(t, err)
	assert.Nil(t, p)

	w, err := repo.GetWeek(context.Background(), "u1", planID, 1)
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestProgressRepo_UpsertDayRoundTrip(t *testing.T) {
	database, planID := progressTestSetup(t)
	repo := NewSQLiteProgressRepo(database)
	ctx := context.Background()

	day := &domain.DayProgress{
		OwnerID:         "u1",
		PlanID:          planID,
		Week:            1,
		DayIndex:        2,
		TasksCompleted:  []bool{true, false},
		HabitsCompleted: []bool{true},
	}
	require.NoError(t, repo.UpsertDay(ctx, day))
	assert.False(t, day.UpdatedAt.IsZero())

	got, err := repo.GetDay(ctx, "u1", planID, 1, 2)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []bool{true, false}, got.TasksCompleted)
	assert.Equal(t, []bool{true}, got.HabitsCompleted)

	day.TasksCompleted = []bool{true, true}
	require.NoError(t, repo.UpsertDay(ctx, day))
	got, err = repo.GetDay(ctx, "u1", planID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true}, got.TasksCompleted)
}

func TestProgressRepo_NilSlicesStoredEmpty(t *testing.T) {
	database, planID := progressTestSetup(t)
	repo := NewSQLiteProgressRepo(database)
	ctx := context.Background()

	require.NoError(t, repo.UpsertDay(ctx, &domain.DayProgress{OwnerID: "u1", PlanID: planID, Week: 1, DayIndex: 6}))
	got, err := repo.GetDay(ctx, "u1", planID, 1, 6)
	require.NoError(t, err)
	assert.NotNil(t, got.TasksCompleted)
	assert.Empty(t, got.TasksCompleted)
}

func TestProgressRepo_KeyedPerOwnerAndWeek(t *testing.T) {
	database, planID := progressTestSetup(t)
	repo := NewSQLiteProgressRepo(database)
	ctx := context.Background()

	require.NoError(t, repo.UpsertDay(ctx, &domain.DayProgress{OwnerID: "u1", PlanID: planID, Week: 1, DayIndex: 0, TasksCompleted: []bool{true}}))
	require.NoError(t, repo.UpsertDay(ctx, &domain.DayProgress{OwnerID: "u2", PlanID: planID, Week: 1, DayIndex: 0, TasksCompleted: []bool{false}}))
	require.NoError(t, repo.UpsertDay(ctx, &domain.DayProgress{OwnerID: "u1", PlanID: planID, Week: 2, DayIndex: 0, TasksCompleted: []bool{false}}))

	mine, err := repo.ListDays(ctx, "u1", planID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, 1, mine[0].Week)
	assert.Equal(t, []bool{true}, mine[0].TasksCompleted)
	assert.Equal(t, 2, mine[1].Week)

	theirs, err := repo.GetDay(ctx, "u2", planID, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, theirs.TasksCompleted)
}

func TestProgressRepo_DayIndexOutOfRangeRejected(t *testing.T) {
	database, planID := progressTestSetup(t)
	repo := NewSQLiteProgressRepo(database)

	err := repo.UpsertDay(context.Background(), &domain.DayProgress{OwnerID: "u1", PlanID: planID, Week: 1, DayIndex: 7})
	assert.Error(t, err)
}

func TestProgressRepo_UpsertWeek(t *testing.T) {
	database, planID := progressTestSetup(t)
	repo := NewSQLiteProgressRepo(database)
	ctx := context.Background()

	wp := &domain.WeekProgress{OwnerID: "u1", PlanID: planID, Week: 2, MilestoneCompleted: true}
	require.NoError(t, repo.UpsertWeek(ctx, wp))

	got, err := repo.GetWeek(ctx, "u1", planID, 2)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.MilestoneCompleted)

	wp.MilestoneCompleted = false
	require.NoError(t, repo.UpsertWeek(ctx, wp))
	require.NoError(t, repo.UpsertWeek(ctx, &domain.WeekProgress{OwnerID: "u1", PlanID: planID, Week: 1, MilestoneCompleted: true}))

	all, err := repo.ListWeeks(ctx, "u1", planID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 1, all[0].Week)
	assert.True(t, all[0].MilestoneCompleted)
	assert.False(t, all[1].MilestoneCompleted)
}

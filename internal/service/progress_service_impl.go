package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/waypoint/internal/db"
	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/alexanderramin/waypoint/internal/repository"
)

// MaxReflectionLength bounds a check-in answer, in bytes.
const MaxReflectionLength = 4000

type progressService struct {
	plans       repository.PlanCache
	progress    repository.ProgressRepo
	reflections repository.ReflectionRepo
	uow         db.UnitOfWork
	observer    UseCaseObserver
}

// NewProgressService creates the progress tracker. When uow is non-nil each
// toggle's read-modify-write of a day or week record runs in one
// transaction against sqlite-backed repositories.
func NewProgressService(
	plans repository.PlanCache,
	progress repository.ProgressRepo,
	reflections repository.ReflectionRepo,
	uow db.UnitOfWork,
	observers ...UseCaseObserver,
) ProgressService {
	return &progressService{
		plans:       plans,
		progress:    progress,
		reflections: reflections,
		uow:         uow,
		observer:    useCaseObserverOrNoop(observers),
	}
}

func (s *progressService) Toggle(ctx context.Context, sess *domain.Session, req ToggleRequest) (result *ToggleResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"plan_id": req.PlanID, "week": req.Week, "day": req.DayIndex, "kind": string(req.Kind)}
	defer func() {
		observeUseCase(ctx, s.observer, "toggle", startedAt, fields, err)
	}()

	week, err := s.loadWeek(ctx, sess, req.PlanID, req.Week)
	if err != nil {
		return nil, err
	}
	day := week.Day(req.DayIndex)
	if day == nil {
		return nil, invalidf("day index %d outside 0..%d", req.DayIndex, len(week.Days)-1)
	}
	var items []string
	switch req.Kind {
	case domain.ItemTask:
		items = day.Tasks
	case domain.ItemHabit:
		items = day.Habits
	default:
		return nil, invalidf("unknown item kind %q", req.Kind)
	}
	if req.ItemIndex < 0 || req.ItemIndex >= len(items) {
		return nil, invalidf("%s index %d outside 0..%d", req.Kind, req.ItemIndex, len(items)-1)
	}

	before, err := s.weekStatus(ctx, sess.OwnerID, req.PlanID, week)
	if err != nil {
		return nil, err
	}

	var rec *domain.DayProgress
	err = s.withinTx(ctx, func(ctx context.Context, progress repository.ProgressRepo) error {
		var err error
		rec, err = progress.GetDay(ctx, sess.OwnerID, req.PlanID, req.Week, req.DayIndex)
		if err != nil {
			return err
		}
		if rec == nil {
			rec = domain.NewDayProgress(sess.OwnerID, req.PlanID, req.Week, req.DayIndex, day)
		} else {
			rec.AlignTo(day)
		}
		if req.Kind == domain.ItemTask {
			rec.TasksCompleted[req.ItemIndex] = !rec.TasksCompleted[req.ItemIndex]
		} else {
			rec.HabitsCompleted[req.ItemIndex] = !rec.HabitsCompleted[req.ItemIndex]
		}
		rec.UpdatedAt = time.Now().UTC()
		return progress.UpsertDay(ctx, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("toggling %s: %w", req.Kind, err)
	}

	result, err = s.result(ctx, sess, req.PlanID, week, before)
	if err != nil {
		return nil, err
	}
	result.Day = rec
	fields["state"] = string(result.Status.Completion.State)
	return result, nil
}

func (s *progressService) ToggleMilestone(ctx context.Context, sess *domain.Session, planID string, weekNum int) (result *ToggleResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"plan_id": planID, "week": weekNum}
	defer func() {
		observeUseCase(ctx, s.observer, "toggle-milestone", startedAt, fields, err)
	}()

	week, err := s.loadWeek(ctx, sess, planID, weekNum)
	if err != nil {
		return nil, err
	}
	before, err := s.weekStatus(ctx, sess.OwnerID, planID, week)
	if err != nil {
		return nil, err
	}

	err = s.withinTx(ctx, func(ctx context.Context, progress repository.ProgressRepo) error {
		rec, err := progress.GetWeek(ctx, sess.OwnerID, planID, weekNum)
		if err != nil {
			return err
		}
		if rec == nil {
			rec = &domain.WeekProgress{OwnerID: sess.OwnerID, PlanID: planID, Week: weekNum}
		}
		rec.MilestoneCompleted = !rec.MilestoneCompleted
		rec.UpdatedAt = time.Now().UTC()
		return progress.UpsertWeek(ctx, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("toggling milestone: %w", err)
	}

	result, err = s.result(ctx, sess, planID, week, before)
	if err != nil {
		return nil, err
	}
	fields["state"] = string(result.Status.Completion.State)
	return result, nil
}

// result derives the post-toggle status and decides whether the weekly
// check-in fires: only on a transition into Complete, once per session.
func (s *progressService) result(ctx context.Context, sess *domain.Session, planID string, week *domain.Week, before *WeekStatus) (*ToggleResult, error) {
	after, err := s.weekStatus(ctx, sess.OwnerID, planID, week)
	if err != nil {
		return nil, err
	}
	wp, err := s.progress.GetWeek(ctx, sess.OwnerID, planID, week.Number)
	if err != nil {
		return nil, err
	}
	if wp == nil {
		wp = &domain.WeekProgress{OwnerID: sess.OwnerID, PlanID: planID, Week: week.Number}
	}

	res := &ToggleResult{WeekRecord: wp, Status: *after}
	if !before.Completion.Complete() && after.Completion.Complete() {
		res.CheckInDue = sess.MarkCheckIn(planID, week.Number)
	}
	return res, nil
}

func (s *progressService) WeekStatus(ctx context.Context, sess *domain.Session, planID string, weekNum int) (*WeekStatus, error) {
	week, err := s.loadWeek(ctx, sess, planID, weekNum)
	if err != nil {
		return nil, err
	}
	return s.weekStatus(ctx, sess.OwnerID, planID, week)
}

func (s *progressService) weekStatus(ctx context.Context, ownerID, planID string, week *domain.Week) (*WeekStatus, error) {
	st := &WeekStatus{PlanID: planID, Week: week.Number, Days: make([]*domain.DayProgress, len(week.Days))}
	byIndex := make(map[int]*domain.DayProgress, len(week.Days))
	for i := range week.Days {
		rec, err := s.progress.GetDay(ctx, ownerID, planID, week.Number, i)
		if err != nil {
			return nil, fmt.Errorf("loading day %d: %w", i, err)
		}
		if rec == nil {
			rec = domain.NewDayProgress(ownerID, planID, week.Number, i, &week.Days[i])
		} else {
			rec.AlignTo(&week.Days[i])
		}
		st.Days[i] = rec
		byIndex[i] = rec
	}
	wp, err := s.progress.GetWeek(ctx, ownerID, planID, week.Number)
	if err != nil {
		return nil, fmt.Errorf("loading week progress: %w", err)
	}
	st.Milestone = wp != nil && wp.MilestoneCompleted
	st.Completion = domain.ComputeWeekCompletion(week, byIndex, st.Milestone)
	return st, nil
}

func (s *progressService) Stats(ctx context.Context, sess *domain.Session, planID string, currentWeek int) (*PlanStats, error) {
	if err := sess.Validate(); err != nil {
		return nil, invalidf("%v", err)
	}
	plan, err := s.plans.GetPlan(ctx, sess.OwnerID, planID)
	if err != nil {
		return nil, err
	}
	if currentWeek <= 0 {
		currentWeek = plan.ResumeWeek()
	}
	if !plan.InRange(currentWeek) {
		return nil, fmt.Errorf("%w: week %d outside 1..%d", ErrSchemaMismatch, currentWeek, plan.WeekCount)
	}

	days, err := s.progress.ListDays(ctx, sess.OwnerID, planID)
	if err != nil {
		return nil, fmt.Errorf("loading day progress: %w", err)
	}
	weeks, err := s.progress.ListWeeks(ctx, sess.OwnerID, planID)
	if err != nil {
		return nil, fmt.Errorf("loading week progress: %w", err)
	}
	daysByWeek := make(map[int]map[int]*domain.DayProgress)
	for _, d := range days {
		if daysByWeek[d.Week] == nil {
			daysByWeek[d.Week] = make(map[int]*domain.DayProgress)
		}
		daysByWeek[d.Week][d.DayIndex] = d
	}
	milestones := make(map[int]bool, len(weeks))
	for _, w := range weeks {
		milestones[w.Week] = w.MilestoneCompleted
	}

	stats := &PlanStats{
		PlanID:      planID,
		WeekCount:   plan.WeekCount,
		CurrentWeek: currentWeek,
		Weeks:       make([]domain.WeekCompletion, 0, len(plan.Weeks)),
	}
	completions := make(map[int]domain.WeekCompletion, len(plan.Weeks))
	var done, total int
	for i := range plan.Weeks {
		w := &plan.Weeks[i]
		c := domain.ComputeWeekCompletion(w, daysByWeek[w.Number], milestones[w.Number])
		stats.Weeks = append(stats.Weeks, c)
		completions[w.Number] = c
		if c.Complete() {
			stats.CompletedWeeks++
		}
		done += c.TasksDone + c.HabitsDone
		total += c.TasksTotal + c.HabitsTotal + 1
		if c.MilestoneCompleted {
			done++
		}
	}
	if total > 0 {
		stats.OverallPct = float64(done) / float64(total)
	}
	stats.Streak = domain.Streak(completions, currentWeek)
	return stats, nil
}

func (s *progressService) RecordReflection(ctx context.Context, sess *domain.Session, planID string, weekNum int, text string) (ref *domain.Reflection, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		observeUseCase(ctx, s.observer, "record-reflection", startedAt, map[string]any{"plan_id": planID, "week": weekNum}, err)
	}()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalidf("reflection text is required")
	}
	if len(text) > MaxReflectionLength {
		return nil, invalidf("reflection must be at most %d bytes", MaxReflectionLength)
	}
	if _, err = s.loadWeek(ctx, sess, planID, weekNum); err != nil {
		return nil, err
	}

	ref = &domain.Reflection{
		OwnerID:   sess.OwnerID,
		PlanID:    planID,
		Week:      weekNum,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err = s.reflections.Create(ctx, ref); err != nil {
		return nil, err
	}
	return ref, nil
}

func (s *progressService) ListReflections(ctx context.Context, sess *domain.Session, planID string, weekNum int) ([]*domain.Reflection, error) {
	if err := sess.Validate(); err != nil {
		return nil, invalidf("%v", err)
	}
	if _, err := s.plans.GetPlan(ctx, sess.OwnerID, planID); err != nil {
		return nil, err
	}
	return s.reflections.List(ctx, sess.OwnerID, planID, weekNum)
}

// loadWeek returns the generated week the owner is tracking.
func (s *progressService) loadWeek(ctx context.Context, sess *domain.Session, planID string, weekNum int) (*domain.Week, error) {
	if err := sess.Validate(); err != nil {
		return nil, invalidf("%v", err)
	}
	plan, err := s.plans.GetPlan(ctx, sess.OwnerID, planID)
	if err != nil {
		return nil, err
	}
	if !plan.InRange(weekNum) {
		return nil, fmt.Errorf("%w: week %d outside 1..%d", ErrSchemaMismatch, weekNum, plan.WeekCount)
	}
	week := plan.Week(weekNum)
	if week == nil {
		return nil, fmt.Errorf("week %d: %w", weekNum, ErrWeekNotGenerated)
	}
	return week, nil
}

func (s *progressService) withinTx(ctx context.Context, fn func(ctx context.Context, progress repository.ProgressRepo) error) error {
	if s.uow == nil {
		return fn(ctx, s.progress)
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, repository.NewSQLiteProgressRepo(tx))
	})
}

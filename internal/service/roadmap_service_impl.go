package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/alexanderramin/waypoint/internal/generation"
	"github.com/alexanderramin/waypoint/internal/planschema"
	"github.com/alexanderramin/waypoint/internal/repository"
)

// DefaultGenerationTimeout bounds one generation attempt.
const DefaultGenerationTimeout = 3 * time.Minute

// RoadmapOptions tunes the orchestrator. Zero values select defaults.
type RoadmapOptions struct {
	GenerationTimeout time.Duration
	// GenerationAttempts is the number of generate-and-validate rounds per
	// request. 1 disables retries.
	GenerationAttempts int
	// Logger receives cache degradation warnings.
	Logger *slog.Logger
}

type roadmapService struct {
	cache     repository.PlanCache
	generator generation.Generator
	timeout   time.Duration
	attempts  int
	logger    *slog.Logger
	observer  UseCaseObserver
	flights   singleflight.Group
}

func NewRoadmapService(
	cache repository.PlanCache,
	generator generation.Generator,
	opts RoadmapOptions,
	observers ...UseCaseObserver,
) RoadmapService {
	if opts.GenerationTimeout <= 0 {
		opts.GenerationTimeout = DefaultGenerationTimeout
	}
	if opts.GenerationAttempts <= 0 {
		opts.GenerationAttempts = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &roadmapService{
		cache:     cache,
		generator: generator,
		timeout:   opts.GenerationTimeout,
		attempts:  opts.GenerationAttempts,
		logger:    opts.Logger,
		observer:  useCaseObserverOrNoop(observers),
	}
}

func (s *roadmapService) GetOrCreateFullPlan(ctx context.Context, sess *domain.Session, req PlanRequest) (plan *domain.Plan, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"week_count": req.WeekCount, "tier": string(req.TimeCommitment)}
	defer func() {
		observeUseCase(ctx, s.observer, "get-or-create-plan", startedAt, fields, err)
	}()

	if err = sess.Validate(); err != nil {
		return nil, invalidf("%v", err)
	}
	if req, err = normalizePlanRequest(req); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("plan\x00%s\x00%s\x00%s\x00%d", sess.OwnerID, req.Goal, req.TimeCommitment, req.WeekCount)
	v, err := s.share(ctx, key, ScopePlan, 0, func(ctx context.Context) (any, error) {
		return s.resolvePlan(ctx, sess.OwnerID, req)
	})
	if err != nil {
		return nil, err
	}
	res := v.(resolved[*domain.Plan])
	fields["cache"] = res.cache
	plan = clonePlan(res.val)
	if plan.ID != "" {
		sess.SetActivePlan(plan.ID)
	}
	return plan, nil
}

// resolved is the shared result of a coalesced lookup; cache is "hit" or
// "miss".
type resolved[T any] struct {
	val   T
	cache string
}

func (s *roadmapService) resolvePlan(ctx context.Context, ownerID string, req PlanRequest) (resolved[*domain.Plan], error) {
	cached := s.lookupPlan(ctx, ownerID, req)
	if cached != nil && cached.Complete() {
		return resolved[*domain.Plan]{val: cached, cache: "hit"}, nil
	}

	greq := generation.Request{Goal: req.Goal, TimeCommitment: req.TimeCommitment, TotalWeeks: req.WeekCount}
	var weeks []domain.Week
	err := s.generate(ctx, func(ctx context.Context) error {
		raw, err := s.generator.GeneratePlan(ctx, greq)
		if err != nil {
			return err
		}
		weeks, err = planschema.NormalizePlan(raw)
		if err != nil {
			return err
		}
		if len(weeks) != req.WeekCount {
			return fmt.Errorf("%w: generated %d weeks, requested %d", ErrSchemaMismatch, len(weeks), req.WeekCount)
		}
		return nil
	})
	if err != nil {
		return resolved[*domain.Plan]{}, &GenerationFailedError{Scope: ScopePlan, Err: err}
	}

	now := time.Now().UTC()
	plan := &domain.Plan{
		OwnerID:        ownerID,
		Goal:           req.Goal,
		TimeCommitment: req.TimeCommitment,
		WeekCount:      req.WeekCount,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if cached != nil {
		// Weeks already served lazily keep their cached content.
		plan.ID = cached.ID
		plan.CreatedAt = cached.CreatedAt
		plan.LastViewedWeek = cached.LastViewedWeek
		plan.Weeks = cached.Weeks
	}
	for _, w := range weeks {
		if plan.Week(w.Number) == nil {
			plan.PutWeek(w)
		}
	}

	id, err := s.cache.Store(ctx, ownerID, req.Goal, req.TimeCommitment, req.WeekCount, plan)
	if err != nil {
		s.logger.WarnContext(ctx, "plan cache write failed", "owner_id", ownerID, "error", err)
	} else {
		plan.ID = id
	}
	return resolved[*domain.Plan]{val: plan, cache: "miss"}, nil
}

// lookupPlan reads the plan for req, treating a failed read as a miss.
func (s *roadmapService) lookupPlan(ctx context.Context, ownerID string, req PlanRequest) *domain.Plan {
	p, err := s.cache.Lookup(ctx, ownerID, req.Goal, req.TimeCommitment, req.WeekCount)
	if err != nil {
		s.logger.WarnContext(ctx, "plan cache read failed", "owner_id", ownerID, "error", err)
		return nil
	}
	return p
}

func (s *roadmapService) StartPlan(ctx context.Context, sess *domain.Session, req PlanRequest) (plan *domain.Plan, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"week_count": req.WeekCount, "tier": string(req.TimeCommitment)}
	defer func() {
		observeUseCase(ctx, s.observer, "start-plan", startedAt, fields, err)
	}()

	if err = sess.Validate(); err != nil {
		return nil, invalidf("%v", err)
	}
	if req, err = normalizePlanRequest(req); err != nil {
		return nil, err
	}

	plan, err = s.cache.Lookup(ctx, sess.OwnerID, req.Goal, req.TimeCommitment, req.WeekCount)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		now := time.Now().UTC()
		plan = &domain.Plan{
			OwnerID:        sess.OwnerID,
			Goal:           req.Goal,
			TimeCommitment: req.TimeCommitment,
			WeekCount:      req.WeekCount,
			Weeks:          []domain.Week{},
			LastViewedWeek: 1,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if plan.ID, err = s.cache.Store(ctx, sess.OwnerID, req.Goal, req.TimeCommitment, req.WeekCount, plan); err != nil {
			return nil, err
		}
	}
	fields["plan_id"] = plan.ID
	sess.SetActivePlan(plan.ID)
	return plan, nil
}

func (s *roadmapService) GetOrCreateWeek(ctx context.Context, sess *domain.Session, req WeekRequest) (week *domain.Week, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"week": req.Week, "plan_id": req.PlanID}
	defer func() {
		observeUseCase(ctx, s.observer, "get-or-create-week", startedAt, fields, err)
	}()

	if err = sess.Validate(); err != nil {
		return nil, invalidf("%v", err)
	}
	// Bounds are checked against the caller's view first so an out-of-range
	// week never reaches the cache or the generator.
	if req.WeekCount > 0 && (req.Week < 1 || req.Week > req.WeekCount) {
		return nil, fmt.Errorf("%w: week %d outside 1..%d", ErrSchemaMismatch, req.Week, req.WeekCount)
	}

	planID, preq, err := s.resolveWeekPlan(ctx, sess.OwnerID, req)
	if err != nil {
		return nil, err
	}
	if req.Week < 1 || req.Week > preq.WeekCount {
		return nil, fmt.Errorf("%w: week %d outside 1..%d", ErrSchemaMismatch, req.Week, preq.WeekCount)
	}
	fields["plan_id"] = planID

	key := fmt.Sprintf("week\x00%s\x00%s\x00%s\x00%s\x00%d\x00%d", sess.OwnerID, planID, preq.Goal, preq.TimeCommitment, preq.WeekCount, req.Week)
	v, err := s.share(ctx, key, ScopeWeek, req.Week, func(ctx context.Context) (any, error) {
		return s.resolveWeek(ctx, planID, preq, req.Week)
	})
	if err != nil {
		return nil, err
	}
	res := v.(resolved[*domain.Week])
	fields["cache"] = res.cache
	w := *res.val

	if planID != "" && !req.Prefetch {
		if err := s.cache.SetLastViewedWeek(ctx, sess.OwnerID, planID, req.Week); err != nil {
			s.logger.DebugContext(ctx, "recording last viewed week failed", "plan_id", planID, "error", err)
		}
	}
	return &w, nil
}

// resolveWeekPlan returns the plan id and authoritative plan parameters for
// req. A stored plan wins over the request; without a plan id the sparse
// plan row is created so the week has somewhere to live. An empty id means
// the cache is unavailable and the week is served uncached.
func (s *roadmapService) resolveWeekPlan(ctx context.Context, ownerID string, req WeekRequest) (string, PlanRequest, error) {
	if req.PlanID != "" {
		p, err := s.cache.GetPlan(ctx, ownerID, req.PlanID)
		switch {
		case err == nil:
			return p.ID, PlanRequest{Goal: p.Goal, TimeCommitment: p.TimeCommitment, WeekCount: p.WeekCount}, nil
		case errors.Is(err, repository.ErrNotFound):
			return "", PlanRequest{}, err
		default:
			s.logger.WarnContext(ctx, "plan cache read failed", "plan_id", req.PlanID, "error", err)
		}
	}

	preq, err := normalizePlanRequest(PlanRequest{Goal: req.Goal, TimeCommitment: req.TimeCommitment, WeekCount: req.WeekCount})
	if err != nil {
		return "", PlanRequest{}, err
	}
	if req.PlanID != "" {
		return req.PlanID, preq, nil
	}

	if p := s.lookupPlan(ctx, ownerID, preq); p != nil {
		return p.ID, preq, nil
	}
	now := time.Now().UTC()
	sparse := &domain.Plan{
		OwnerID:        ownerID,
		Goal:           preq.Goal,
		TimeCommitment: preq.TimeCommitment,
		WeekCount:      preq.WeekCount,
		Weeks:          []domain.Week{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	id, err := s.cache.Store(ctx, ownerID, preq.Goal, preq.TimeCommitment, preq.WeekCount, sparse)
	if err != nil {
		s.logger.WarnContext(ctx, "plan cache write failed", "owner_id", ownerID, "error", err)
		return "", preq, nil
	}
	return id, preq, nil
}

func (s *roadmapService) resolveWeek(ctx context.Context, planID string, preq PlanRequest, n int) (resolved[*domain.Week], error) {
	if planID != "" {
		cached, err := s.cache.LookupWeek(ctx, planID, n)
		if err != nil {
			s.logger.WarnContext(ctx, "week cache read failed", "plan_id", planID, "week", n, "error", err)
		} else if cached != nil {
			return resolved[*domain.Week]{val: cached, cache: "hit"}, nil
		}
	}

	greq := generation.Request{Goal: preq.Goal, TimeCommitment: preq.TimeCommitment, Week: n, TotalWeeks: preq.WeekCount}
	var week *domain.Week
	err := s.generate(ctx, func(ctx context.Context) error {
		raw, err := s.generator.GenerateWeek(ctx, greq)
		if err != nil {
			return err
		}
		week, err = planschema.NormalizeWeek(raw, n)
		return err
	})
	if err != nil {
		return resolved[*domain.Week]{}, &GenerationFailedError{Scope: ScopeWeek, Week: n, Err: err}
	}

	if planID != "" {
		if err := s.cache.StoreWeek(ctx, planID, n, week); err != nil {
			s.logger.WarnContext(ctx, "week cache write failed", "plan_id", planID, "week", n, "error", err)
		}
	}
	return resolved[*domain.Week]{val: week, cache: "miss"}, nil
}

func (s *roadmapService) GetPlan(ctx context.Context, sess *domain.Session, planID string) (*domain.Plan, error) {
	if err := sess.Validate(); err != nil {
		return nil, invalidf("%v", err)
	}
	return s.cache.GetPlan(ctx, sess.OwnerID, planID)
}

func (s *roadmapService) ListPlans(ctx context.Context, sess *domain.Session) ([]*domain.Plan, error) {
	if err := sess.Validate(); err != nil {
		return nil, invalidf("%v", err)
	}
	return s.cache.ListPlans(ctx, sess.OwnerID)
}

func (s *roadmapService) DeletePlan(ctx context.Context, sess *domain.Session, planID string) (err error) {
	startedAt := time.Now().UTC()
	defer func() {
		observeUseCase(ctx, s.observer, "delete-plan", startedAt, map[string]any{"plan_id": planID}, err)
	}()

	if err = sess.Validate(); err != nil {
		return invalidf("%v", err)
	}
	if err = s.cache.DeletePlan(ctx, sess.OwnerID, planID); err != nil {
		return err
	}
	sess.ClearActivePlan(planID)
	return nil
}

// generate runs fn up to s.attempts times, each under its own timeout.
// A cancelled parent context stops further attempts.
func (s *roadmapService) generate(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		actx, cancel := context.WithTimeout(ctx, s.timeout)
		err := fn(actx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return lastErr
		}
		if attempt < s.attempts {
			s.logger.InfoContext(ctx, "retrying generation", "attempt", attempt, "error", err)
		}
	}
	return lastErr
}

// share coalesces concurrent calls for key. The shared work runs detached
// from any single caller's cancellation; a caller whose context ends stops
// waiting and the result, if it lands, is still cached.
func (s *roadmapService) share(ctx context.Context, key, scope string, week int, fn func(ctx context.Context) (any, error)) (any, error) {
	ch := s.flights.DoChan(key, func() (any, error) {
		return fn(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, &GenerationFailedError{Scope: scope, Week: week, Err: ctx.Err()}
	}
}

func normalizePlanRequest(req PlanRequest) (PlanRequest, error) {
	goal, err := domain.NormalizeGoal(req.Goal)
	if err != nil {
		return req, invalidf("%v", err)
	}
	tc, err := domain.ParseTimeCommitment(string(req.TimeCommitment))
	if err != nil {
		return req, invalidf("%v", err)
	}
	if err := domain.ValidateWeekCount(req.WeekCount); err != nil {
		return req, invalidf("%v", err)
	}
	return PlanRequest{Goal: goal, TimeCommitment: tc, WeekCount: req.WeekCount}, nil
}

// clonePlan copies the top-level plan and its week slice so coalesced
// callers do not share one mutable value.
func clonePlan(p *domain.Plan) *domain.Plan {
	c := *p
	c.Weeks = append([]domain.Week(nil), p.Weeks...)
	if c.Weeks == nil {
		c.Weeks = []domain.Week{}
	}
	return &c
}

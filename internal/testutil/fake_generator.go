package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/alexanderramin/waypoint/internal/generation"
)

// FakeGenerator is a generation.Generator that returns canned wire text and
// counts calls. By default it answers with WeekJSON and PlanJSON fixtures.
type FakeGenerator struct {
	// WeekFunc overrides the default week response when set.
	WeekFunc func(req generation.Request) (string, error)
	// PlanFunc overrides the default plan response when set.
	PlanFunc func(req generation.Request) (string, error)
	// Delay is applied before each response; a cancelled ctx cuts it short.
	Delay time.Duration

	mu        sync.Mutex
	weekCalls map[int]int
	planCalls int
}

var _ generation.Generator = (*FakeGenerator)(nil)

func (f *FakeGenerator) GenerateWeek(ctx context.Context, req generation.Request) (string, error) {
	f.mu.Lock()
	if f.weekCalls == nil {
		f.weekCalls = make(map[int]int)
	}
	f.weekCalls[req.Week]++
	f.mu.Unlock()

	if err := f.wait(ctx); err != nil {
		return "", &generation.GenerationError{Op: generation.OpWeek, Err: err}
	}
	if f.WeekFunc != nil {
		return f.WeekFunc(req)
	}
	return WeekJSON(req.Week), nil
}

func (f *FakeGenerator) GeneratePlan(ctx context.Context, req generation.Request) (string, error) {
	f.mu.Lock()
	f.planCalls++
	f.mu.Unlock()

	if err := f.wait(ctx); err != nil {
		return "", &generation.GenerationError{Op: generation.OpPlan, Err: err}
	}
	if f.PlanFunc != nil {
		return f.PlanFunc(req)
	}
	return PlanJSON(req.TotalWeeks), nil
}

func (f *FakeGenerator) wait(ctx context.Context) error {
	if f.Delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(f.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WeekCalls returns how many times week n was requested.
func (f *FakeGenerator) WeekCalls(n int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.weekCalls[n]
}

// TotalWeekCalls returns the number of GenerateWeek calls across all weeks.
func (f *FakeGenerator) TotalWeekCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.weekCalls {
		total += n
	}
	return total
}

// PlanCalls returns the number of GeneratePlan calls.
func (f *FakeGenerator) PlanCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.planCalls
}

// Package generation calls the upstream text-generation service and returns
// its raw output. It performs no caching, parsing or retries.
package generation

import (
	"context"

	"github.com/alexanderramin/waypoint/internal/domain"
)

// Request carries the inputs for one generation call. Week is ignored by
// GeneratePlan.
type Request struct {
	Goal           string
	TimeCommitment domain.TimeCommitment
	Week           int
	TotalWeeks     int
}

// Generator produces raw, unvalidated plan text.
type Generator interface {
	// GenerateWeek returns the text for a single week of the plan.
	GenerateWeek(ctx context.Context, req Request) (string, error)

	// GeneratePlan returns the text for every week of the plan.
	GeneratePlan(ctx context.Context, req Request) (string, error)
}

// Operation names reported on GenerationError.
const (
	OpWeek = "week"
	OpPlan = "plan"
)

package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest indicates malformed caller input.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrSchemaMismatch indicates a week number or week count that disagrees
	// with the plan's shape.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrWeekNotGenerated indicates progress was recorded against a week that
	// has not been generated yet.
	ErrWeekNotGenerated = errors.New("week not generated")

	// ErrGenerationFailed is matched by every GenerationFailedError.
	ErrGenerationFailed = errors.New("generation failed")
)

// Generation scopes reported on GenerationFailedError.
const (
	ScopePlan = "plan"
	ScopeWeek = "week"
)

// GenerationFailedError reports that a plan or a single week could not be
// produced. Err is the generation, parse or shape error underneath; the
// caller can retry just the failed scope.
type GenerationFailedError struct {
	Scope string
	Week  int
	Err   error
}

func (e *GenerationFailedError) Error() string {
	if e.Scope == ScopeWeek {
		return fmt.Sprintf("%s for week %d: %v", ErrGenerationFailed, e.Week, e.Err)
	}
	return fmt.Sprintf("%s for plan: %v", ErrGenerationFailed, e.Err)
}

func (e *GenerationFailedError) Is(target error) bool {
	return target == ErrGenerationFailed
}

func (e *GenerationFailedError) Unwrap() error {
	return e.Err
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

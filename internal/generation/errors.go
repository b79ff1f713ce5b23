package generation

import (
	"errors"
	"fmt"
)

// ErrGeneration is matched by every GenerationError.
var ErrGeneration = errors.New("generation failed")

// GenerationError reports a failed upstream call. Status is the HTTP status
// when the service answered, zero otherwise.
type GenerationError struct {
	Op     string
	Status int
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s: status %d: %v", ErrGeneration, e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrGeneration, e.Op, e.Err)
}

func (e *GenerationError) Is(target error) bool {
	return target == ErrGeneration
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

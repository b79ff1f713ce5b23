package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested row does not exist for the owner.
	ErrNotFound = errors.New("not found")

	// ErrCacheUnavailable indicates the plan store could not be read or written.
	ErrCacheUnavailable = errors.New("plan cache unavailable")
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrCacheUnavailable, err)
}

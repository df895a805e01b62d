// Package apperr defines the engine's error taxonomy. Callers classify
// failures with errors.Is against the three sentinels.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable marks a capability whose backing service is not
	// configured or not reachable.
	ErrUnavailable = errors.New("capability unavailable")

	// ErrNotFound marks a missing entity, such as an unknown job id.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks a request the caller needs to fix.
	ErrValidation = errors.New("validation failed")
)

func Unavailablef(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrUnavailable)...)
}

func NotFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

func Validationf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

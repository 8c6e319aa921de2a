package domain

import "errors"

var (
	// ErrInvalidInput marks caller errors: unknown mode, empty input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrGenerationFailure marks a model call that produced no usable
	// structured output.
	ErrGenerationFailure = errors.New("generation failure")

	// ErrCancelled marks a turn aborted by cancellation or timeout.
	ErrCancelled = errors.New("cancelled")

	ErrNotFound = errors.New("not found")
)

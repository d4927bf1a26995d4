package store

import "errors"

// Error taxonomy for the assignment state machine. Handlers map these onto
// HTTP status codes; the worker decides retry behavior from them.
var (
	// ErrNotFound is returned when the referenced assignment does not exist.
	ErrNotFound = errors.New("assignment not found")

	// ErrAlreadyInProgress is returned when a claim races another claim.
	// It is a benign race: callers must treat it as a no-op.
	ErrAlreadyInProgress = errors.New("assignment already in progress")

	// ErrInvalidTransition is returned when an operation is applied to an
	// assignment whose current status does not permit it.
	ErrInvalidTransition = errors.New("invalid assignment status transition")

	// ErrRetryExhausted is returned when a retry is requested for an
	// assignment whose attempts already reached the configured maximum.
	ErrRetryExhausted = errors.New("assignment retry attempts exhausted")

	// ErrInvalidState is returned when a retry is requested for an
	// assignment that is not in the failed state.
	ErrInvalidState = errors.New("assignment is not retryable in its current state")
)

package models

import "errors"

// Error taxonomy for the job pipeline. Intake and admission errors return
// synchronously to the caller; engine errors end up as the job's terminal
// detail. Wrap with fmt.Errorf("...: %w", err) to add context.
var (
	// ErrInvalidInput marks an unresolvable media reference or malformed
	// options. Surfaced immediately, never enqueued.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCapacityExceeded is returned by Submit when pending+running is at
	// the configured maximum. The caller may retry later.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrUnsupportedFormat means no registered strategy handles the input.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrSizeConstraintUnmet means no achievable encode fits the requested
	// maximum output size.
	ErrSizeConstraintUnmet = errors.New("size constraint unmet")

	// ErrExecutionFailure wraps an underlying tool or process error. The
	// only engine error the scheduler will retry.
	ErrExecutionFailure = errors.New("execution failure")

	// ErrCancelTimeout marks a running job force-terminated after the
	// cancellation grace period expired without engine acknowledgment.
	ErrCancelTimeout = errors.New("cancellation timeout")

	// ErrJobNotFound is returned for an unknown job id.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobTerminal is returned when acting on a job already in a
	// terminal state.
	ErrJobTerminal = errors.New("job already terminal")
)

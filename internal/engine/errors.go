package engine

import (
	"errors"
	"fmt"
)

// ResolutionErrorCode categorizes resolution failures.
type ResolutionErrorCode string

const (
	// ErrCodeMalformedReference indicates a reference without a container
	// path or with empty segments.
	ErrCodeMalformedReference ResolutionErrorCode = "MALFORMED_REFERENCE"

	// ErrCodeContainerNotFound indicates no unit is registered under the
	// reference's container path.
	ErrCodeContainerNotFound ResolutionErrorCode = "CONTAINER_NOT_FOUND"

	// ErrCodeUnitNotFound indicates the container exists but has no unit
	// with the reference's leaf name.
	ErrCodeUnitNotFound ResolutionErrorCode = "UNIT_NOT_FOUND"
)

// ResolutionError reports a configured reference that cannot be resolved.
// Resolution errors are configuration errors and are never retried.
type ResolutionError struct {
	// Code identifies the failure category.
	Code ResolutionErrorCode

	// Ref is the reference as written in the configuration.
	Ref string

	// Index is the position of the step in the configuration, or -1 when
	// the reference was resolved outside a pipeline.
	Index int
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s: cannot resolve %q (step %d)", e.Code, e.Ref, e.Index)
	}
	return fmt.Sprintf("%s: cannot resolve %q", e.Code, e.Ref)
}

// StepExecutionError reports a unit that failed while running.
// Mutations made by earlier steps are left in place.
type StepExecutionError struct {
	// Index is the position of the failing step in the configuration.
	Index int

	// Ref is the failing step's reference.
	Ref string

	// Err is the error returned (or panic recovered) from the unit.
	Err error
}

// Error implements the error interface.
func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("STEP_FAILED: step %d (%s): %v", e.Index, e.Ref, e.Err)
}

// Unwrap returns the unit's error.
func (e *StepExecutionError) Unwrap() error {
	return e.Err
}

// Stage names the phase of a run an interruption arrived in.
type Stage string

const (
	// StageExtraction is the archive extraction phase.
	StageExtraction Stage = "extraction"

	// StageExecution is the step execution phase.
	StageExecution Stage = "execution"
)

// InterruptedError reports a run stopped by context cancellation, which
// the CLI triggers on SIGINT/SIGTERM.
type InterruptedError struct {
	// Stage is the phase that was interrupted.
	Stage Stage

	// Index is the archive (extraction) or step (execution) that would
	// have run next.
	Index int

	// Err is the context error.
	Err error
}

// Error implements the error interface.
func (e *InterruptedError) Error() string {
	return fmt.Sprintf("INTERRUPTED: during %s before item %d: %v", e.Stage, e.Index, e.Err)
}

// Unwrap returns the context error.
func (e *InterruptedError) Unwrap() error {
	return e.Err
}

// IsResolutionError returns true if err is or wraps a ResolutionError.
func IsResolutionError(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}

// IsStepError returns true if err is or wraps a StepExecutionError.
func IsStepError(err error) bool {
	var se *StepExecutionError
	return errors.As(err, &se)
}

// IsInterrupted returns true if err is or wraps an InterruptedError.
func IsInterrupted(err error) bool {
	var ie *InterruptedError
	return errors.As(err, &ie)
}

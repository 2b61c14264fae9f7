package matcher

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes a match call can report.
var (
	// ErrInvalidArgument is returned for a missing abbreviation, a nil collaborator or a negative limit.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAllocation is returned when the scoring buffer cannot be allocated.
	ErrAllocation = errors.New("allocation failure")

	// ErrConcurrency is returned when a scoring worker fails before the join.
	ErrConcurrency = errors.New("concurrency failure")
)

// ArgumentError names the argument that failed validation.
type ArgumentError struct {
	Name   string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument '%s': %s", e.Name, e.Reason)
}

func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// NewArgumentError creates a new ArgumentError
func NewArgumentError(name, reason string) *ArgumentError {
	return &ArgumentError{Name: name, Reason: reason}
}

// AllocationError reports the buffer size that could not be allocated.
type AllocationError struct {
	Size  int
	Cause any
}

func (e *AllocationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("match buffer of %d entries could not be allocated: %v", e.Size, e.Cause)
	}
	return fmt.Sprintf("match buffer of %d entries could not be allocated", e.Size)
}

func (e *AllocationError) Is(target error) bool {
	return target == ErrAllocation
}

// WorkerError wraps the failure of a single scoring worker.
type WorkerError struct {
	Worker int
	Err    error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("scoring worker %d failed: %v", e.Worker, e.Err)
}

func (e *WorkerError) Unwrap() error {
	return e.Err
}

func (e *WorkerError) Is(target error) bool {
	return target == ErrConcurrency
}

// IsInvalidArgument reports whether err is (or wraps) an invalid-argument failure.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

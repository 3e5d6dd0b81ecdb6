package engine

import (
	"context"
	"errors"
	"fmt"
)

// RuntimeError represents a failure detected while a program runs.
//
// Runtime errors include:
//   - Out of range: pointer left the tape under PointerFail
//   - I/O failure: reading input or writing output failed
//
// RuntimeError includes structured fields for diagnostics.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Pointer is the data pointer when the error was raised.
	Pointer int

	// Step is the step number of the failing instruction.
	Step int64

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeOutOfRange indicates a pointer move outside the tape.
	ErrCodeOutOfRange RuntimeErrorCode = "OUT_OF_RANGE"

	// ErrCodeIOFailure indicates an input or output failure.
	ErrCodeIOFailure RuntimeErrorCode = "IO_FAILURE"

	// ErrCodeStepsExceeded indicates the step quota ran out.
	ErrCodeStepsExceeded RuntimeErrorCode = "STEPS_EXCEEDED"

	// ErrCodeCancelled indicates the run context was cancelled or timed out.
	ErrCodeCancelled RuntimeErrorCode = "CANCELLED"

	// ErrCodeUnknown is reported for failures that carry no code.
	ErrCodeUnknown RuntimeErrorCode = "ERROR"
)

// ErrorCode classifies a failure returned by Run or Execute. Returns "" for
// nil.
func ErrorCode(err error) RuntimeErrorCode {
	if err == nil {
		return ""
	}
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	if IsStepsExceededError(err) {
		return ErrCodeStepsExceeded
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrCodeCancelled
	}
	return ErrCodeUnknown
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (step=%d, pointer=%d): %v", e.Code, e.Message, e.Step, e.Pointer, e.Err)
	}
	return fmt.Sprintf("%s: %s (step=%d, pointer=%d)", e.Code, e.Message, e.Step, e.Pointer)
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsOutOfRange returns true if the error is a pointer bounds failure.
// Uses errors.As to handle wrapped errors.
func IsOutOfRange(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeOutOfRange
	}
	return false
}

// IsIOFailure returns true if the error is an input/output failure.
// Uses errors.As to handle wrapped errors.
func IsIOFailure(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeIOFailure
	}
	return false
}

// NewOutOfRangeError creates a RuntimeError for a move to target.
func NewOutOfRangeError(target, tapeSize, pointer int, step int64) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeOutOfRange,
		Message: fmt.Sprintf("pointer moved to %d outside tape [0, %d)", target, tapeSize),
		Pointer: pointer,
		Step:    step,
	}
}

// NewIOError creates a RuntimeError for a failed read or write.
func NewIOError(op string, pointer int, step int64, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeIOFailure,
		Message: op + " failed",
		Pointer: pointer,
		Step:    step,
		Err:     err,
	}
}

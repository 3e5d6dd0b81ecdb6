package engine

import (
	"errors"
	"fmt"
)

// stepQuota counts executed steps and enforces an optional limit.
//
// A step is one primitive instruction or one loop test. The count is also
// what Outcome.Steps reports, so it runs even without a limit.
type stepQuota struct {
	maxSteps int64 // 0 means unlimited
	current  int64
}

func newStepQuota(maxSteps int64) *stepQuota {
	return &stepQuota{maxSteps: maxSteps}
}

// Check increments the step counter and validates against the limit.
// Returns StepsExceededError if the quota is exceeded; the refused step is
// not counted.
func (q *stepQuota) Check() error {
	q.current++
	if q.maxSteps > 0 && q.current > q.maxSteps {
		q.current--
		return &StepsExceededError{
			Steps: q.current + 1,
			Limit: q.maxSteps,
		}
	}
	return nil
}

// Reset resets the step counter to 0.
func (q *stepQuota) Reset() {
	q.current = 0
}

// Current returns the current step count.
func (q *stepQuota) Current() int64 {
	return q.current
}

// StepsExceededError is returned when a run exceeds WithMaxSteps.
// The step that would exceed the limit is not executed.
type StepsExceededError struct {
	Steps int64 // Step number that was refused
	Limit int64 // Maximum allowed steps
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("exceeded max steps quota: %d steps > %d limit", e.Steps, e.Limit)
}

// IsStepsExceededError returns true if the error is a StepsExceededError.
// Uses errors.As to handle wrapped errors.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStepQuota_WithinLimit tests normal operation within quota.
func TestStepQuota_WithinLimit(t *testing.T) {
	q := newStepQuota(10)

	for i := 0; i < 10; i++ {
		assert.NoError(t, q.Check(), "step %d should be allowed", i+1)
	}
	assert.Equal(t, int64(10), q.Current())
}

// TestStepQuota_ExceedsLimit tests that the refused step is reported but not counted.
func TestStepQuota_ExceedsLimit(t *testing.T) {
	q := newStepQuota(5)

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Check())
	}

	err := q.Check()
	require.Error(t, err)

	var stepsErr *StepsExceededError
	require.ErrorAs(t, err, &stepsErr)
	assert.Equal(t, int64(6), stepsErr.Steps)
	assert.Equal(t, int64(5), stepsErr.Limit)
	assert.Equal(t, int64(5), q.Current())
	assert.Contains(t, err.Error(), "6 steps > 5 limit")
}

func TestStepQuota_Unlimited(t *testing.T) {
	q := newStepQuota(0)
	for i := 0; i < 100000; i++ {
		require.NoError(t, q.Check())
	}
	assert.Equal(t, int64(100000), q.Current())
}

func TestStepQuota_Reset(t *testing.T) {
	q := newStepQuota(5)
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Check())
	}
	q.Reset()
	assert.Equal(t, int64(0), q.Current())
	assert.NoError(t, q.Check())
}

func TestIsStepsExceededError(t *testing.T) {
	err := &StepsExceededError{Steps: 3, Limit: 2}
	assert.True(t, IsStepsExceededError(err))
	assert.True(t, IsStepsExceededError(wrapErr(err)))
	assert.False(t, IsStepsExceededError(NewIOError("read input", 0, 1, nil)))
}

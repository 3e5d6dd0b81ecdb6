package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestEvaluate_AllPass(t *testing.T) {
	result := &Result{Output: []byte("ok"), Steps: 4, Pointer: 2, Tape: []byte{0, 5, 9}}
	errs := Evaluate(result, Expect{
		Output:  ptr("ok"),
		Steps:   ptr(int64(4)),
		Pointer: ptr(2),
		Cells:   map[int]int{1: 5, 2: 9},
	})
	assert.Empty(t, errs)
}

func TestEvaluate_ErrorCodeMismatch(t *testing.T) {
	errs := Evaluate(&Result{ErrorCode: "IO_FAILURE"}, Expect{Error: "OUT_OF_RANGE"})
	require.Len(t, errs, 1)
	assert.Equal(t, "error", errs[0].Field)
	assert.Equal(t, "OUT_OF_RANGE", errs[0].Expected)
	assert.Equal(t, "IO_FAILURE", errs[0].Actual)
}

func TestEvaluate_CellsOrderedAndBounded(t *testing.T) {
	errs := Evaluate(&Result{Tape: []byte{1, 2}}, Expect{Cells: map[int]int{5: 0, 1: 3, 0: 9}})
	require.Len(t, errs, 3)
	assert.Equal(t, "cells[0]", errs[0].Field)
	assert.Equal(t, "cells[1]", errs[1].Field)
	assert.Equal(t, "cells[5]", errs[2].Field)
	assert.Equal(t, "no such cell (tape has 2)", errs[2].Actual)
}

func TestEvaluate_OutputBytes(t *testing.T) {
	errs := Evaluate(&Result{Output: []byte{0, 255}}, Expect{OutputBytes: []int{0, 254}})
	require.Len(t, errs, 1)
	assert.Equal(t, `"\x00\xfe" (2 bytes)`, errs[0].Expected)
	assert.Equal(t, `"\x00\xff" (2 bytes)`, errs[0].Actual)
}

func TestEvaluate_Diagnostics(t *testing.T) {
	errs := Evaluate(&Result{}, Expect{Diagnostics: ptr(1)})
	require.Len(t, errs, 1)
	assert.Equal(t, "diagnostics", errs[0].Field)
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{Field: "steps", Expected: "4", Actual: "5"}
	assert.Equal(t, "Assertion failed: steps\n  Expected: 4\n  Actual: 5\n", err.Error())
}

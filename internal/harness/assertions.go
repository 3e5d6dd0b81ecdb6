package harness

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// AssertionError is returned when an expectation fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Field    string // Expect field that failed
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Field)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	return buf.String()
}

// evaluate checks every expectation against the result and records
// failures on it.
func evaluate(result *Result, expect Expect) {
	for _, err := range Evaluate(result, expect) {
		result.AddError(err.Error())
	}
}

// Evaluate returns one AssertionError per failed expectation, in a fixed
// field order.
func Evaluate(result *Result, expect Expect) []*AssertionError {
	var errs []*AssertionError

	if result.ErrorCode != expect.Error {
		errs = append(errs, &AssertionError{
			Field:    "error",
			Expected: describeCode(expect.Error),
			Actual:   describeCode(result.ErrorCode),
		})
	}

	if expect.Diagnostics != nil && len(result.Diagnostics) != *expect.Diagnostics {
		errs = append(errs, &AssertionError{
			Field:    "diagnostics",
			Expected: fmt.Sprintf("%d diagnostics", *expect.Diagnostics),
			Actual:   fmt.Sprintf("%d diagnostics %v", len(result.Diagnostics), result.Diagnostics),
		})
	}

	if expect.Output != nil {
		if err := assertOutput(result.Output, []byte(*expect.Output)); err != nil {
			errs = append(errs, err)
		}
	}
	if expect.OutputBytes != nil {
		if err := assertOutput(result.Output, intsToBytes(expect.OutputBytes)); err != nil {
			errs = append(errs, err)
		}
	}

	if expect.Pointer != nil && result.Pointer != *expect.Pointer {
		errs = append(errs, &AssertionError{
			Field:    "pointer",
			Expected: strconv.Itoa(*expect.Pointer),
			Actual:   strconv.Itoa(result.Pointer),
		})
	}

	if expect.Steps != nil && result.Steps != *expect.Steps {
		errs = append(errs, &AssertionError{
			Field:    "steps",
			Expected: strconv.FormatInt(*expect.Steps, 10),
			Actual:   strconv.FormatInt(result.Steps, 10),
		})
	}

	errs = append(errs, assertCells(result.Tape, expect.Cells)...)
	return errs
}

func assertOutput(actual, expected []byte) *AssertionError {
	if bytes.Equal(actual, expected) {
		return nil
	}
	return &AssertionError{
		Field:    "output",
		Expected: fmt.Sprintf("%q (%d bytes)", expected, len(expected)),
		Actual:   fmt.Sprintf("%q (%d bytes)", actual, len(actual)),
	}
}

// assertCells checks cells in ascending index order so failures list
// deterministically.
func assertCells(tape []byte, cells map[int]int) []*AssertionError {
	indexes := make([]int, 0, len(cells))
	for idx := range cells {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	var errs []*AssertionError
	for _, idx := range indexes {
		want := cells[idx]
		field := fmt.Sprintf("cells[%d]", idx)
		if idx >= len(tape) {
			errs = append(errs, &AssertionError{
				Field:    field,
				Expected: strconv.Itoa(want),
				Actual:   fmt.Sprintf("no such cell (tape has %d)", len(tape)),
			})
			continue
		}
		if int(tape[idx]) != want {
			errs = append(errs, &AssertionError{
				Field:    field,
				Expected: strconv.Itoa(want),
				Actual:   strconv.Itoa(int(tape[idx])),
			})
		}
	}
	return errs
}

func describeCode(code string) string {
	if code == "" {
		return "success"
	}
	return code
}

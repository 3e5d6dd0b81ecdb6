// Package engine executes an ir.Program against a fixed-size byte tape.
//
// ARCHITECTURE:
//
// A Machine owns one Tape, one Pointer, an input source and an output sink.
// Run walks the Program tree sequentially through ir.Visitor; there is no
// concurrency and nothing suspends except on input and output.
//
// Memory model:
//   - Cells are bytes; AddCell wraps modulo 256
//   - The tape is zero-filled at New and at Reset
//   - Pointer starts at 0; PointerPolicy decides what leaving the tape means
//
// Loop semantics:
// The current cell is tested immediately before every iteration, including
// the first. A loop entered on a zero cell never runs its body.
//
// Failure model:
//   - OUT_OF_RANGE: pointer left the tape under PointerFail
//   - IO_FAILURE: input read or output write failed (not input EOF)
//   - StepsExceededError: the run hit WithMaxSteps
//
// A failing instruction never applies partially: the check happens first,
// then the tape or pointer changes. Output written before the failure is
// flushed.
package engine

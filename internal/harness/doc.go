// Package harness runs YAML conformance scenarios against the compiler and
// engine.
//
// # Scenario Format
//
//	name: loop_to_zero
//	description: "a loop exits once its cell reaches zero"
//	source: "+[-]+."            # or source_file: relative/path.b
//	input: "text"               # or input_bytes: [0, 255]
//	config:                     # any config.File keys
//	  pointer_policy: fail
//	expect:
//	  output: "\x01"            # or output_bytes: [1]
//	  cells: {0: 1}
//	  pointer: 0
//	  steps: 6
//	  error: ""                 # error code, e.g. OUT_OF_RANGE
//	trace: true                 # record steps for golden comparison
//
// Every expect field is optional; only the fields present are checked.
//
// # Deterministic Testing
//
// Each scenario runs against a fresh in-memory SQLite store with a fixed
// run id, and its output and final state are read back from the stored
// run. Two executions of one scenario produce byte-identical snapshots,
// which RunWithGolden compares against testdata/golden.
package harness

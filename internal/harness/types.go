package harness

import (
	"github.com/roach88/bfc/internal/compiler"
	"github.com/roach88/bfc/internal/engine"
)

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	RunID       string `json:"run_id"`
	ProgramHash string `json:"program_hash,omitempty"`

	// Output, Steps and Pointer are read back from the recorded run.
	Output  []byte `json:"output"`
	Steps   int64  `json:"steps"`
	Pointer int    `json:"pointer"`
	Tape    []byte `json:"-"`

	// ErrorCode classifies the failure, empty on success.
	ErrorCode string `json:"error_code,omitempty"`

	Diagnostics []compiler.Diagnostic `json:"diagnostics"`

	// Trace contains every executed step when the scenario asked for it.
	Trace []engine.TraceEvent `json:"trace,omitempty"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(runID string) *Result {
	return &Result{
		Pass:        true,
		RunID:       runID,
		Output:      []byte{},
		Diagnostics: []compiler.Diagnostic{},
		Errors:      []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

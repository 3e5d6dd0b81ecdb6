package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/bfc/internal/compiler"
	"github.com/roach88/bfc/internal/config"
	"github.com/roach88/bfc/internal/engine"
	"github.com/roach88/bfc/internal/store"
)

// Error codes reported for failures that carry no code of their own.
const (
	CodeStepsExceeded = string(engine.ErrCodeStepsExceeded)
	CodeCancelled     = string(engine.ErrCodeCancelled)
	CodeUnknown       = string(engine.ErrCodeUnknown)
)

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
//  1. Create fresh in-memory database
//  2. Compile the source under the scenario's configuration
//  3. Record the program, execute it, record the run
//  4. Read the run back and evaluate expectations against it
//
// A compile or runtime failure is part of the result, not an error; Run
// only returns an error when the harness itself cannot proceed.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context for the execution.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	cfg := config.Default()
	if scenario.Config != nil {
		cfg = scenario.Config.Apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	src, err := scenario.ReadSource()
	if err != nil {
		return nil, err
	}

	runID := scenario.RunID
	if runID == "" {
		runID = DefaultRunID
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	result := NewResult(runID)

	compiled, err := compiler.ParseBytes(cfg.CompilerContext(scenario.Name, logger), src)
	if err != nil {
		result.ErrorCode = ErrorCode(err)
		evaluate(result, scenario.Expect)
		return result, nil
	}
	result.Diagnostics = compiled.Diagnostics

	// Recording must survive a cancelled run.
	storeCtx := context.WithoutCancel(ctx)

	hash, err := st.WriteProgram(storeCtx, scenario.Name, src, compiled.Program)
	if err != nil {
		return nil, fmt.Errorf("failed to record program: %w", err)
	}
	result.ProgramHash = hash

	input := scenario.InputData()
	var out bytes.Buffer
	opts := append(cfg.EngineOptions(),
		engine.WithInput(bytes.NewReader(input)),
		engine.WithOutput(&out),
		engine.WithLogger(logger),
	)
	var rec engine.Recorder
	if scenario.Trace {
		opts = append(opts, engine.WithTracer(rec.Trace))
	}

	outcome, runErr := engine.Execute(ctx, compiled.Program, opts...)
	if outcome == nil {
		return nil, fmt.Errorf("failed to start run: %w", runErr)
	}

	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	}
	if _, err := st.WriteRun(storeCtx, store.RunRecord{
		ID:          result.RunID,
		ProgramHash: hash,
		Source:      src,
		Config:      cfg.ToMap(),
		Input:       input,
		Output:      out.Bytes(),
		ExitCode:    outcome.ExitStatus,
		Steps:       outcome.Steps,
		ErrorCode:   string(engine.ErrorCode(runErr)),
		Error:       errText,
	}); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	stored, err := st.ReadRun(storeCtx, result.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to read run back: %w", err)
	}

	result.Output = stored.Output
	result.Steps = stored.Steps
	result.Pointer = outcome.Pointer
	result.Tape = outcome.Tape
	result.ErrorCode = stored.ErrorCode
	if scenario.Trace {
		result.Trace = rec.Events
	}

	evaluate(result, scenario.Expect)
	return result, nil
}

// ErrorCode classifies err by the code the compiler or engine attached to
// it. Returns "" for nil.
func ErrorCode(err error) string {
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return string(engine.ErrorCode(err))
}

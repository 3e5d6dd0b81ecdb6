package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/bfc/internal/compiler"
	"github.com/roach88/bfc/internal/config"
	"github.com/roach88/bfc/internal/engine"
	"github.com/roach88/bfc/internal/ir"
	"github.com/roach88/bfc/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID         string   `json:"run_id"`
	ProgramHash   string   `json:"program_hash"`
	Steps         int64    `json:"steps"`
	Skipped       bool     `json:"skipped,omitempty"`
	Deterministic bool     `json:"deterministic"`
	Differences   []string `json:"differences,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-execute recorded runs and verify determinism",
		Long: `Re-execute recorded runs and verify they reproduce exactly.

Each run is recompiled from its stored source under its stored
configuration, then executed on the input it consumed. The replay must
produce the same program hash, output, step count and exit code. Runs that
were cancelled (signal or timeout) are skipped.

Exit codes:
  0 - All runs are deterministic
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, etc.)

Examples:
  bfc replay --db ./bfc.db
  bfc replay --db ./bfc.db --run 01928f3e-...
  bfc replay --db ./bfc.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	st, closeStore, err := openExistingStore(formatter, opts.Database, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, cancel := runContext(cmd, 0, logger)
	defer cancel()
	storeCtx := context.WithoutCancel(ctx)

	// Get runs to process
	var runs []store.RunRecord
	if opts.RunID != "" {
		run, err := st.ReadRun(storeCtx, opts.RunID)
		if errors.Is(err, store.ErrNotFound) {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("run not found: %s", opts.RunID), nil)
		}
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "reading run", err)
		}
		runs = []store.RunRecord{run}
	} else {
		runs, err = st.ListRuns(storeCtx, "", 0)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "listing runs", err)
		}
	}

	result := ReplayResult{
		Runs:             make([]ReplayRunResult, 0, len(runs)),
		TotalRuns:        len(runs),
		AllDeterministic: true,
	}

	for _, run := range runs {
		runResult, err := replayRun(ctx, st, run, logger)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, fmt.Sprintf("failed to replay run %s", run.ID), err)
		}
		formatter.VerboseLog("Replayed run %s: %d step(s)", run.ID, runResult.Steps)
		result.Runs = append(result.Runs, runResult)
		if !runResult.Deterministic {
			result.AllDeterministic = false
		}
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputReplayText(formatter, result)
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, ErrCodeMismatch+": determinism verification failed")
	}
	return nil
}

// replayRun recompiles the run's own source under its recorded config,
// re-executes it on the recorded input and compares the result with the
// record. The error return is for store or configuration problems;
// differences are reported in the result.
func replayRun(ctx context.Context, st *store.Store, run store.RunRecord, logger *slog.Logger) (ReplayRunResult, error) {
	res := ReplayRunResult{
		RunID:         run.ID,
		ProgramHash:   run.ProgramHash,
		Steps:         run.Steps,
		Deterministic: true,
	}
	// A run stopped from outside cannot be reproduced.
	if run.ErrorCode == string(engine.ErrCodeCancelled) {
		res.Skipped = true
		return res, nil
	}

	cfg, err := config.FromMap(run.Config)
	if err != nil {
		return res, fmt.Errorf("stored config: %w", err)
	}
	prog, err := st.ReadProgram(context.WithoutCancel(ctx), run.ProgramHash)
	if err != nil {
		return res, err
	}
	if prog.IRVersion != ir.IRVersion {
		res.differ("ir version: recorded %s, current %s", prog.IRVersion, ir.IRVersion)
	}

	compiled, err := compiler.ParseBytes(cfg.CompilerContext(prog.Name, logger), run.Source)
	if err != nil {
		res.differ("recompile failed: %v", err)
		return res, nil
	}
	hash, err := ir.ProgramHash(compiled.Program)
	if err != nil {
		return res, err
	}
	switch {
	case hash != run.ProgramHash:
		res.differ("program hash: recorded %s, recompiled %s", run.ProgramHash, hash)
	case !ir.Equal(compiled.Program, prog.Program):
		res.differ("program: stored IR does not match the recompiled source")
	}

	var out bytes.Buffer
	engineOpts := append(cfg.EngineOptions(),
		engine.WithInput(bytes.NewReader(run.Input)),
		engine.WithOutput(&out),
		engine.WithLogger(logger),
	)
	outcome, runErr := engine.Execute(ctx, compiled.Program, engineOpts...)
	if outcome == nil {
		return res, runErr
	}
	if engine.ErrorCode(runErr) == engine.ErrCodeCancelled {
		return res, runErr
	}

	if got, want := ir.OutputDigest(out.Bytes()), ir.OutputDigest(run.Output); got != want {
		res.differ("output: recorded %d byte(s) %s, replayed %d byte(s) %s",
			len(run.Output), shortHash(want), out.Len(), shortHash(got))
	}
	if outcome.Steps != run.Steps {
		res.differ("steps: recorded %d, replayed %d", run.Steps, outcome.Steps)
	}
	if outcome.ExitStatus != run.ExitCode {
		res.differ("exit code: recorded %d, replayed %d", run.ExitCode, outcome.ExitStatus)
	}
	if code := string(engine.ErrorCode(runErr)); code != run.ErrorCode {
		res.differ("error code: recorded %q, replayed %q", run.ErrorCode, code)
	}
	return res, nil
}

func (r *ReplayRunResult) differ(format string, args ...any) {
	r.Deterministic = false
	r.Differences = append(r.Differences, fmt.Sprintf(format, args...))
}

// outputReplayText prints the replay result in human-readable format.
func outputReplayText(formatter *OutputFormatter, result ReplayResult) {
	w := formatter.Writer
	if result.TotalRuns == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return
	}

	for _, r := range result.Runs {
		switch {
		case r.Skipped:
			fmt.Fprintf(w, "- %s: skipped (cancelled run)\n", r.RunID)
		case r.Deterministic:
			fmt.Fprintf(w, "✓ %s: %d step(s)\n", r.RunID, r.Steps)
		default:
			fmt.Fprintf(w, "✗ %s\n", r.RunID)
			for _, d := range r.Differences {
				fmt.Fprintf(w, "  %s\n", d)
			}
		}
	}

	fmt.Fprintln(w)
	if result.AllDeterministic {
		fmt.Fprintf(w, "All %d run(s) replayed deterministically.\n", result.TotalRuns)
	} else {
		fmt.Fprintln(w, "Determinism verification failed.")
	}
}

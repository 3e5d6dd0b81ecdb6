package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/bfc/internal/compiler"
	"github.com/roach88/bfc/internal/config"
	"github.com/roach88/bfc/internal/engine"
	"github.com/roach88/bfc/internal/ir"
	"github.com/roach88/bfc/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Config   ConfigFlags
	Input    string
	Database string
	Timeout  time.Duration
}

// RunSummary is the result of one run.
type RunSummary struct {
	RunID       string                `json:"run_id,omitempty"`
	ProgramHash string                `json:"program_hash"`
	ExitStatus  int                   `json:"exit_status"`
	Steps       int64                 `json:"steps"`
	Pointer     int                   `json:"pointer"`
	Written     int64                 `json:"written"`
	Output      string                `json:"output"`
	Diagnostics []compiler.Diagnostic `json:"diagnostics"`
	Error       string                `json:"error,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <file|->",
		Short: "Compile and execute a program",
		Long: `Compile a program and execute it on a fresh tape.

Program input is read from stdin, or from --input. When the program itself
is read from stdin ("-") and no --input is given, every read sees end of
input. Program output is written to stdout; in JSON format it is returned
in the response instead.

With --db the program and the run (configuration, consumed input and
output) are recorded for history and replay.

Exit codes:
  0 - Program ran to completion
  1 - Program failed at run time (pointer out of range, step limit, I/O)
  2 - Command error (bad flags, unreadable source, compile error)

Examples:
  bfc run hello.b
  bfc run --tape-size 300 --pointer fail prog.b < input.txt
  bfc run --db ./bfc.db --input data.bin prog.b
  echo '+++.' | bfc run -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProgram(opts, args[0], cmd)
		},
	}

	opts.Config.bind(cmd)
	cmd.Flags().StringVar(&opts.Input, "input", "", "read program input from this file instead of stdin")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "cancel the run after this long (0 = no limit)")

	return cmd
}

func runProgram(opts *RunOptions, path string, cmd *cobra.Command) error {
	// Program output owns stdout in text mode.
	w := cmd.ErrOrStderr()
	if opts.Format == "json" {
		w = cmd.OutOrStdout()
	}
	formatter := newFormatter(opts.RootOptions, w, cmd.ErrOrStderr())
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	cfg, err := opts.Config.resolve(cmd)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfigInvalid, "invalid configuration", err)
	}

	name, src, compiled, err := compileSource(cmd, formatter, logger, cfg, path)
	if err != nil {
		return err
	}
	hash, err := ir.ProgramHash(compiled.Program)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "hashing program", err)
	}

	var in io.Reader
	switch {
	case opts.Input != "":
		f, err := os.Open(opts.Input)
		if err != nil {
			return formatter.Fail(ExitCommandError, sourceErrCode(err), "opening input", err)
		}
		defer f.Close()
		in = f
	case path == stdinName:
		in = bytes.NewReader(nil)
	default:
		in = cmd.InOrStdin()
	}

	recording := opts.Database != ""
	var consumed, captured bytes.Buffer
	if recording {
		in = io.TeeReader(in, &consumed)
	}
	var out io.Writer = cmd.OutOrStdout()
	switch {
	case opts.Format == "json":
		out = &captured
	case recording:
		out = io.MultiWriter(out, &captured)
	}

	ctx, cancel := runContext(cmd, opts.Timeout, logger)
	defer cancel()

	logger.Debug("run starting", "source", name, "program_hash", hash, "tape_size", cfg.TapeSize,
		"pointer_policy", cfg.PointerPolicy, "eof_policy", cfg.EOFPolicy, "max_steps", cfg.MaxSteps)

	engineOpts := append(cfg.EngineOptions(),
		engine.WithInput(in),
		engine.WithOutput(out),
		engine.WithLogger(logger),
	)
	outcome, runErr := engine.Execute(ctx, compiled.Program, engineOpts...)
	if outcome == nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfigInvalid, "invalid machine options", runErr)
	}

	summary := RunSummary{
		ProgramHash: hash,
		ExitStatus:  outcome.ExitStatus,
		Steps:       outcome.Steps,
		Pointer:     outcome.Pointer,
		Written:     outcome.Written,
		Output:      captured.String(),
		Diagnostics: compiled.Diagnostics,
	}
	if runErr != nil {
		summary.Error = runErr.Error()
	}

	if recording {
		summary.RunID = opts.runIDs().Generate()
		if err := recordRun(ctx, opts.Database, logger, name, src, compiled.Program, store.RunRecord{
			ID:          summary.RunID,
			ProgramHash: hash,
			Source:      src,
			Config:      cfg.ToMap(),
			Input:       consumed.Bytes(),
			Output:      captured.Bytes(),
			ExitCode:    outcome.ExitStatus,
			Steps:       outcome.Steps,
			ErrorCode:   string(engine.ErrorCode(runErr)),
			Error:       summary.Error,
		}); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "recording run", err)
		}
		formatter.VerboseLog("Recorded run %s in %s", summary.RunID, opts.Database)
	}

	formatter.VerboseLog("%d step(s), pointer %d, %d byte(s) written", summary.Steps, summary.Pointer, summary.Written)

	if runErr != nil {
		_ = formatter.Error(ErrCodeRunFailed, runErr.Error(), summary)
		return WrapExitError(ExitFailure, ErrCodeRunFailed+": run failed", runErr)
	}
	if opts.Format == "json" {
		return formatter.Success(summary)
	}
	return nil
}

// compileSource reads and compiles the program at path. Failures are
// reported through formatter; the returned error is ready to return from
// RunE.
func compileSource(cmd *cobra.Command, formatter *OutputFormatter, logger *slog.Logger, cfg config.Config, path string) (string, []byte, *compiler.Result, error) {
	name, src, err := readSource(cmd, path)
	if err != nil {
		return name, nil, nil, formatter.Fail(ExitCommandError, sourceErrCode(err), "reading source", err)
	}

	compiled, err := compiler.ParseBytes(cfg.CompilerContext(name, logger), src)
	if err != nil {
		return name, src, nil, formatter.Fail(ExitCommandError, ErrCodeCompileFailed, "compile failed", err)
	}
	if compiled.HasAnomalies() {
		formatter.VerboseLog("%s: %d bracket anomaly(ies)", name, len(compiled.Diagnostics))
		for _, d := range compiled.Diagnostics {
			formatter.VerboseLog("%s:%s", name, d)
		}
	}
	if compiled.Truncated > 0 {
		formatter.VerboseLog("%s: %d byte(s) after the unmatched ']' ignored", name, compiled.Truncated)
	}
	return name, src, compiled, nil
}

// runContext returns the context a program runs under. It is cancelled on
// SIGINT or SIGTERM, after timeout when one is set, or by cancel.
func runContext(cmd *cobra.Command, timeout time.Duration, logger *slog.Logger) (context.Context, context.CancelFunc) {
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}

	var ctx context.Context
	var cancelCtx context.CancelFunc
	if timeout > 0 {
		ctx, cancelCtx = context.WithTimeout(parentCtx, timeout)
	} else {
		ctx, cancelCtx = context.WithCancel(parentCtx)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping run", "signal", sig)
			cancelCtx()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan) // Prevent signal handler leak
		cancelCtx()
	}
}

// recordRun stores the program and the run. Recording outlives a
// cancelled run so an interrupted run is still in the history.
func recordRun(ctx context.Context, dbPath string, logger *slog.Logger, name string, src []byte, p ir.Program, run store.RunRecord) error {
	st, closeStore, err := openStore(dbPath, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	storeCtx := context.WithoutCancel(ctx)
	if _, err := st.WriteProgram(storeCtx, name, src, p); err != nil {
		return err
	}
	seq, err := st.WriteRun(storeCtx, run)
	if err != nil {
		return err
	}
	logger.Debug("run recorded", "run_id", run.ID, "seq", seq, "program_hash", run.ProgramHash)
	return nil
}

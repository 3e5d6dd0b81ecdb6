package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/bfc/internal/engine"
)

// DefaultTraceLimit is the number of steps recorded unless --limit says
// otherwise.
const DefaultTraceLimit = 1000

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Config  ConfigFlags
	Input   string
	Limit   int
	Timeout time.Duration
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Events  []engine.TraceEvent `json:"events"`
	Dropped int64               `json:"dropped"`
	Stats   TraceStats          `json:"stats"`
}

// TraceStats holds summary statistics for the traced run.
type TraceStats struct {
	Steps      int64  `json:"steps"`
	Pointer    int    `json:"pointer"`
	Output     string `json:"output"`
	ExitStatus int    `json:"exit_status"`
	Error      string `json:"error,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <file|->",
		Short: "Execute a program and print its step timeline",
		Long: `Execute a program and print one line per step: the step number, the
operation, the pointer and the current cell after the step. Loop tests
show whether the body was entered.

Only the first --limit steps are kept; the rest are counted as dropped.
The program's own output is collected and shown after the timeline.

Examples:
  bfc trace prog.b
  bfc trace --limit 50 --input data.bin prog.b
  bfc trace --format json prog.b`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	opts.Config.bind(cmd)
	cmd.Flags().StringVar(&opts.Input, "input", "", "read program input from this file (default: no input)")
	cmd.Flags().IntVar(&opts.Limit, "limit", DefaultTraceLimit, "maximum steps to record (0 = all)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "cancel the run after this long (0 = no limit)")

	return cmd
}

func runTrace(opts *TraceOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if opts.Limit < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeConfigInvalid, fmt.Sprintf("--limit must not be negative, got %d", opts.Limit), nil)
	}
	cfg, err := opts.Config.resolve(cmd)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfigInvalid, "invalid configuration", err)
	}

	_, _, compiled, err := compileSource(cmd, formatter, logger, cfg, path)
	if err != nil {
		return err
	}

	// The timeline owns stdout, so input only comes from --input.
	var in io.Reader = bytes.NewReader(nil)
	if opts.Input != "" {
		f, err := os.Open(opts.Input)
		if err != nil {
			return formatter.Fail(ExitCommandError, sourceErrCode(err), "opening input", err)
		}
		defer f.Close()
		in = f
	}

	ctx, cancel := runContext(cmd, opts.Timeout, logger)
	defer cancel()

	rec := &engine.Recorder{Limit: opts.Limit}
	var out bytes.Buffer
	engineOpts := append(cfg.EngineOptions(),
		engine.WithInput(in),
		engine.WithOutput(&out),
		engine.WithTracer(rec.Trace),
		engine.WithLogger(logger),
	)
	outcome, runErr := engine.Execute(ctx, compiled.Program, engineOpts...)
	if outcome == nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfigInvalid, "invalid machine options", runErr)
	}

	result := TraceResult{
		Events:  rec.Events,
		Dropped: rec.Dropped,
		Stats: TraceStats{
			Steps:      outcome.Steps,
			Pointer:    outcome.Pointer,
			Output:     out.String(),
			ExitStatus: outcome.ExitStatus,
		},
	}
	if result.Events == nil {
		result.Events = []engine.TraceEvent{}
	}
	if runErr != nil {
		result.Stats.Error = runErr.Error()
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputTraceText(formatter, result)
	}

	if runErr != nil {
		return WrapExitError(ExitFailure, ErrCodeRunFailed+": run failed", runErr)
	}
	return nil
}

// outputTraceText prints the trace in human-readable format.
func outputTraceText(formatter *OutputFormatter, result TraceResult) {
	w := formatter.Writer
	for _, e := range result.Events {
		fmt.Fprintln(w, e)
	}
	if result.Dropped > 0 {
		fmt.Fprintf(w, "... %d more step(s) not shown\n", result.Dropped)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "steps: %d, pointer: %d, exit status: %d\n",
		result.Stats.Steps, result.Stats.Pointer, result.Stats.ExitStatus)
	fmt.Fprintf(w, "output: %q\n", result.Stats.Output)
	if result.Stats.Error != "" {
		fmt.Fprintf(w, "error: %s\n", result.Stats.Error)
	}
}

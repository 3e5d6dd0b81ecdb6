package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/bfc/internal/engine"
	"github.com/roach88/bfc/internal/ir"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// RunIDs names recorded runs. Defaults to UUIDv7.
	RunIDs engine.RunIDGenerator
}

// runIDs returns the configured run id generator.
func (o *RootOptions) runIDs() engine.RunIDGenerator {
	if o.RunIDs == nil {
		return engine.UUIDv7Generator{}
	}
	return o.RunIDs
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the bfc CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bfc",
		Version: fmt.Sprintf("%s (ir %s)", ir.EngineVersion, ir.IRVersion),
		Short: "bfc - compiler and runner for eight-operator tape programs",
		Long: `Compile, run and inspect programs written in the eight-operator tape
language. Programs run on a byte tape under configurable pointer, end of
input and bracket policies, can be lowered to C or Go, and can be recorded
to a SQLite database for later replay.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Add subcommands
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// newLogger returns the structured logger for one command invocation:
// text on w, DEBUG when --verbose is set.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

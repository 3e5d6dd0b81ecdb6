package cli

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/bfc/internal/compiler"
	"github.com/roach88/bfc/internal/ir"
	"github.com/roach88/bfc/internal/lower"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Config ConfigFlags
	Emit   string // backend name, empty for statistics only
	Output string // output file path
}

// CompilationResult is the JSON payload of a compilation.
type CompilationResult struct {
	Name        string                `json:"name"`
	ProgramHash string                `json:"program_hash"`
	IRVersion   string                `json:"ir_version"`
	Stats       ir.Stats              `json:"stats"`
	Anomalies   bool                  `json:"anomalies"`
	Diagnostics []compiler.Diagnostic `json:"diagnostics"`
	Truncated   int                   `json:"truncated"`
	SourceBytes int                   `json:"source_bytes"`
	Emit        string                `json:"emit,omitempty"`
	Code        string                `json:"code,omitempty"`
	OutputFile  string                `json:"output_file,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <file|->",
		Short: "Compile a program and report or emit it",
		Long: fmt.Sprintf(`Compile a program and print its statistics, or lower it to another
language with --emit.

Backends: %s. The pointer and end of input policies are compiled into
C and Go output, so the lowered program behaves like "bfc run" under the
same flags.

Examples:
  bfc compile hello.b
  bfc compile --emit c -o hello.c hello.b
  bfc compile --emit go --pointer fail prog.b
  bfc compile --emit json --coalesce prog.b`, strings.Join(lower.Names(), ", ")),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	opts.Config.bind(cmd)
	cmd.Flags().StringVar(&opts.Emit, "emit", "", fmt.Sprintf("lower to a backend (%s)", strings.Join(lower.Names(), "|")))
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	cfg, err := opts.Config.resolve(cmd)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfigInvalid, "invalid configuration", err)
	}

	var backend lower.Backend
	if opts.Emit != "" {
		backend, err = lower.Lookup(opts.Emit)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeConfigInvalid, "invalid --emit", err)
		}
	} else if opts.Output != "" {
		return formatter.Fail(ExitCommandError, ErrCodeConfigInvalid, "--output requires --emit", nil)
	}

	name, _, compiled, err := compileSource(cmd, formatter, logger, cfg, path)
	if err != nil {
		return err
	}
	hash, err := ir.ProgramHash(compiled.Program)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "hashing program", err)
	}

	result := &CompilationResult{
		Name:        name,
		ProgramHash: hash,
		IRVersion:   ir.IRVersion,
		Stats:       ir.Count(compiled.Program),
		Anomalies:   compiled.HasAnomalies(),
		Diagnostics: compiled.Diagnostics,
		Truncated:   compiled.Truncated,
		SourceBytes: compiled.SourceBytes,
	}
	formatter.VerboseLog("Compiled %s: %d byte(s) of source, program %s", name, result.SourceBytes, hash)

	if backend == nil {
		return outputCompileSuccess(formatter, result)
	}

	var code bytes.Buffer
	if err := backend.Lower(&code, compiled.Program, cfg); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("lowering to %s", backend.Name()), err)
	}
	result.Emit = backend.Name()

	// Write to file if --output specified
	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, code.Bytes(), 0644); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "writing output file", err)
		}
		result.OutputFile = opts.Output
		return outputCompileSuccess(formatter, result)
	}

	if formatter.Format == "json" {
		result.Code = code.String()
		return formatter.Success(result)
	}
	_, err = code.WriteTo(formatter.Writer)
	return err
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	// Human-readable text output
	w := formatter.Writer
	s := result.Stats
	fmt.Fprintf(w, "✓ Compiled %s: %d instruction(s), %d loop(s), max depth %d\n",
		result.Name, s.Total(), s.Loops, s.MaxDepth)
	fmt.Fprintf(w, "  moves: %d, adds: %d, outputs: %d, inputs: %d\n",
		s.Moves, s.Adds, s.Outputs, s.Inputs)
	fmt.Fprintf(w, "  program: %s\n", result.ProgramHash)

	if len(result.Diagnostics) > 0 {
		fmt.Fprintf(w, "\n%d bracket anomal%s:\n", len(result.Diagnostics), plural(len(result.Diagnostics), "y", "ies"))
		for _, d := range result.Diagnostics {
			fmt.Fprintf(w, "  %s\n", d)
		}
	}
	if result.Truncated > 0 {
		fmt.Fprintf(w, "  %d byte(s) after the unmatched ']' ignored\n", result.Truncated)
	}

	if result.OutputFile != "" {
		fmt.Fprintf(w, "\nWrote %s output to %s\n", result.Emit, result.OutputFile)
	}
	return nil
}

// plural picks the singular or plural suffix for n.
func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/bfc/internal/compiler"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// FileReport is the validation result for one source file.
type FileReport struct {
	Name string `json:"name"`
	OK   bool   `json:"ok"`
	*compiler.Report
}

// ValidationResult holds the validation results for every file.
type ValidationResult struct {
	Valid bool         `json:"valid"`
	Files []FileReport `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <file|->...",
		Short: "Check programs for unmatched brackets",
		Long: `Check programs for bracket anomalies without running them.

An unmatched ']' ends the program (the rest of the source is ignored) and
an unmatched '[' runs to end of input. Both compile, but are usually
mistakes; validate lists every one with its line and column.

Exit codes:
  0 - No anomalies
  1 - At least one file has anomalies
  2 - Command error (unreadable file, etc.)

Examples:
  bfc validate hello.b
  bfc validate *.b --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *ValidateOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	result := ValidationResult{
		Valid: true,
		Files: make([]FileReport, 0, len(paths)),
	}

	for _, path := range paths {
		name, src, err := readSource(cmd, path)
		if err != nil {
			return formatter.Fail(ExitCommandError, sourceErrCode(err), "reading source", err)
		}
		formatter.VerboseLog("Validating %s (%d bytes)", name, len(src))

		report, err := compiler.Validate(bytes.NewReader(src))
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeReadFailed, "validating "+name, err)
		}
		result.Files = append(result.Files, FileReport{Name: name, OK: report.OK(), Report: report})
		if !report.OK() {
			result.Valid = false
		}
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputValidateText(formatter, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, ErrCodeAnomalies+": bracket anomalies found")
	}
	return nil
}

func outputValidateText(formatter *OutputFormatter, result ValidationResult) {
	w := formatter.Writer
	for _, f := range result.Files {
		if f.OK {
			fmt.Fprintf(w, "✓ %s: max depth %d\n", f.Name, f.MaxDepth)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", f.Name)
		for _, d := range f.Diagnostics {
			fmt.Fprintf(w, "  %s:%s\n", f.Name, d)
		}
		if f.Truncated > 0 {
			fmt.Fprintf(w, "  %d byte(s) after the unmatched ']' ignored\n", f.Truncated)
		}
	}
}

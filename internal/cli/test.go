package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/bfc/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Golden string   `json:"golden,omitempty"` // "match", "updated" or "missing"
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance scenarios",
		Long: `Run conformance scenarios using the harness framework.

Executes every YAML scenario in the directory and checks its expected
output, cells, pointer, steps and error. Scenarios with "trace: true" are
also compared against <scenarios-dir>/golden/<name>.golden.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  bfc test ./scenarios
  bfc test ./scenarios --filter "pointer_*"
  bfc test ./scenarios --update
  bfc test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	// Validate directory
	if info, err := os.Stat(scenariosDir); err != nil || !info.IsDir() {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("scenarios directory not found: %s", scenariosDir), nil)
	}
	if opts.Filter != "" {
		if _, err := filepath.Match(opts.Filter, ""); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, "invalid filter pattern", err)
		}
	}

	scenarios, err := harness.LoadDir(scenariosDir)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeReadFailed, "failed to load scenarios", err)
	}

	result := TestResult{Scenarios: []ScenarioResult{}}
	for _, s := range scenarios {
		if opts.Filter != "" {
			if matched, _ := filepath.Match(opts.Filter, s.Name); !matched {
				continue
			}
		}

		scenResult := runScenario(s, scenariosDir, opts, cmd)
		result.Scenarios = append(result.Scenarios, scenResult)
		result.Total++
		if scenResult.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputTestText(formatter, result)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d scenario(s) failed", ErrCodeScenarios, result.Failed))
	}
	return nil
}

// runScenario executes a single scenario and returns the result.
func runScenario(s *harness.Scenario, scenariosDir string, opts *TestOptions, cmd *cobra.Command) ScenarioResult {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := harness.RunContext(ctx, s)
	if err != nil {
		return ScenarioResult{
			Name:   s.Name,
			Pass:   false,
			Errors: []string{fmt.Sprintf("execution failed: %v", err)},
		}
	}

	scenResult := ScenarioResult{
		Name:   s.Name,
		Pass:   res.Pass,
		Errors: res.Errors,
	}
	if !s.Trace {
		return scenResult
	}

	// Handle golden file comparison
	snapshot, err := harness.Snapshot(s.Name, res)
	if err != nil {
		scenResult.Pass = false
		scenResult.Errors = append(scenResult.Errors, fmt.Sprintf("snapshot failed: %v", err))
		return scenResult
	}
	goldenPath := filepath.Join(scenariosDir, "golden", s.Name+".golden")

	if opts.Update {
		if err := writeGolden(goldenPath, snapshot); err != nil {
			scenResult.Pass = false
			scenResult.Errors = append(scenResult.Errors, fmt.Sprintf("failed to update golden file: %v", err))
			return scenResult
		}
		scenResult.Golden = "updated"
		return scenResult
	}

	expected, err := os.ReadFile(goldenPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		scenResult.Golden = "missing"
	case err != nil:
		scenResult.Pass = false
		scenResult.Errors = append(scenResult.Errors, fmt.Sprintf("failed to read golden file: %v", err))
	case !bytes.Equal(expected, snapshot):
		scenResult.Pass = false
		scenResult.Errors = append(scenResult.Errors, fmt.Sprintf("golden mismatch: %s (run with --update to regenerate)", goldenPath))
	default:
		scenResult.Golden = "match"
	}
	return scenResult
}

// writeGolden writes a golden file, creating its directory.
func writeGolden(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// outputTestText prints the test result in human-readable format.
func outputTestText(formatter *OutputFormatter, result TestResult) {
	w := formatter.Writer
	if result.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return
	}

	for _, s := range result.Scenarios {
		mark := "✓"
		if !s.Pass {
			mark = "✗"
		}
		switch s.Golden {
		case "":
			fmt.Fprintf(w, "%s %s\n", mark, s.Name)
		default:
			fmt.Fprintf(w, "%s %s (golden %s)\n", mark, s.Name, s.Golden)
		}
		for _, e := range s.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
}

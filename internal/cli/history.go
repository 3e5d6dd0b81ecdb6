package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/bfc/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Program  string // optional - filter to one program hash
	Failed   bool   // only runs with a non-zero exit code
	Limit    int
}

// HistoryEntry is one recorded run as listed by history.
type HistoryEntry struct {
	Seq         int64  `json:"seq"`
	RunID       string `json:"run_id"`
	ProgramHash string `json:"program_hash"`
	ExitCode    int    `json:"exit_code"`
	Steps       int64  `json:"steps"`
	InputBytes  int    `json:"input_bytes"`
	OutputBytes int    `json:"output_bytes"`
	Error       string `json:"error,omitempty"`
}

// HistoryResult holds the history output.
type HistoryResult struct {
	Runs  []HistoryEntry `json:"runs"`
	Total int            `json:"total"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List runs recorded with "bfc run --db", oldest first.

Examples:
  bfc history --db ./bfc.db
  bfc history --db ./bfc.db --limit 10
  bfc history --db ./bfc.db --failed
  bfc history --db ./bfc.db --program 808849e8... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Program, "program", "", "only list runs of this program hash")
	cmd.Flags().BoolVar(&opts.Failed, "failed", false, "only list runs that failed")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "only list the most recent N runs (0 = all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	ctx := context.Background()

	st, closeStore, err := openExistingStore(formatter, opts.Database, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	runs, err := st.QueryRuns(ctx, historyQuery(opts))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "listing runs", err)
	}

	result := HistoryResult{
		Runs:  make([]HistoryEntry, 0, len(runs)),
		Total: len(runs),
	}
	for _, r := range runs {
		result.Runs = append(result.Runs, HistoryEntry{
			Seq:         r.Seq,
			RunID:       r.ID,
			ProgramHash: r.ProgramHash,
			ExitCode:    r.ExitCode,
			Steps:       r.Steps,
			InputBytes:  len(r.Input),
			OutputBytes: len(r.Output),
			Error:       r.Error,
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	if len(result.Runs) == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return nil
	}
	for _, e := range result.Runs {
		status := "✓"
		if e.ExitCode != 0 {
			status = "✗"
		}
		fmt.Fprintf(w, "%s %4d %s program=%s steps=%d in=%d out=%d\n",
			status, e.Seq, e.RunID, shortHash(e.ProgramHash), e.Steps, e.InputBytes, e.OutputBytes)
		if e.Error != "" && formatter.Verbose {
			fmt.Fprintf(w, "       %s\n", e.Error)
		}
	}
	return nil
}

// historyQuery builds the store query for the history flags.
func historyQuery(opts *HistoryOptions) store.RunQuery {
	var preds []store.Predicate
	if opts.Program != "" {
		preds = append(preds, store.Equals{Field: "program_hash", Value: opts.Program})
	}
	if opts.Failed {
		preds = append(preds, store.NotEquals{Field: "exit_code", Value: 0})
	}

	q := store.RunQuery{Limit: opts.Limit}
	switch len(preds) {
	case 0:
	case 1:
		q.Filter = preds[0]
	default:
		q.Filter = store.And{Predicates: preds}
	}
	return q
}

// openExistingStore opens a database that must already exist. Opening a
// missing path would silently create an empty database.
func openExistingStore(formatter *OutputFormatter, path string, logger *slog.Logger) (*store.Store, func(), error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil, formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", path), nil)
	}
	st, closeStore, err := openStore(path, logger)
	if err != nil {
		return nil, nil, formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "failed to open database", err)
	}
	return st, closeStore, nil
}

// shortHash abbreviates a program hash for text output.
func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

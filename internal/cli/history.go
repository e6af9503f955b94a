package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/roach88/faultline/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	Scenario string
	Failed   bool
}

// HistoryRun is one ledger entry in command output.
type HistoryRun struct {
	RunID      string   `json:"run_id"`
	Seq        int64    `json:"seq"`
	Scenario   string   `json:"scenario"`
	Pass       bool     `json:"pass"`
	Expected   string   `json:"expected"`
	Observed   string   `json:"observed"`
	ExitStatus int      `json:"exit_status"`
	RecordedAt string   `json:"recorded_at"`
	Errors     []string `json:"errors,omitempty"`
}

// HistoryResult is the JSON payload of the history command.
type HistoryResult struct {
	Runs  []HistoryRun `json:"runs"`
	Total int          `json:"total"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List runs recorded with --db, newest first.

Examples:
  faultline history --db ./runs.db
  faultline history --db ./runs.db --scenario should_fail --limit 5
  faultline history --db ./runs.db --failed --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list (0 for all)")
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "only list runs of this scenario")
	cmd.Flags().BoolVar(&opts.Failed, "failed", false, "only list runs that failed their verdict")

	return cmd
}

// runHistory lists recorded runs, newest first.
func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "--limit must not be negative")
	}
	// store.Open would create an empty ledger; history only reads.
	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, "database not found", err)
	}

	// Open store
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	// Query runs
	runs, err := st.ListRuns(cmd.Context(), store.ListOptions{
		Scenario:   opts.Scenario,
		FailedOnly: opts.Failed,
		Limit:      opts.Limit,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	result := HistoryResult{Runs: make([]HistoryRun, len(runs)), Total: len(runs)}
	for i, r := range runs {
		result.Runs[i] = historyRun(r)
	}

	// Output results
	if opts.Format == "json" {
		return newFormatter(opts.RootOptions, cmd).Success(result)
	}
	return outputHistoryText(cmd, result, opts.Verbose)
}

// historyRun converts a stored run to its output form.
func historyRun(r store.Run) HistoryRun {
	errs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		if e.Line > 0 {
			errs[i] = fmt.Sprintf("%s: %s (line %d)", e.Code, e.Message, e.Line)
		} else {
			errs[i] = fmt.Sprintf("%s: %s", e.Code, e.Message)
		}
	}
	return HistoryRun{
		RunID:      r.ID,
		Seq:        r.Seq,
		Scenario:   r.Scenario,
		Pass:       r.Pass,
		Expected:   r.Expected.String(),
		Observed:   r.Observed.String(),
		ExitStatus: r.ExitStatus,
		RecordedAt: r.RecordedAt.Format(time.RFC3339),
		Errors:     errs,
	}
}

// outputHistoryText renders the runs as a table.
// Verbose mode lists verdict errors below it.
func outputHistoryText(cmd *cobra.Command, result HistoryResult, verbose bool) error {
	w := cmd.OutOrStdout()
	if result.Total == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("Recorded", "Scenario", "Verdict", "Expected", "Observed", "Exit", "Run")
	for _, r := range result.Runs {
		verdict := "pass"
		if !r.Pass {
			verdict = "FAIL"
		}
		if err := table.Append(
			r.RecordedAt,
			r.Scenario,
			verdict,
			r.Expected,
			r.Observed,
			fmt.Sprintf("%d", r.ExitStatus),
			r.RunID,
		); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nTotal runs: %d\n", result.Total)

	if verbose {
		for _, r := range result.Runs {
			for _, e := range r.Errors {
				fmt.Fprintf(w, "%s: %s\n", r.RunID, e)
			}
		}
	}
	return nil
}

package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/faultline/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update   bool   // regenerate golden files
	Filter   string // scenario filter (glob pattern)
	Database string // optional run ledger

	// IDGenerator overrides the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator harness.IDGenerator
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name       string   `json:"name"`
	RunID      string   `json:"run_id,omitempty"`
	Pass       bool     `json:"pass"`
	Expected   string   `json:"expected,omitempty"`
	Observed   string   `json:"observed,omitempty"`
	ExitStatus int      `json:"exit_status"`
	Errors     []string `json:"errors,omitempty"`
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
	return newTestCommand(&TestOptions{RootOptions: rootOpts})
}

func newTestCommand(opts *TestOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Supervise guest scenarios",
		Long: `Launch every scenario's guest command and judge the run.

A scenario passes when the transcript carries the identifying line followed
by exactly one outcome marker, the exit status decodes to a known code, both
channels agree, and the agreed outcome is the expected one. When a golden
file exists under <scenarios-dir>/golden/<name>.golden the run's report must
also match it.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  faultline test ./scenarios
  faultline test ./scenarios --filter "should_*"
  faultline test ./scenarios --db ./runs.db
  faultline test ./scenarios --update
  faultline test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record runs in this SQLite database")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	// Validate directories
	info, err := os.Stat(scenariosDir)
	if err != nil || !info.IsDir() {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	// Find scenario files
	scenarioFiles, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	if len(scenarioFiles) == 0 {
		if opts.Format == "json" {
			return outputTestJSON(cmd, opts.RootOptions, TestResult{
				Scenarios: []ScenarioResult{},
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	// Optional run ledger; nil when --db is not set
	st, err := openLedger(opts.Database)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	logger := newLogger(opts.RootOptions, cmd)
	hopts := supervisorOptions(st, logger)
	if opts.IDGenerator != nil {
		hopts = append(hopts, harness.WithIDGenerator(opts.IDGenerator))
	}
	sup := harness.New(hopts...)

	// Interrupts kill the running guest and stop the loop
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(scenarioFiles)),
		Total:     len(scenarioFiles),
	}

	// Run scenarios
	for _, scenarioFile := range scenarioFiles {
		if ctx.Err() != nil {
			return WrapExitError(ExitCommandError, "interrupted", ctx.Err())
		}

		scenResult := runScenario(ctx, sup, scenarioFile, opts)
		if opts.Format != "json" {
			printScenarioText(cmd.OutOrStdout(), scenResult, opts.Update)
		}
		result.Scenarios = append(result.Scenarios, scenResult)

		if scenResult.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	// Output results
	if opts.Format == "json" {
		return outputTestJSON(cmd, opts.RootOptions, result)
	}
	return outputTestText(cmd, result)
}

// findScenarioFiles finds all YAML scenario files in a directory.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		// Only process .yaml and .yml files
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		// Apply filter if specified
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// runScenario supervises a single scenario and returns the result.
func runScenario(ctx context.Context, sup *harness.Supervisor, scenarioFile string, opts *TestOptions) ScenarioResult {
	scenario, err := harness.LoadScenario(scenarioFile)
	if err != nil {
		return ScenarioResult{
			Name:   filepath.Base(scenarioFile),
			Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
		}
	}

	// Run scenario
	result, err := sup.Supervise(ctx, scenario)
	if result == nil {
		return ScenarioResult{
			Name:     scenario.Name,
			Expected: scenario.Expect.String(),
			Errors:   []string{fmt.Sprintf("execution failed: %v", err)},
		}
	}

	scenResult := ScenarioResult{
		Name:       scenario.Name,
		RunID:      result.RunID,
		Pass:       result.Pass,
		Expected:   result.Expected.String(),
		Observed:   result.Observed.String(),
		ExitStatus: result.ExitStatus,
		Errors:     result.ErrorMessages(),
	}
	if err != nil {
		scenResult.Pass = false
		scenResult.Errors = append(scenResult.Errors, err.Error())
		return scenResult
	}

	// Handle golden file comparison
	goldenPath := goldenFilePath(scenarioFile)
	if opts.Update {
		if err := updateGoldenFile(result, goldenPath); err != nil {
			scenResult.Pass = false
			scenResult.Errors = append(scenResult.Errors, fmt.Sprintf("failed to update golden file: %v", err))
		}
		return scenResult
	}

	if _, err := os.Stat(goldenPath); os.IsNotExist(err) {
		// No golden file - verdict rules only
		return scenResult
	}

	match, err := compareWithGolden(result, goldenPath)
	if err != nil {
		scenResult.Pass = false
		scenResult.Errors = append(scenResult.Errors, fmt.Sprintf("golden comparison failed: %v", err))
		return scenResult
	}
	if !match {
		scenResult.Pass = false
		scenResult.Errors = append(scenResult.Errors, "report does not match golden file (run with --update to regenerate)")
	}
	return scenResult
}

// goldenFilePath returns the path to the golden file for a scenario.
func goldenFilePath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// updateGoldenFile writes the run's stable report as the golden file.
func updateGoldenFile(result *harness.Result, goldenPath string) error {
	// Ensure golden directory exists
	if err := os.MkdirAll(filepath.Dir(goldenPath), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}

	data, err := harness.StableSnapshot(result)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	// Write golden file
	if err := os.WriteFile(goldenPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// compareWithGolden compares the run's stable report against the golden file.
func compareWithGolden(result *harness.Result, goldenPath string) (bool, error) {
	// Read golden file
	goldenData, err := os.ReadFile(goldenPath)
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}

	currentData, err := harness.StableSnapshot(result)
	if err != nil {
		return false, fmt.Errorf("failed to marshal report: %w", err)
	}

	// Compare bytes
	return bytes.Equal(bytes.TrimSpace(goldenData), currentData), nil
}

// printScenarioText writes one scenario's line as it finishes.
func printScenarioText(w io.Writer, r ScenarioResult, updated bool) {
	if !r.Pass {
		fmt.Fprintf(w, "✗ %s\n", r.Name)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
		return
	}
	if updated {
		fmt.Fprintf(w, "✓ %s (golden updated)\n", r.Name)
		return
	}
	fmt.Fprintf(w, "✓ %s (%s, exit %d)\n", r.Name, r.Observed, r.ExitStatus)
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(cmd *cobra.Command, rootOpts *RootOptions, result TestResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_TEST_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	if err := newFormatter(rootOpts, cmd).JSON(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the test summary as text.
func outputTestText(cmd *cobra.Command, result TestResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}

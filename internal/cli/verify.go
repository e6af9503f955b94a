package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/faultline/internal/harness"
	"github.com/roach88/faultline/internal/outcome"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	ExitStatus  int
	Mechanism   string
	Scenario    string // scenario file supplying ident, expectation and signal
	Ident       string
	Expect      string
	SuccessCode uint8
	FailedCode  uint8
	Database    string

	// IDGenerator overrides the run ID generator (for testing).
	IDGenerator harness.IDGenerator
}

// VerifyResult is the JSON payload of the verify command.
type VerifyResult struct {
	Scenario   string   `json:"scenario"`
	RunID      string   `json:"run_id"`
	Pass       bool     `json:"pass"`
	Expected   string   `json:"expected"`
	Observed   string   `json:"observed"`
	ExitStatus int      `json:"exit_status"`
	Transcript []string `json:"transcript"`
	Errors     []string `json:"errors,omitempty"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return newVerifyCommand(&VerifyOptions{RootOptions: rootOpts})
}

func newVerifyCommand(opts *VerifyOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <transcript>",
		Short: "Judge a captured transcript and exit status",
		Long: `Judge a guest run captured outside faultline, such as a CI job that
saved the serial log and the VM's exit status.

The transcript is read from the named file, or from stdin when it is "-".
The identifying line, expectation and signal come from --scenario, or from
--ident, --expect and the code flags. An explicit --mechanism overrides the
scenario's.

Exit codes:
  0 - The run passed its verdict
  1 - The run failed its verdict
  2 - Command error

Examples:
  faultline verify serial.log --exit-status 33 --ident "should_panic::should_fail..."
  faultline verify serial.log --exit-status 33 --scenario ./scenarios/should_fail.yaml
  faultline verify - --exit-status 16 --mechanism exit --ident "should_panic::should_fail..."`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args[0], cmd)
		},
	}

	defaults := outcome.DefaultCodes()
	cmd.Flags().IntVar(&opts.ExitStatus, "exit-status", 0, "exit status of the guest launcher (required)")
	_ = cmd.MarkFlagRequired("exit-status")
	cmd.Flags().StringVar(&opts.Mechanism, "mechanism", string(outcome.MechanismDebugExit),
		fmt.Sprintf("termination mechanism (%s)", strings.Join(mechanismNames(), "|")))
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "scenario file describing the run")
	cmd.Flags().StringVar(&opts.Ident, "ident", "", "identifying line the guest writes first")
	cmd.Flags().StringVar(&opts.Expect, "expect", "pass", "expected outcome (pass|fail)")
	cmd.Flags().Uint8Var(&opts.SuccessCode, "success-code", uint8(defaults.Success), "guest success code")
	cmd.Flags().Uint8Var(&opts.FailedCode, "failed-code", uint8(defaults.Failed), "guest failed code")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")

	return cmd
}

// runVerify judges a captured transcript and exit status, records the run
// when --db is set, and reports the verdict.
func runVerify(opts *VerifyOptions, transcriptPath string, cmd *cobra.Command) error {
	scenario, err := verifyScenario(opts, transcriptPath, cmd)
	if err != nil {
		return err
	}

	// Read transcript ("-" means stdin)
	transcript, err := readTranscript(transcriptPath, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read transcript", err)
	}

	st, err := openLedger(opts.Database)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	hopts := supervisorOptions(st, newLogger(opts.RootOptions, cmd))
	if opts.IDGenerator != nil {
		hopts = append(hopts, harness.WithIDGenerator(opts.IDGenerator))
	}

	// Judge the run
	result, err := harness.New(hopts...).Verify(cmd.Context(), scenario, transcript, opts.ExitStatus)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to verify run", err)
	}

	return outputVerify(cmd, opts.RootOptions, VerifyResult{
		Scenario:   result.Scenario,
		RunID:      result.RunID,
		Pass:       result.Pass,
		Expected:   result.Expected.String(),
		Observed:   result.Observed.String(),
		ExitStatus: result.ExitStatus,
		Transcript: result.Transcript,
		Errors:     result.ErrorMessages(),
	})
}

// verifyScenario builds the scenario to judge against from --scenario or
// from the individual flags.
func verifyScenario(opts *VerifyOptions, transcriptPath string, cmd *cobra.Command) (*harness.Scenario, error) {
	var scenario *harness.Scenario
	if opts.Scenario != "" {
		loaded, err := harness.LoadScenario(opts.Scenario)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load scenario", err)
		}
		scenario = loaded
	} else {
		if opts.Ident == "" {
			return nil, NewExitError(ExitCommandError, "--ident is required without --scenario")
		}
		expect, err := outcome.Parse(opts.Expect)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid --expect", err)
		}
		name := "verify"
		if transcriptPath != "-" {
			name = strings.TrimSuffix(filepath.Base(transcriptPath), filepath.Ext(transcriptPath))
		}
		scenario = &harness.Scenario{
			Name:    name,
			Expect:  expect,
			Ident:   opts.Ident,
			Markers: outcome.DefaultMarkers(),
			Signal: harness.SignalSpec{
				Codes: outcome.Codes{Success: outcome.Code(opts.SuccessCode), Failed: outcome.Code(opts.FailedCode)},
			},
		}
	}

	// An explicit --mechanism overrides the scenario's
	if opts.Scenario == "" || cmd.Flags().Changed("mechanism") {
		m, err := outcome.ParseMechanism(opts.Mechanism)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid --mechanism", err)
		}
		scenario.Signal.Mechanism = m
	}
	if err := scenario.Signal.Codes.Validate(scenario.Signal.Mechanism); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid signal codes", err)
	}
	return scenario, nil
}

// readTranscript reads the captured sink from path, or from stdin for "-".
func readTranscript(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

func mechanismNames() []string {
	names := make([]string, len(outcome.ValidMechanisms))
	for i, m := range outcome.ValidMechanisms {
		names[i] = string(m)
	}
	return names
}

// outputVerify writes the verdict in the configured format.
// A failed verdict returns an ExitFailure error after the output is written.
func outputVerify(cmd *cobra.Command, rootOpts *RootOptions, result VerifyResult) error {
	failed := NewExitError(ExitFailure, fmt.Sprintf("run %s failed its verdict", result.Scenario))

	if rootOpts.Format == "json" {
		response := CLIResponse{Status: "ok", Data: result}
		if !result.Pass {
			response.Status = "error"
			response.Error = &CLIError{
				Code:    "E_VERDICT",
				Message: failed.Message,
				Details: result.Errors,
			}
		}
		if err := newFormatter(rootOpts, cmd).JSON(response); err != nil {
			return err
		}
		if !result.Pass {
			// Verdict failure = exit code 1
			return failed
		}
		return nil
	}

	w := cmd.OutOrStdout()
	if result.Pass {
		fmt.Fprintf(w, "✓ %s (%s, exit %d)\n", result.Scenario, result.Observed, result.ExitStatus)
		return nil
	}
	fmt.Fprintf(w, "✗ %s (expected %s, observed %s, exit %d)\n",
		result.Scenario, result.Expected, result.Observed, result.ExitStatus)
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
	return failed
}

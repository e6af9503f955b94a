package harness

import (
	"github.com/roach88/faultline/internal/outcome"
)

// Result is the outcome of supervising one scenario run.
type Result struct {
	// RunID identifies the run (UUIDv7 in production).
	RunID string `json:"run_id"`

	// Seq orders runs within one supervisor.
	Seq int64 `json:"seq"`

	Scenario string `json:"scenario"`

	// Pass indicates the verdict: true if no rule was violated.
	Pass bool `json:"pass"`

	Expected outcome.Outcome `json:"expected"`

	// Observed is the outcome both channels agreed on, or Unknown.
	Observed outcome.Outcome `json:"observed"`

	// ExitStatus is the guest command's exit status; -1 if it was killed.
	ExitStatus int `json:"exit_status"`

	// Transcript is the captured textual sink, one entry per line.
	Transcript []string `json:"transcript"`

	// Stderr is the guest's diagnostic output.
	Stderr string `json:"stderr,omitempty"`

	// Errors holds the verdict errors. Empty if Pass is true.
	Errors []*VerdictError `json:"errors,omitempty"`
}

// NewResult creates a passing result for a scenario.
func NewResult(scenario string, expected outcome.Outcome) *Result {
	return &Result{
		Scenario:   scenario,
		Pass:       true,
		Expected:   expected,
		Transcript: []string{},
		Errors:     []*VerdictError{},
	}
}

// AddError records a verdict error and marks the result as failed.
func (r *Result) AddError(err *VerdictError) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// ErrorMessages returns the verdict errors as strings.
func (r *Result) ErrorMessages() []string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return msgs
}

// HasError reports whether a verdict error with the given code was recorded.
func (r *Result) HasError(code VerdictCode) bool {
	for _, e := range r.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

package harness

import "fmt"

// VerdictCode categorizes why a run did not pass.
type VerdictCode string

const (
	// ErrCodeIdentMissing indicates the identifying line never appeared.
	ErrCodeIdentMissing VerdictCode = "E_IDENT_MISSING"

	// ErrCodeIdentOrder indicates the outcome marker came before the
	// identifying line.
	ErrCodeIdentOrder VerdictCode = "E_IDENT_ORDER"

	// ErrCodeNoMarker indicates neither marker appeared.
	ErrCodeNoMarker VerdictCode = "E_NO_MARKER"

	// ErrCodeMultipleMarkers indicates more than one marker appeared.
	ErrCodeMultipleMarkers VerdictCode = "E_MULTIPLE_MARKERS"

	// ErrCodeUnknownExit indicates the exit status matches neither code.
	ErrCodeUnknownExit VerdictCode = "E_UNKNOWN_EXIT"

	// ErrCodeChannelDisagree indicates the marker and the exit status
	// report different outcomes.
	ErrCodeChannelDisagree VerdictCode = "E_CHANNEL_DISAGREE"

	// ErrCodeTimeout indicates the guest did not finish in time.
	ErrCodeTimeout VerdictCode = "E_TIMEOUT"

	// ErrCodeUnexpectedOutcome indicates the agreed outcome differs from
	// the scenario's expectation.
	ErrCodeUnexpectedOutcome VerdictCode = "E_UNEXPECTED_OUTCOME"
)

// VerdictError describes one violated verdict rule.
type VerdictError struct {
	Code    VerdictCode `json:"code"`
	Message string      `json:"message"`
	// Line is the 1-based transcript line the error refers to, or 0.
	Line int `json:"line,omitempty"`
}

// Error implements the error interface.
func (e *VerdictError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s (line %d)", e.Code, e.Message, e.Line)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func verdictErrorf(code VerdictCode, line int, format string, args ...any) *VerdictError {
	return &VerdictError{Code: code, Message: fmt.Sprintf(format, args...), Line: line}
}

package harness

import (
	"strings"

	"github.com/roach88/faultline/internal/outcome"
)

// Observation is what the textual sink says about a run.
type Observation struct {
	// IdentLine is the 1-based line of the identifying line, or 0.
	IdentLine int
	// MarkerLine is the 1-based line of the first outcome marker, or 0.
	MarkerLine int
	// Outcome is the outcome named by the first marker, or Unknown.
	Outcome outcome.Outcome
	// Markers counts outcome markers seen.
	Markers int
}

// ParseTranscript scans transcript lines for the identifying line and the
// outcome markers. A marker may stand on its own line or follow the
// identifying line on the same line ("ident...\t[ok]"). Surrounding
// whitespace is ignored. Lines after the marker are not judged: the host
// side of the console (hypervisor, supervisor) may still write there.
func ParseTranscript(lines []string, ident string, markers outcome.Markers) (Observation, []*VerdictError) {
	var obs Observation

	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimSpace(raw)

		if ident != "" && strings.HasPrefix(line, ident) {
			if obs.IdentLine == 0 {
				obs.IdentLine = lineNo
			}
			line = strings.TrimSpace(strings.TrimPrefix(line, ident))
		}

		var o outcome.Outcome
		switch line {
		case markers.Pass:
			o = outcome.Pass
		case markers.Fail:
			o = outcome.Fail
		default:
			continue
		}

		obs.Markers++
		if obs.MarkerLine == 0 {
			obs.MarkerLine = lineNo
			obs.Outcome = o
		}
	}

	var errs []*VerdictError
	switch {
	case obs.Markers == 0:
		errs = append(errs, verdictErrorf(ErrCodeNoMarker, 0,
			"neither %q nor %q found in transcript", markers.Pass, markers.Fail))
	case obs.Markers > 1:
		errs = append(errs, verdictErrorf(ErrCodeMultipleMarkers, obs.MarkerLine,
			"%d outcome markers found, want exactly one", obs.Markers))
	}

	switch {
	case obs.IdentLine == 0:
		errs = append(errs, verdictErrorf(ErrCodeIdentMissing, 0,
			"identifying line %q not found", ident))
	case obs.MarkerLine != 0 && obs.MarkerLine < obs.IdentLine:
		errs = append(errs, verdictErrorf(ErrCodeIdentOrder, obs.MarkerLine,
			"outcome marker precedes identifying line %d", obs.IdentLine))
	}

	return obs, errs
}

// Judge combines the sink observation and the exit status into a verdict
// on r. It sets r.Observed and records every violated rule.
func Judge(r *Result, obs Observation, sinkErrs []*VerdictError, status int, sig SignalSpec) {
	for _, e := range sinkErrs {
		r.AddError(e)
	}

	observed := obs.Outcome
	if _, carries := outcome.ExitStatus(sig.Success, sig.Mechanism); carries {
		fromSignal := sig.Codes.Decode(status, sig.Mechanism)
		switch {
		case fromSignal == outcome.Unknown:
			r.AddError(verdictErrorf(ErrCodeUnknownExit, 0,
				"exit status %d matches neither success nor failed code for %s", status, sig.Mechanism))
			observed = outcome.Unknown
		case obs.Outcome == outcome.Unknown:
			// No marker: the transcript rule already failed; keep the
			// signal's word for reporting.
			observed = fromSignal
		case fromSignal != obs.Outcome:
			r.AddError(verdictErrorf(ErrCodeChannelDisagree, obs.MarkerLine,
				"transcript reports %s but exit status %d reports %s", obs.Outcome, status, fromSignal))
			observed = outcome.Unknown
		}
	}

	r.Observed = observed
	if observed != outcome.Unknown && observed != r.Expected {
		r.AddError(verdictErrorf(ErrCodeUnexpectedOutcome, obs.MarkerLine,
			"expected %s, observed %s", r.Expected, observed))
	}
}

package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot returns the canonical JSON report of a result. Guest stderr is
// left out: it carries timestamps and host-specific noise.
func Snapshot(r *Result) ([]byte, error) {
	fields := reportFields(r)
	fields["run_id"] = r.RunID
	fields["seq"] = r.Seq
	return MarshalCanonical(fields)
}

// StableSnapshot is Snapshot without the run ID and sequence number, so two
// runs of the same scenario that judged alike produce identical bytes.
func StableSnapshot(r *Result) ([]byte, error) {
	return MarshalCanonical(reportFields(r))
}

func reportFields(r *Result) map[string]any {
	errs := make([]any, len(r.Errors))
	for i, e := range r.Errors {
		m := map[string]any{
			"code":    string(e.Code),
			"message": e.Message,
		}
		if e.Line > 0 {
			m["line"] = e.Line
		}
		errs[i] = m
	}

	return map[string]any{
		"scenario":    r.Scenario,
		"pass":        r.Pass,
		"expected":    r.Expected.String(),
		"observed":    r.Observed.String(),
		"exit_status": r.ExitStatus,
		"transcript":  r.Transcript,
		"errors":      errs,
	}
}

// AssertGolden compares a result's canonical report against
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, name string, r *Result) {
	t.Helper()

	data, err := Snapshot(r)
	if err != nil {
		t.Fatalf("snapshot %s: %v", name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}

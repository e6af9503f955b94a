package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/faultline/internal/harness"
	"github.com/roach88/faultline/internal/store"
)

// ledger records judged runs in the SQLite store.
type ledger struct {
	st  *store.Store
	now func() time.Time
}

func newLedger(st *store.Store) *ledger {
	return &ledger{st: st, now: time.Now}
}

// RecordResult implements harness.Recorder.
func (l *ledger) RecordResult(ctx context.Context, r *harness.Result) error {
	return l.st.WriteRun(ctx, runFromResult(r, l.now()))
}

// runFromResult converts a judged result to its ledger row, stamped at.
// Verdict error lines of 0 mean "no line".
func runFromResult(r *harness.Result, at time.Time) store.Run {
	errs := make([]store.RunError, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = store.RunError{Code: string(e.Code), Message: e.Message, Line: e.Line}
	}
	return store.Run{
		ID:         r.RunID,
		Seq:        r.Seq,
		Scenario:   r.Scenario,
		Expected:   r.Expected,
		Observed:   r.Observed,
		Pass:       r.Pass,
		ExitStatus: r.ExitStatus,
		Transcript: r.Transcript,
		Stderr:     r.Stderr,
		Errors:     errs,
		RecordedAt: at,
	}
}

// openLedger opens the database at path, or returns nil if path is empty.
func openLedger(path string) (*store.Store, error) {
	if path == "" {
		return nil, nil
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// supervisorOptions wires logging and, when st is non-nil, the run ledger.
func supervisorOptions(st *store.Store, logger *slog.Logger) []harness.Option {
	hopts := []harness.Option{harness.WithLogger(logger)}
	if st != nil {
		hopts = append(hopts, harness.WithRecorder(newLedger(st)))
	}
	return hopts
}

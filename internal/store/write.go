package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/faultline/internal/outcome"
)

// Run is one supervised guest run as stored in the ledger.
type Run struct {
	ID         string
	Seq        int64
	Scenario   string
	Expected   outcome.Outcome
	Observed   outcome.Outcome
	Pass       bool
	ExitStatus int
	Transcript []string
	Stderr     string
	Errors     []RunError
	RecordedAt time.Time
}

// RunError is one verdict error attached to a run.
type RunError struct {
	Code    string
	Message string
	Line    int
}

// ErrRunExists is returned by WriteRun when the run ID is already recorded
// with different contents.
var ErrRunExists = errors.New("run already recorded")

// WriteRun inserts a run and its verdict errors in one transaction.
// Writing the same run ID twice is a no-op if the scenario and sequence
// match, and fails with ErrRunExists otherwise.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("write run: empty run id")
	}
	if run.Expected == outcome.Unknown {
		return fmt.Errorf("write run %s: expected outcome is unknown", run.ID)
	}

	// Marshal transcript before opening the transaction
	transcriptJSON, err := marshalTranscript(run.Transcript)
	if err != nil {
		return fmt.Errorf("write run %s: %w", run.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run %s: begin: %w", run.ID, err)
	}
	defer tx.Rollback() // no-op after Commit

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, scenario, expected, observed, pass, exit_status, transcript, stderr, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Seq,
		run.Scenario,
		run.Expected.String(),
		run.Observed.String(),
		boolToInt(run.Pass),
		run.ExitStatus,
		transcriptJSON,
		run.Stderr,
		formatRecordedAt(run.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("write run %s: %w", run.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write run %s: %w", run.ID, err)
	}
	if n == 0 {
		// ON CONFLICT DO NOTHING hit an existing row: a replayed write is
		// fine, a different run under the same ID is not.
		var scenario string
		var seq int64
		if err := tx.QueryRowContext(ctx,
			`SELECT scenario, seq FROM runs WHERE id = ?`, run.ID,
		).Scan(&scenario, &seq); err != nil {
			return fmt.Errorf("write run %s: %w", run.ID, err)
		}
		if scenario != run.Scenario || seq != run.Seq {
			return fmt.Errorf("write run %s: %w", run.ID, ErrRunExists)
		}
		return nil
	}

	// Verdict errors keep their order through idx
	for i, e := range run.Errors {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_errors (run_id, idx, code, message, line)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, i, e.Code, e.Message, e.Line); err != nil {
			return fmt.Errorf("write run %s: error %d: %w", run.ID, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run %s: commit: %w", run.ID, err)
	}
	return nil
}

// boolToInt converts the pass flag to SQLite's integer boolean.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

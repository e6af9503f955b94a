package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/faultline/internal/outcome"
)

// ErrRunNotFound is returned by ReadRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// ListOptions filters ListRuns.
type ListOptions struct {
	// Scenario limits the listing to one scenario when non-empty.
	Scenario string

	// FailedOnly limits the listing to runs whose verdict failed.
	FailedOnly bool

	// Limit caps the number of runs returned; 0 means no limit.
	Limit int
}

const runColumns = `id, seq, scenario, expected, observed, pass, exit_status, transcript, stderr, recorded_at`

// ReadRun returns one run with its verdict errors.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}

	run.Errors, err = s.readRunErrors(ctx, id)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// ListRuns returns runs newest first.
//
// Returns an empty slice (not nil) if no runs match.
func (s *Store) ListRuns(ctx context.Context, opts ListOptions) ([]Run, error) {
	var where []string
	var args []any
	if opts.Scenario != "" {
		where = append(where, "scenario = ?")
		args = append(args, opts.Scenario)
	}
	if opts.FailedOnly {
		where = append(where, "pass = 0")
	}

	// Build query with optional filters
	query := `SELECT ` + runColumns + ` FROM runs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	// Deterministic ordering: newest first, ties broken by seq then id
	query += ` ORDER BY recorded_at DESC, seq DESC, id COLLATE BINARY DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	rows.Close()

	// Errors are loaded after the cursor is closed: the pool holds a
	// single connection.
	for i := range runs {
		runs[i].Errors, err = s.readRunErrors(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// readRunErrors loads a run's verdict errors in recorded order.
// Returns an empty slice (not nil) for a run without errors.
func (s *Store) readRunErrors(ctx context.Context, id string) ([]RunError, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, message, line
		FROM run_errors
		WHERE run_id = ?
		ORDER BY idx ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query run errors: %w", err)
	}
	defer rows.Close()

	errs := []RunError{}
	for rows.Next() {
		var e RunError
		if err := rows.Scan(&e.Code, &e.Message, &e.Line); err != nil {
			return nil, fmt.Errorf("scan run error: %w", err)
		}
		errs = append(errs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run errors: %w", err)
	}
	return errs, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRun scans one runs row (without its errors).
func scanRun(row rowScanner) (Run, error) {
	var (
		run                  Run
		expected, observed   string
		pass                 int
		transcript, recorded string
	)
	if err := row.Scan(
		&run.ID,
		&run.Seq,
		&run.Scenario,
		&expected,
		&observed,
		&pass,
		&run.ExitStatus,
		&transcript,
		&run.Stderr,
		&recorded,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	var err error
	if run.Expected, err = outcome.Parse(expected); err != nil {
		return Run{}, fmt.Errorf("scan run %s: %w", run.ID, err)
	}
	if observed != outcome.Unknown.String() {
		if run.Observed, err = outcome.Parse(observed); err != nil {
			return Run{}, fmt.Errorf("scan run %s: %w", run.ID, err)
		}
	}
	run.Pass = pass == 1
	if run.Transcript, err = unmarshalTranscript(transcript); err != nil {
		return Run{}, fmt.Errorf("scan run %s: %w", run.ID, err)
	}
	if run.RecordedAt, err = parseRecordedAt(recorded); err != nil {
		return Run{}, fmt.Errorf("scan run %s: %w", run.ID, err)
	}
	return run, nil
}

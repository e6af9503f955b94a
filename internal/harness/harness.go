package harness

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/faultline/internal/outcome"
	"github.com/roach88/faultline/internal/sink"
)

// IDGenerator produces run IDs.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Clock hands out run sequence numbers.
type Clock interface {
	Next() int64
}

type counter struct{ seq atomic.Int64 }

func (c *counter) Next() int64 { return c.seq.Add(1) }

// Recorder persists supervised runs. *store.Store implements it through
// an adapter in the cli package.
type Recorder interface {
	RecordResult(ctx context.Context, r *Result) error
}

// Supervisor launches guests and judges their runs.
type Supervisor struct {
	ids      IDGenerator
	clock    Clock
	recorder Recorder
	logger   *slog.Logger
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithIDGenerator overrides the UUIDv7 run IDs (for deterministic tests).
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Supervisor) { s.ids = g }
}

// WithClock overrides the run sequence source.
func WithClock(c Clock) Option {
	return func(s *Supervisor) { s.clock = c }
}

// WithRecorder persists every judged run.
func WithRecorder(r Recorder) Option {
	return func(s *Supervisor) { s.recorder = r }
}

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(s *Supervisor) { s.logger = l }
}

// New creates a Supervisor.
func New(opts ...Option) *Supervisor {
	s := &Supervisor{
		ids:    UUIDv7Generator{},
		clock:  &counter{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Supervise runs the scenario's guest command and judges the run.
//
// Execution flow:
// 1. Start the command with the scenario's environment and timeout
// 2. Stream stdout as the transcript; for mechanism "none" the guest idles
//    after reporting, so it is stopped once a marker line arrives
// 3. Decode the exit status and judge both channels
// 4. Record the result if a recorder is configured
//
// The returned error is reserved for failures to launch the guest; a guest
// that misbehaves yields a failing Result.
func (s *Supervisor) Supervise(ctx context.Context, sc *Scenario) (*Result, error) {
	result := NewResult(sc.Name, sc.Expect)
	result.RunID = s.ids.Generate()
	result.Seq = s.clock.Next()

	timeout := sc.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, sc.Command[0], sc.Command[1:]...)
	cmd.Dir = sc.Dir
	cmd.Env = os.Environ()
	for k, v := range sc.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	s.logger.Info("starting guest", "scenario", sc.Name, "run_id", result.RunID, "command", strings.Join(sc.Command, " "))
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start guest: %w", err)
	}

	stoppedOnMarker := false
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		result.Transcript = append(result.Transcript, strings.TrimSuffix(line, "\r"))
		s.logger.Debug("guest", "line", line)

		if sc.Signal.Mechanism == outcome.MechanismNone && isMarkerLine(line, sc.Ident, sc.Markers) {
			stoppedOnMarker = true
			cancel()
			break
		}
	}
	if !stoppedOnMarker {
		// Drain past a scanner error so the guest never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, stdout)
	}

	waitErr := cmd.Wait()
	result.Stderr = stderr.String()
	result.ExitStatus = exitStatus(cmd, waitErr)

	timedOut := !stoppedOnMarker && errors.Is(runCtx.Err(), context.DeadlineExceeded)
	if timedOut {
		result.AddError(verdictErrorf(ErrCodeTimeout, 0, "guest did not finish within %s", timeout))
	}
	if ctxErr := ctx.Err(); ctxErr != nil && !timedOut {
		return nil, fmt.Errorf("supervision cancelled: %w", ctxErr)
	}

	obs, sinkErrs := ParseTranscript(result.Transcript, sc.Ident, sc.Markers)
	sig := sc.Signal
	if timedOut || stoppedOnMarker {
		// The exit status is ours, not the guest's.
		sig.Mechanism = outcome.MechanismNone
	}
	Judge(result, obs, sinkErrs, result.ExitStatus, sig)

	s.logger.Info("guest finished",
		"scenario", sc.Name,
		"run_id", result.RunID,
		"exit_status", result.ExitStatus,
		"observed", result.Observed.String(),
		"pass", result.Pass,
	)

	if s.recorder != nil {
		if err := s.recorder.RecordResult(ctx, result); err != nil {
			return result, fmt.Errorf("failed to record run: %w", err)
		}
	}
	return result, nil
}

// Verify judges an already captured transcript and exit status, for runs
// launched outside the supervisor (e.g. a CI job that saved the serial log).
func (s *Supervisor) Verify(ctx context.Context, sc *Scenario, transcript string, status int) (*Result, error) {
	result := NewResult(sc.Name, sc.Expect)
	result.RunID = s.ids.Generate()
	result.Seq = s.clock.Next()
	result.Transcript = sink.SplitLines(transcript)
	result.ExitStatus = status

	obs, sinkErrs := ParseTranscript(result.Transcript, sc.Ident, sc.Markers)
	Judge(result, obs, sinkErrs, status, sc.Signal)

	if s.recorder != nil {
		if err := s.recorder.RecordResult(ctx, result); err != nil {
			return result, fmt.Errorf("failed to record run: %w", err)
		}
	}
	return result, nil
}

func isMarkerLine(line, ident string, m outcome.Markers) bool {
	line = strings.TrimSpace(line)
	if ident != "" {
		line = strings.TrimSpace(strings.TrimPrefix(line, ident))
	}
	return line == m.Pass || line == m.Fail
}

// exitStatus extracts the guest's exit status; -1 means it was killed by a
// signal or never exited.
func exitStatus(cmd *exec.Cmd, waitErr error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

package guest

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/roach88/faultline/internal/outcome"
	"github.com/roach88/faultline/internal/sink"
	"github.com/roach88/faultline/internal/terminate"
)

// ErrAlreadyReported is returned when a second outcome is reported.
var ErrAlreadyReported = errors.New("outcome already reported")

// Reporter drives both outcome channels from a single Outcome value, so the
// marker line and the termination code always agree. It accepts exactly one
// report.
type Reporter struct {
	sink     sink.Sink
	signaler terminate.Signaler
	codes    outcome.Codes
	markers  outcome.Markers
	logger   *slog.Logger

	reported atomic.Bool
}

// NewReporter creates a reporter.
func NewReporter(s sink.Sink, sig terminate.Signaler, codes outcome.Codes, markers outcome.Markers, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		sink:     s,
		signaler: sig,
		codes:    codes,
		markers:  markers.WithDefaults(),
		logger:   logger,
	}
}

// Report writes the marker for o and then emits its code. It is reached
// from the fault path and must not fault: sink writes cannot fail, and a
// signaling error is logged and returned rather than raised.
func (r *Reporter) Report(o outcome.Outcome) error {
	if o != outcome.Pass && o != outcome.Fail {
		return errors.New("cannot report unknown outcome")
	}
	if !r.reported.CompareAndSwap(false, true) {
		return ErrAlreadyReported
	}

	r.sink.Println(r.markers.For(o))

	code := r.codes.For(o)
	r.logger.Debug("signaling outcome", "outcome", o.String(), "code", uint8(code))
	if err := r.signaler.Signal(code); err != nil {
		r.logger.Error("termination signal failed", "outcome", o.String(), "code", uint8(code), "error", err)
		return err
	}
	return nil
}

// Reported reports whether an outcome has been reported.
func (r *Reporter) Reported() bool {
	return r.reported.Load()
}

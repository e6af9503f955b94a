package guest

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/faultline/internal/config"
	"github.com/roach88/faultline/internal/fault"
	"github.com/roach88/faultline/internal/outcome"
	"github.com/roach88/faultline/internal/sink"
	"github.com/roach88/faultline/internal/terminate"
)

// Entry holds the collaborators of the entry point.
type Entry struct {
	sink     sink.Sink
	signaler terminate.Signaler
	codes    outcome.Codes
	markers  outcome.Markers
	logger   *slog.Logger
	halt     func()
}

// Option configures an Entry.
type Option func(*Entry)

// WithSink sets the textual sink. Default: console.
func WithSink(s sink.Sink) Option {
	return func(e *Entry) { e.sink = s }
}

// WithSignaler sets the termination signaler. Default: terminate.None.
func WithSignaler(s terminate.Signaler) Option {
	return func(e *Entry) { e.signaler = s }
}

// WithCodes sets the termination codes. Default: outcome.DefaultCodes.
func WithCodes(c outcome.Codes) Option {
	return func(e *Entry) { e.codes = c }
}

// WithMarkers sets the marker lines. Default: outcome.DefaultMarkers.
func WithMarkers(m outcome.Markers) Option {
	return func(e *Entry) { e.markers = m }
}

// WithLogger sets the diagnostic logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(e *Entry) { e.logger = l }
}

// WithHalt replaces the terminal idle state. halt must not return.
func WithHalt(halt func()) Option {
	return func(e *Entry) { e.halt = halt }
}

func newEntry(opts []Option) *Entry {
	e := &Entry{
		sink:     sink.Console(),
		signaler: terminate.None{},
		codes:    outcome.DefaultCodes(),
		markers:  outcome.DefaultMarkers(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		halt:     terminate.Idle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run installs the fault handler, writes the identifying line, and runs the
// test body. A fault yields Pass with its context; a normal return or a
// runtime.Goexit yields Fail. Run reports nothing on the outcome channel.
func Run(t Test, s sink.Sink) (outcome.Outcome, *fault.Fault, error) {
	if err := t.validate(); err != nil {
		return outcome.Unknown, nil, err
	}

	h, err := fault.Install()
	if err != nil {
		return outcome.Unknown, nil, fmt.Errorf("install fault handler: %w", err)
	}
	defer h.Uninstall()

	exit, f, err := h.Run(func() {
		s.Println(t.Ident())
		t.Body()
	})
	if err != nil {
		return outcome.Unknown, nil, err
	}

	if exit == fault.Faulted {
		return outcome.Pass, f, nil
	}
	return outcome.Fail, nil, nil
}

// Main is the guest entry point. It runs t, reports the outcome on both
// channels, and halts. It never returns.
func Main(t Test, opts ...Option) {
	e := newEntry(opts)
	e.main(t)
	// halt must not return; if a replacement does, idle anyway.
	terminate.Idle()
}

func (e *Entry) main(t Test) {
	rep := NewReporter(e.sink, e.signaler, e.codes, e.markers, e.logger)

	o, f, err := Run(t, e.sink)
	switch {
	case err != nil:
		// The body never ran, so it cannot have faulted. The identifying
		// line still precedes the marker.
		e.logger.Error("test did not run", "test", t.Ident(), "error", err)
		e.sink.Println(t.Ident())
		e.onReturn(rep, t)
	case o == outcome.Pass:
		e.onFault(rep, t, f)
	default:
		e.onReturn(rep, t)
	}

	e.halt()
}

// onFault is the fault handler proper: the expected fault happened.
func (e *Entry) onFault(rep *Reporter, t Test, f *fault.Fault) {
	e.logger.Debug("test faulted", "test", t.Ident(), "fault", f.Value, "runtime", f.Runtime())
	_ = rep.Report(outcome.Pass)
}

// onReturn handles a body that returned without the expected fault.
func (e *Entry) onReturn(rep *Reporter, t Test) {
	e.logger.Debug("test returned without faulting", "test", t.Ident())
	_ = rep.Report(outcome.Fail)
}

// Options builds entry options from a guest configuration. Sink devices that
// cannot be opened are skipped with a warning so the sink stays available;
// the returned closers must be closed only after the outcome is reported.
func Options(cfg *config.Config, logger *slog.Logger) ([]Option, []io.Closer, error) {
	var (
		sinks   sink.Tee
		closers []io.Closer
	)
	for _, target := range cfg.Sinks {
		if target == config.SinkConsole {
			sinks = append(sinks, sink.Console())
			continue
		}
		s, c, err := sink.OpenDevice(target)
		if err != nil {
			logger.Warn("skipping sink", "target", target, "error", err)
			continue
		}
		sinks = append(sinks, s)
		closers = append(closers, c)
	}
	if len(sinks) == 0 {
		logger.Warn("no usable sink configured, falling back to console")
		sinks = append(sinks, sink.Console())
	}

	sig, err := terminate.For(cfg.Mechanism(), cfg.Signal.Port, cfg.Signal.IOBase)
	if err != nil {
		for _, c := range closers {
			c.Close()
		}
		return nil, nil, err
	}

	opts := []Option{
		WithSink(sinks),
		WithSignaler(sig),
		WithCodes(cfg.Codes()),
		WithMarkers(cfg.Markers),
		WithLogger(logger),
	}
	return opts, closers, nil
}

// MainFromEnv configures the entry point from FAULTLINE_* environment
// variables and runs Main. A configuration error is logged and the
// defaults are used, so the run still produces exactly one outcome.
func MainFromEnv(t Test) {
	cfg, err := config.FromEnv()
	if err != nil {
		def := config.Default()
		cfg = &def
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))
	if err != nil {
		logger.Error("invalid guest configuration, using defaults", "error", err)
	}

	opts, _, err := Options(cfg, logger)
	if err != nil {
		logger.Error("invalid termination mechanism, signaling disabled", "error", err)
		opts = []Option{WithLogger(logger)}
	}
	// Sink devices stay open: the guest never exits on its own.
	Main(t, opts...)
}

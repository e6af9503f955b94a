// Package terminate implements the coded half of the outcome channel: the
// termination signal a supervising process observes after the guest stops,
// and the terminal idle state that follows it.
package terminate

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/roach88/faultline/internal/outcome"
)

// Signaler emits a termination code to the supervising environment.
//
// A successful Signal usually does not return: the VM or process is gone.
// When it does return, the caller proceeds to the idle state.
type Signaler interface {
	Signal(code outcome.Code) error
}

// ErrUnsupported is returned by signalers that cannot work on this platform.
var ErrUnsupported = errors.New("termination mechanism not supported on this platform")

// Default isa-debug-exit wiring: QEMU's -device isa-debug-exit,iobase=0xf4,iosize=0x04.
const (
	DefaultPortDevice = "/dev/port"
	DefaultIOBase     = 0xf4
)

// DebugExit writes the code to QEMU's isa-debug-exit I/O port through the
// port device. QEMU exits with status (code << 1) | 1.
type DebugExit struct {
	// Port is the I/O port device; defaults to /dev/port.
	Port string
	// IOBase is the port offset of the isa-debug-exit device.
	IOBase int64
}

// Signal implements Signaler.
func (d DebugExit) Signal(code outcome.Code) error {
	port := d.Port
	if port == "" {
		port = DefaultPortDevice
	}
	f, err := os.OpenFile(port, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("open port device: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteAt([]byte{byte(code)}, d.IOBase); err != nil {
		return fmt.Errorf("write isa-debug-exit port %#x: %w", d.IOBase, err)
	}
	return nil
}

// ProcessExit terminates the current process with the code as exit status.
type ProcessExit struct {
	// Exit replaces os.Exit in tests.
	Exit func(int)
}

// Signal implements Signaler.
func (p ProcessExit) Signal(code outcome.Code) error {
	exit := p.Exit
	if exit == nil {
		exit = os.Exit
	}
	exit(int(code))
	return nil
}

// PowerOff syncs filesystems and powers the machine off. Intended for a
// guest running as PID 1. The code is not transmitted; the supervisor must
// rely on the textual sink.
type PowerOff struct{}

// Signal implements Signaler.
func (PowerOff) Signal(code outcome.Code) error {
	return powerOff()
}

// None emits nothing.
type None struct{}

// Signal implements Signaler.
func (None) Signal(outcome.Code) error { return nil }

// Recorder records every code it is asked to signal.
//
// Thread-safety: Recorder is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	codes []outcome.Code
	err   error
}

// NewRecorder creates a recorder that returns err from every Signal.
func NewRecorder(err error) *Recorder {
	return &Recorder{err: err}
}

// Signal implements Signaler.
func (r *Recorder) Signal(code outcome.Code) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = append(r.codes, code)
	return r.err
}

// Codes returns a copy of the recorded codes.
func (r *Recorder) Codes() []outcome.Code {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]outcome.Code, len(r.codes))
	copy(out, r.codes)
	return out
}

// For builds the signaler for a mechanism.
func For(m outcome.Mechanism, port string, ioBase int64) (Signaler, error) {
	switch m {
	case outcome.MechanismDebugExit:
		return DebugExit{Port: port, IOBase: ioBase}, nil
	case outcome.MechanismProcessExit:
		return ProcessExit{}, nil
	case outcome.MechanismPowerOff:
		return PowerOff{}, nil
	case outcome.MechanismNone, "":
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown termination mechanism %q", m)
	}
}

// Idle blocks forever. It sleeps rather than blocking on a channel so the
// runtime's deadlock detector never fires when no other goroutine is alive.
func Idle() {
	for {
		time.Sleep(time.Hour)
	}
}

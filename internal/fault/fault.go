// Package fault provides the scoped fault handler used to run a test body
// that is expected to panic.
//
// Only one Handler may be installed at a time in a process. While
// installed, Run executes a function on a dedicated goroutine with
// panic-on-fault enabled, so both Go panics and unexpected memory faults
// are intercepted and returned as a *Fault instead of crashing the process.
//
// The handler covers only the goroutine Run starts. A panic on a goroutine
// the guarded function spawns is not recovered and crashes the process
// with no marker and no termination code. Test bodies must fault on their
// own goroutine.
//
// Fatal runtime errors (concurrent map writes, stack exhaustion, out of
// memory) are not panics and cannot be intercepted.
package fault

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// ErrAlreadyInstalled is returned by Install while another Handler is active.
var ErrAlreadyInstalled = errors.New("fault handler already installed")

// ErrNotInstalled is returned by Run on a handler that was uninstalled.
var ErrNotInstalled = errors.New("fault handler not installed")

var active atomic.Bool

// Fault is the context delivered when a guarded function faults.
type Fault struct {
	// Value is the value passed to panic, or the runtime.Error for a
	// runtime fault.
	Value any
	// Stack is the faulting goroutine's stack at recovery time.
	Stack []byte
}

// Error implements error so a Fault can travel through error paths.
func (f *Fault) Error() string {
	return fmt.Sprintf("fault: %v", f.Value)
}

// Runtime reports whether the fault was raised by the Go runtime (nil
// dereference, index out of range, memory fault) rather than by panic.
func (f *Fault) Runtime() bool {
	_, ok := f.Value.(runtime.Error)
	return ok
}

// Handler is an installed fault handler.
type Handler struct {
	once      sync.Once
	installed atomic.Bool
}

// Install activates the process's single fault handler.
func Install() (*Handler, error) {
	if !active.CompareAndSwap(false, true) {
		return nil, ErrAlreadyInstalled
	}
	h := &Handler{}
	h.installed.Store(true)
	return h, nil
}

// Installed reports whether any handler is currently active.
func Installed() bool {
	return active.Load()
}

// Uninstall releases the handler. Calling it more than once is a no-op.
func (h *Handler) Uninstall() {
	h.once.Do(func() {
		h.installed.Store(false)
		active.Store(false)
	})
}

// Exit describes how a guarded function finished.
type Exit int

const (
	// Returned means the function returned normally.
	Returned Exit = iota
	// Faulted means the function panicked.
	Faulted
	// Aborted means the function called runtime.Goexit.
	Aborted
)

func (e Exit) String() string {
	switch e {
	case Returned:
		return "returned"
	case Faulted:
		return "faulted"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Run executes fn and blocks until it finishes. It returns Faulted with the
// fault context if fn panicked, Returned if fn returned, and Aborted if fn
// called runtime.Goexit.
func (h *Handler) Run(fn func()) (Exit, *Fault, error) {
	if !h.installed.Load() {
		return Returned, nil, ErrNotInstalled
	}

	type result struct {
		exit  Exit
		fault *Fault
	}
	done := make(chan result, 1)

	go func() {
		// Per-goroutine setting.
		prev := debug.SetPanicOnFault(true)
		returned := false
		defer func() {
			debug.SetPanicOnFault(prev)
			r := recover()
			switch {
			case r != nil:
				done <- result{exit: Faulted, fault: &Fault{Value: r, Stack: debug.Stack()}}
			case !returned:
				done <- result{exit: Aborted}
			default:
				done <- result{exit: Returned}
			}
		}()
		fn()
		returned = true
	}()

	res := <-done
	return res.exit, res.fault, nil
}

// Package sink implements the textual half of the outcome channel: an
// append-only line sink that never reports failure to its caller.
//
// Sinks are written to from the fault path, so every implementation must
// absorb its own errors and panics.
package sink

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Sink is an append-only text output.
type Sink interface {
	// Print appends s as-is.
	Print(s string)
	// Println appends s followed by a newline.
	Println(s string)
}

// Writer adapts an io.Writer into a Sink. Write errors and panics raised
// by the underlying writer are dropped; Err reports the first one.
type Writer struct {
	mu  sync.Mutex
	w   io.Writer
	err error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Print implements Sink.
func (s *Writer) Print(str string) {
	s.write(str)
}

// Println implements Sink.
func (s *Writer) Println(str string) {
	s.write(str + "\n")
}

func (s *Writer) write(str string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if r := recover(); r != nil && s.err == nil {
			s.err = fmt.Errorf("sink writer panicked: %v", r)
		}
	}()
	if s.w == nil {
		return
	}
	if _, err := io.WriteString(s.w, str); err != nil && s.err == nil {
		s.err = err
	}
}

// Err returns the first error the underlying writer produced, if any.
func (s *Writer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Console returns a sink on the process's standard output.
func Console() *Writer {
	return NewWriter(os.Stdout)
}

// OpenDevice opens a character device (typically a serial port such as
// /dev/ttyS0) for appending and wraps it as a sink. The caller owns the
// returned closer.
func OpenDevice(path string) (*Writer, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("open sink device %s: %w", path, err)
	}
	return NewWriter(f), f, nil
}

// Tee fans every write out to all of its sinks, in order.
type Tee []Sink

// Print implements Sink.
func (t Tee) Print(s string) {
	for _, sk := range t {
		sk.Print(s)
	}
}

// Println implements Sink.
func (t Tee) Println(s string) {
	for _, sk := range t {
		sk.Println(s)
	}
}

// Discard is a sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Print(string)   {}
func (discard) Println(string) {}

// Recorder keeps everything written to it in memory.
//
// Thread-safety: Recorder is safe for concurrent use.
type Recorder struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Print implements Sink.
func (r *Recorder) Print(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.WriteString(s)
}

// Println implements Sink.
func (r *Recorder) Println(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.WriteString(s)
	r.buf.WriteByte('\n')
}

// String returns the raw recorded text.
func (r *Recorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

// Lines returns the recorded text split into lines. A trailing partial
// line is included; a trailing newline does not produce an empty line.
func (r *Recorder) Lines() []string {
	return SplitLines(r.String())
}

// SplitLines splits text into lines the way the transcript parser sees
// them. Carriage returns before newlines are dropped.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if text == "" {
		return []string{}
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Package check provides the assertions a should-fault test body uses as
// its triggering condition. A violated assertion panics with an
// *AssertionError; it never returns an error.
package check

import (
	"fmt"
	"reflect"
	"runtime"
)

// AssertionError is the panic value raised by a failed assertion.
type AssertionError struct {
	Op    string
	Left  any
	Right any
	// File and Line locate the caller of the assertion.
	File string
	Line int
}

func (e *AssertionError) Error() string {
	loc := ""
	if e.File != "" {
		loc = fmt.Sprintf(" at %s:%d", e.File, e.Line)
	}
	if e.Op == "true" {
		return fmt.Sprintf("assertion failed: condition is false%s", loc)
	}
	return fmt.Sprintf("assertion `left %s right` failed%s\n  left: %#v\n right: %#v", e.Op, loc, e.Left, e.Right)
}

// Equal panics unless left and right are deeply equal.
func Equal[T any](left, right T) {
	if !reflect.DeepEqual(left, right) {
		panic(newAssertionError("==", left, right))
	}
}

// NotEqual panics if left and right are deeply equal.
func NotEqual[T any](left, right T) {
	if reflect.DeepEqual(left, right) {
		panic(newAssertionError("!=", left, right))
	}
}

// True panics unless cond holds.
func True(cond bool) {
	if !cond {
		panic(newAssertionError("true", nil, nil))
	}
}

func newAssertionError(op string, left, right any) *AssertionError {
	e := &AssertionError{Op: op, Left: left, Right: right}
	// 0 is newAssertionError, 1 the assertion, 2 its caller.
	if _, file, line, ok := runtime.Caller(2); ok {
		e.File = file
		e.Line = line
	}
	return e
}

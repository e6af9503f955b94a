// Package outcome defines the two-valued result of a should-fault test and
// the termination codes it maps to.
//
// A run has exactly one Outcome. Pass means the test body faulted, Fail
// means it returned normally. Each Outcome maps to exactly one Code, and
// each Code maps to the exit status the supervising process observes for a
// given signaling Mechanism:
//
//	Pass -> Success (0x10) -> isa-debug-exit status 33, process exit 16
//	Fail -> Failed  (0x11) -> isa-debug-exit status 35, process exit 17
package outcome

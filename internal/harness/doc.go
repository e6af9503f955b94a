// Package harness is the supervising side of the should-fault protocol.
//
// The harness launches a guest command described by a Scenario, captures
// the guest's textual sink (its standard output, or a VM's serial console
// forwarded there), decodes its termination signal from the exit status,
// and checks that the two channels agree on a single outcome.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: should_fail
//	description: "0 == 1 must fault and report success"
//	command: ["qemu-system-x86_64", "-kernel", "bzImage", "-initrd", "initrd.cpio",
//	          "-device", "isa-debug-exit,iobase=0xf4,iosize=0x04",
//	          "-serial", "stdio", "-display", "none"]
//	expect: pass
//	ident: "should_panic::should_fail..."
//	signal:
//	  mechanism: isa-debug-exit
//	  success_code: 0x10
//	  failed_code: 0x11
//	timeout: 60s
//
// Relative command paths are resolved against the scenario file's directory.
//
// # Verdict
//
// A run passes when all of the following hold:
//
//   - the identifying line appears before the outcome marker
//   - exactly one outcome marker appears
//   - the exit status decodes to the same outcome as the marker
//     (mechanisms poweroff and none carry no code; the marker alone decides)
//   - the observed outcome equals the scenario's expect
//
// Every violated rule is recorded as a *VerdictError on the Result.
package harness

// Package guest is the in-guest side of the should-fault protocol.
//
// A guest binary's main function hands a single Test to Main, which never
// returns:
//
//	func main() {
//	    guest.MainFromEnv(guest.Test{
//	        Suite: "should_panic",
//	        Name:  "should_fail",
//	        Body:  func() { check.Equal(0, 1) },
//	    })
//	}
//
// Main installs the scoped fault handler, writes the test's identifying
// line to the textual sink, and runs the body. A fault is the expected
// result and is reported as Pass; a normal return is reported as Fail.
// Reporting writes exactly one marker line and emits exactly one
// termination code, then the guest idles until the supervisor stops it.
//
// The transcript of a passing run on the default configuration is:
//
//	should_panic::should_fail...
//	[ok]
//
// followed by isa-debug-exit code 0x10 (QEMU exit status 33).
package guest

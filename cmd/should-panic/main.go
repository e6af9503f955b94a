// Command should-panic is a guest test binary whose only test is expected
// to fault. Boot it as the guest's init (or run it under `faultline test`)
// and read the outcome from the serial console and the exit code.
package main

import (
	"github.com/roach88/faultline/internal/check"
	"github.com/roach88/faultline/internal/guest"
)

func main() {
	guest.MainFromEnv(guest.Test{
		Suite: "should_panic",
		Name:  "should_fail",
		Body:  shouldFail,
	})
}

func shouldFail() {
	check.Equal(0, 1)
}

// Command faultline supervises should-fault guests and records their runs.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/faultline/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}

// Command dsd-utils inspects, characterizes, and synthesizes DogStatsD
// metric traffic offline: cat decodes a capture to text, analyze
// summarizes it, and generate drives synthetic emission from a projected
// configuration.
package main

import (
	"fmt"
	"os"

	"github.com/scottopell/dogstatsd-utils/cmd/dsd-utils/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "dsd-utils:", err)
		os.Exit(cmd.ExitCodeFor(err))
	}
}

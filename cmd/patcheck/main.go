// Command patcheck validates DRC regression layouts against recorded
// violation markers.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/patcheck/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "patcheck:", err)
		os.Exit(cli.GetExitCode(err))
	}
}

// Command tessera drives and observes briefcase change feeds from the
// terminal.
package main

import (
	"os"

	"github.com/tessera3d/tessera/cmd/tessera/commands"
)

// Filled in by the release build through -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	if err := commands.Execute(); err != nil {
		// The failing command already rendered the error to stderr.
		os.Exit(1)
	}
}

// Vesta Core - voice-assisted room controller
//
// This is the main entry point for the vesta binary. The service itself runs
// under `vesta serve`; the other subcommands are operator tools.
package main

import (
	"os"

	"github.com/nerrad567/vesta-core/cmd/vesta/commands"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	// Errors are printed by the printer helpers before returning to cobra.
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

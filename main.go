package main

import (
	"context"
	"os"

	"github.com/tphakala/stressnet-go/cmd"
	"github.com/tphakala/stressnet-go/internal/buildinfo"
)

// Build metadata, set with -ldflags "-X main.version=... -X main.buildDate=..."
var (
	version   = "dev"
	buildDate = ""
)

func main() {
	os.Exit(run())
}

// run executes the CLI and releases logging and telemetry before the
// process exits.
func run() int {
	rootCmd, cleanup := cmd.RootCommand(buildinfo.NewContext(version, buildDate))
	defer cleanup()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		return 1
	}
	return 0
}

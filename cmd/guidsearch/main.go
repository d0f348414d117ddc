// Package main is the entry point for the guidsearch CLI.
//
// This binary recovers a device-local GUID from an attached iOS device by
// rebooting it, waiting for it to reconnect, collecting a syslog archive and
// scanning the archive for the BLDatabaseManager.sqlite log line. All of the
// logic lives in the internal packages; main only wires up version info and
// executes the root command.
//
// Build-time variables (version, commit, date) are injected via ldflags
// by GoReleaser during the release process. During development, they
// default to "dev", "none", and "unknown" respectively.
package main

import (
	"guidsearch/internal/cli"
)

// version, commit, and date are set by GoReleaser at build time
// via ldflags. They provide binary identification for the --version
// flag output.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Inject build-time version info into the CLI package.
	// This decouples the build system (ldflags) from the CLI framework
	// (cobra), keeping main.go minimal.
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	rootCmd := cli.NewRootCommand()
	cli.Execute(rootCmd)
}

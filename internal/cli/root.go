// Package cli implements the cobra-based CLI for guidsearch.
//
// The root command runs the whole recovery pipeline end-to-end — a bare
// invocation needs no flags or arguments. This file defines the root
// command, global flags, logging setup and the error-to-exit-code
// translation; the pipeline orchestration lives in run.go and the
// preflight check in doctor.go.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/apex/log"
	clihandler "github.com/apex/log/handlers/cli"
	"github.com/spf13/cobra"

	"guidsearch/internal/model"
)

// Global flag variables shared across all commands. These are bound to
// cobra persistent flags on the root command, which makes them available
// to every subcommand automatically.
var (
	// jsonOutput controls whether command output is formatted as JSON.
	// When true, stdout carries structured JSON for machine consumption
	// and all narration moves to stderr.
	jsonOutput bool

	// verbose enables debug-level logging output.
	verbose bool

	// configPath points at an optional config file (JSONC or YAML).
	configPath string

	// udid targets a specific device when several are attached.
	udid string
)

// Version, Commit and Date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
//
// Unlike a hub-style CLI, the root command itself does the work: running
// it executes the reboot → wait → collect → extract pipeline. The doctor
// subcommand exists for preflight checks.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "guidsearch",
		Short: "Recover the BLDatabaseManager GUID from an iOS device",
		Long: `guidsearch reboots an attached iOS device, waits for it to reconnect,
collects a syslog archive and scans it for the BLDatabaseManager.sqlite
log line carrying the device-local GUID.

The run is fully sequential: reboot → wait → collect → extract. Any stage
failing ends the run with exit code 1; on success the GUID is printed and
the exit code is 0. The collected archive is always removed before exit.`,

		Args: cobra.NoArgs,

		// SilenceUsage prevents cobra from printing usage on every error.
		// SilenceErrors prevents double printing — Execute formats errors.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},

		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecover(cmd.Context())
		},
	}

	// PersistentFlags are inherited by all subcommands.
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (.json, .jsonc, .yaml or .yml)")
	rootCmd.PersistentFlags().StringVar(&udid, "udid", "", "Target device UDID (default: first device)")

	rootCmd.AddCommand(NewDoctorCommand())

	return rootCmd
}

// setupLogging configures the apex/log CLI handler. Stage narration goes
// to stdout in the default text mode; with --json, stdout is reserved for
// the report and narration moves to stderr.
func setupLogging() {
	dest := os.Stdout
	if jsonOutput {
		dest = os.Stderr
	}
	log.SetHandler(clihandler.New(dest))

	if verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// It inspects errors returned by cobra commands and translates them
// into OS exit codes. CLIError types carry their own exit codes; other
// errors default to exit code 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		var cliErr *model.CLIError
		if errors.As(err, &cliErr) {
			printError(cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}

		printError(err.Error(), nil)
		os.Exit(int(model.ExitFailure))
	}
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag. Errors always go to
// stderr; stdout is reserved for successful command output.
func printError(message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		if underlying != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", message)
		}
	}
}

// IsJSONOutput returns whether the --json flag is set.
// Subcommands use this to decide their output format.
func IsJSONOutput() bool {
	return jsonOutput
}

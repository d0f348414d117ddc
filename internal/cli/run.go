// Package cli — run.go implements the root command's action: the full
// recovery pipeline.
//
// Orchestration steps:
//  1. Load the layered configuration (defaults → file → environment)
//  2. Apply command-line overrides (--udid)
//  3. Run the pipeline over the real command runner
//  4. Print the report (text or JSON) and translate failure into exit 1
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"

	"guidsearch/internal/command"
	"guidsearch/internal/config"
	"guidsearch/internal/model"
	"guidsearch/internal/pipeline"
)

// runRecover is the main orchestration function for the root command.
func runRecover(ctx context.Context) error {
	// Step 1: effective configuration.
	cfg, err := config.Load(configPath, os.Environ())
	if err != nil {
		return model.WrapCLIError(model.ExitFailure, "invalid configuration", err)
	}

	// Step 2: flag overrides beat file and environment.
	if udid != "" {
		cfg.UDID = udid
	}

	// Step 3: run the pipeline. The reconnection wait is the one long,
	// silent stretch, so it gets a spinner (interactive text mode) or
	// plain progress dots on stderr.
	report := pipeline.New(cfg, command.NewExecRunner(), waitProgressHooks()).Run(ctx)

	// Step 4: output.
	printRunReport(report)

	if !report.Succeeded() {
		failed := report.FailedStage()
		return model.NewCLIError(model.ExitFailure, failureMessage(failed))
	}
	return nil
}

// waitProgressHooks builds the pipeline hooks that render reconnection
// progress. In JSON mode there is no decoration at all; in verbose mode
// the per-poll debug logs replace it.
func waitProgressHooks() pipeline.Hooks {
	if jsonOutput || verbose {
		return pipeline.Hooks{}
	}

	var spin *spinner.Spinner
	return pipeline.Hooks{
		StageStart: func(stage model.Stage) {
			if stage != model.StageWait {
				return
			}
			spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond,
				spinner.WithWriter(os.Stderr))
			spin.Suffix = " waiting for device to reconnect"
			spin.Start()
		},
		StageDone: func(result model.StageResult) {
			if result.Stage == model.StageWait && spin != nil {
				spin.Stop()
				spin = nil
			}
		},
	}
}

// failureMessage renders the terminal failure line for a failed stage.
// A not-found extraction is reported distinctly from a query execution
// error, even though both exit 1.
func failureMessage(failed *model.StageResult) string {
	if failed == nil {
		return "recovery failed"
	}
	switch {
	case failed.Status == model.StatusNotFound:
		return "GUID not found in archive"
	case failed.Stage == model.StageReboot:
		return "failed to send reboot command"
	case failed.Stage == model.StageWait:
		return "device did not reconnect"
	case failed.Stage == model.StageCollect:
		return "failed to collect syslog archive"
	default:
		if failed.Detail != "" {
			return fmt.Sprintf("log query failed: %s", failed.Detail)
		}
		return "log query failed"
	}
}

// printRunReport outputs the run result in text or JSON format.
func printRunReport(report *model.RunReport) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(data))
		return
	}

	if report.Succeeded() {
		fmt.Printf("\nSUCCESS! GUID = %s\n", report.GUID)
	}
	// Failure details are printed by Execute via the returned CLIError,
	// keeping stdout clean for automation that scrapes the GUID.
}

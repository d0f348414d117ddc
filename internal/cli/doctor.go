// Package cli — doctor.go implements the "guidsearch doctor" command.
//
// The doctor command is a preflight check: it verifies that the external
// tools the pipeline depends on (pymobiledevice3, ideviceinfo, log) are
// present and executable, without touching any device. This turns the
// most common failure mode — a missing tool discovered three minutes
// into a run — into an instant, actionable report.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"guidsearch/internal/config"
	"guidsearch/internal/model"
)

// toolStatus describes one external tool's availability.
type toolStatus struct {
	// Name is the tool's role in the pipeline.
	Name string `json:"name"`

	// Path is the configured binary name or path.
	Path string `json:"path"`

	// Resolved is the absolute path the tool resolved to, when found.
	Resolved string `json:"resolved,omitempty"`

	// Found reports whether the tool is present and executable.
	Found bool `json:"found"`
}

// NewDoctorCommand creates the "doctor" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the required external tools are available",
		Long: `Verify that the external tools the recovery pipeline invokes are
installed and executable: pymobiledevice3 (reboot and syslog collection),
ideviceinfo (presence check) and log (archive query).

Examples:
  guidsearch doctor
  guidsearch doctor --json
  guidsearch doctor --config bench.yaml`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor()
		},
	}
}

// runDoctor resolves each configured tool and reports the results.
func runDoctor() error {
	cfg, err := config.Load(configPath, os.Environ())
	if err != nil {
		return model.WrapCLIError(model.ExitFailure, "invalid configuration", err)
	}

	tools := []toolStatus{
		resolveTool("pymobiledevice3", cfg.PymobiledevicePath),
		resolveTool("ideviceinfo", cfg.IdeviceinfoPath),
		resolveTool("log", cfg.LogPath),
	}

	printDoctorReport(tools)

	var missing []string
	for _, t := range tools {
		if !t.Found {
			missing = append(missing, t.Path)
		}
	}
	if len(missing) > 0 {
		return model.NewCLIError(model.ExitFailure,
			fmt.Sprintf("missing tools: %s", strings.Join(missing, ", ")))
	}
	return nil
}

// resolveTool checks whether the configured binary exists and is
// executable. Bare names are resolved through PATH; explicit paths are
// checked directly, matching how the command runner will invoke them.
func resolveTool(name, path string) toolStatus {
	status := toolStatus{Name: name, Path: path}

	if strings.ContainsRune(path, os.PathSeparator) {
		info, err := os.Stat(path)
		if err == nil && info.Mode().IsRegular() && info.Mode().Perm()&0111 != 0 {
			status.Found = true
			status.Resolved = path
		}
		return status
	}

	resolved, err := exec.LookPath(path)
	if err == nil {
		status.Found = true
		status.Resolved = resolved
	}
	return status
}

// printDoctorReport outputs the tool statuses in text or JSON format.
func printDoctorReport(tools []toolStatus) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(tools, "", "  ")
		fmt.Println(string(data))
		return
	}

	for _, t := range tools {
		mark := "MISSING"
		detail := t.Path
		if t.Found {
			mark = "ok"
			detail = t.Resolved
		}
		fmt.Printf("  %-18s %-8s %s\n", t.Name, mark, detail)
	}
}

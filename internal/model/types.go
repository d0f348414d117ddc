package model

import (
	"fmt"
	"strings"
)

// Stage identifies one step of the recovery pipeline. The pipeline always
// runs stages in declaration order and stops at the first failure:
//
//	Reboot → Wait → Collect → Extract
type Stage string

const (
	// StageReboot issues the restart command to the device.
	StageReboot Stage = "reboot"

	// StageWait polls for the device to reconnect after the reboot.
	StageWait Stage = "wait"

	// StageCollect collects the syslog archive from the device.
	StageCollect Stage = "collect"

	// StageExtract runs the filtered log query and scans for the GUID.
	StageExtract Stage = "extract"
)

// Stages lists all pipeline stages in execution order.
var Stages = []Stage{StageReboot, StageWait, StageCollect, StageExtract}

// String returns the string representation of Stage.
// This method satisfies the fmt.Stringer interface, enabling
// human-readable output in CLI commands and logging.
func (s Stage) String() string {
	return string(s)
}

// IsValid checks whether the Stage value is one of the predefined stages.
func (s Stage) IsValid() bool {
	switch s {
	case StageReboot, StageWait, StageCollect, StageExtract:
		return true
	default:
		return false
	}
}

// ParseStage converts a string to a Stage.
// Returns an error if the string does not match any valid stage.
func ParseStage(s string) (Stage, error) {
	stage := Stage(strings.ToLower(s))
	if !stage.IsValid() {
		return "", fmt.Errorf("invalid stage: %q (valid: reboot, wait, collect, extract)", s)
	}
	return stage, nil
}

// StageStatus represents the outcome of a single pipeline stage.
type StageStatus string

const (
	// StatusOK indicates the stage completed successfully.
	StatusOK StageStatus = "ok"

	// StatusFailed indicates the stage failed (command error, timeout,
	// or validation miss). The pipeline stops at the first failed stage.
	StatusFailed StageStatus = "failed"

	// StatusNotFound applies only to the extract stage: the log query
	// succeeded but no marker line or no identifier token was found.
	// This is a distinct outcome from an execution failure, even though
	// both map to the same terminal exit code.
	StatusNotFound StageStatus = "not-found"

	// StatusSkipped indicates the stage was never attempted because an
	// earlier stage failed.
	StatusSkipped StageStatus = "skipped"
)

// String returns the string representation of StageStatus.
func (s StageStatus) String() string {
	return string(s)
}

// IsValid checks whether the StageStatus value is one of the
// predefined valid outcomes.
func (s StageStatus) IsValid() bool {
	switch s {
	case StatusOK, StatusFailed, StatusNotFound, StatusSkipped:
		return true
	default:
		return false
	}
}

// StageResult records the outcome of one pipeline stage.
type StageResult struct {
	// Stage identifies which pipeline step this result belongs to.
	Stage Stage `json:"stage"`

	// Status is the outcome of the stage.
	Status StageStatus `json:"status"`

	// Detail is an optional human-readable note about the outcome,
	// e.g. "archive too small (3 MB)" or "device did not reconnect".
	Detail string `json:"detail,omitempty"`
}

// RunReport is the terminal artifact of one pipeline run. It captures the
// per-stage outcomes and, on success, the extracted identifier.
type RunReport struct {
	// GUID is the extracted identifier, normalized to upper case.
	// Empty when the run failed or the identifier was not found.
	GUID string `json:"guid,omitempty"`

	// Stages holds one result per pipeline stage, in execution order.
	// Stages after the first failure are recorded as skipped.
	Stages []StageResult `json:"stages"`
}

// Succeeded reports whether the run produced an identifier.
func (r *RunReport) Succeeded() bool {
	return r.GUID != ""
}

// FailedStage returns the first stage that did not complete successfully,
// or nil if every stage succeeded. A not-found extract stage counts as a
// failure for this purpose (the run did not produce an identifier).
func (r *RunReport) FailedStage() *StageResult {
	for i := range r.Stages {
		switch r.Stages[i].Status {
		case StatusFailed, StatusNotFound:
			return &r.Stages[i]
		}
	}
	return nil
}

// ExitCode defines the CLI exit codes. The external contract is
// deliberately narrow: automation callers only need success vs failure.
type ExitCode int

const (
	// ExitSuccess indicates the identifier was found and printed.
	ExitSuccess ExitCode = 0

	// ExitFailure indicates any stage failure or identifier not found.
	ExitFailure ExitCode = 1
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

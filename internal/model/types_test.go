package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseStage verifies that valid stage names parse case-insensitively
// and invalid names are rejected with an error.
func TestParseStage(t *testing.T) {
	stage, err := ParseStage("reboot")
	require.NoError(t, err)
	assert.Equal(t, StageReboot, stage)

	stage, err = ParseStage("Extract")
	require.NoError(t, err)
	assert.Equal(t, StageExtract, stage)

	_, err = ParseStage("teleport")
	assert.Error(t, err)
}

// TestStageStatusIsValid checks the enum guard for stage outcomes.
func TestStageStatusIsValid(t *testing.T) {
	for _, s := range []StageStatus{StatusOK, StatusFailed, StatusNotFound, StatusSkipped} {
		assert.True(t, s.IsValid(), "status %q should be valid", s)
	}
	assert.False(t, StageStatus("pending").IsValid())
}

// TestRunReportFailedStage verifies that FailedStage returns the first
// non-OK stage and that a fully successful report returns nil.
func TestRunReportFailedStage(t *testing.T) {
	ok := &RunReport{
		GUID: "1234ABCD-5678-90EF-ABCD-1234567890AB",
		Stages: []StageResult{
			{Stage: StageReboot, Status: StatusOK},
			{Stage: StageWait, Status: StatusOK},
			{Stage: StageCollect, Status: StatusOK},
			{Stage: StageExtract, Status: StatusOK},
		},
	}
	assert.True(t, ok.Succeeded())
	assert.Nil(t, ok.FailedStage())

	failed := &RunReport{
		Stages: []StageResult{
			{Stage: StageReboot, Status: StatusOK},
			{Stage: StageWait, Status: StatusFailed, Detail: "device did not reconnect"},
			{Stage: StageCollect, Status: StatusSkipped},
			{Stage: StageExtract, Status: StatusSkipped},
		},
	}
	assert.False(t, failed.Succeeded())
	require.NotNil(t, failed.FailedStage())
	assert.Equal(t, StageWait, failed.FailedStage().Stage)

	// A not-found extract outcome is a failed run even though it is
	// reported distinctly from an execution error.
	notFound := &RunReport{
		Stages: []StageResult{
			{Stage: StageReboot, Status: StatusOK},
			{Stage: StageWait, Status: StatusOK},
			{Stage: StageCollect, Status: StatusOK},
			{Stage: StageExtract, Status: StatusNotFound},
		},
	}
	assert.False(t, notFound.Succeeded())
	require.NotNil(t, notFound.FailedStage())
	assert.Equal(t, StatusNotFound, notFound.FailedStage().Status)
}

// TestCLIErrorFormatting checks the error string with and without an
// underlying error.
func TestCLIErrorFormatting(t *testing.T) {
	plain := NewCLIError(ExitFailure, "reboot command failed")
	assert.Equal(t, "reboot command failed", plain.Error())

	wrapped := WrapCLIError(ExitFailure, "collection failed", assert.AnError)
	assert.Contains(t, wrapped.Error(), "collection failed: ")
	assert.ErrorIs(t, wrapped, assert.AnError)
}

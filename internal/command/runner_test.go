package command

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests exec real processes (sh, true, false), so they are skipped
// on Windows. The CLI itself only targets macOS hosts, where the external
// tool contracts live.
func requirePosix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

// TestRunCapturesTrimmedOutput verifies exit status zero and that both
// output streams come back with surrounding whitespace trimmed.
func TestRunCapturesTrimmedOutput(t *testing.T) {
	requirePosix(t)
	r := NewExecRunner()

	res, err := r.Run(context.Background(), 5*time.Second,
		"sh", "-c", `printf '  hello\n'; printf 'warn\n' >&2`)
	require.NoError(t, err)

	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello", res.Stdout)
	assert.Equal(t, "warn", res.Stderr)
}

// TestRunReportsExitStatus verifies that a non-zero exit status is an
// ordinary Result, not an error.
func TestRunReportsExitStatus(t *testing.T) {
	requirePosix(t)
	r := NewExecRunner()

	res, err := r.Run(context.Background(), 5*time.Second, "sh", "-c", "exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
}

// TestRunTimeoutYieldsDistinguishedStatus verifies the core invariant:
// a timeout yields ExitTimeout without raising an error.
func TestRunTimeoutYieldsDistinguishedStatus(t *testing.T) {
	requirePosix(t)
	r := NewExecRunner()

	start := time.Now()
	res, err := r.Run(context.Background(), 100*time.Millisecond, "sleep", "5")
	require.NoError(t, err)

	assert.Equal(t, ExitTimeout, res.ExitCode)
	assert.NotEmpty(t, res.Stderr)
	assert.Less(t, time.Since(start), 3*time.Second, "timeout should cut the process off early")
}

// TestRunMissingBinary verifies that a binary that cannot be started is
// reported through the error return, distinct from exit-status failures.
func TestRunMissingBinary(t *testing.T) {
	r := NewExecRunner()

	_, err := r.Run(context.Background(), time.Second, "definitely-not-a-real-binary-750e")
	assert.Error(t, err)
}

// TestRunEmptyArgv guards the degenerate invocation.
func TestRunEmptyArgv(t *testing.T) {
	r := NewExecRunner()

	_, err := r.Run(context.Background(), time.Second)
	assert.Error(t, err)
}

// TestRunZeroTimeoutMeansUnbounded verifies that a non-positive timeout
// leaves the invocation bounded only by the caller's context.
func TestRunZeroTimeoutMeansUnbounded(t *testing.T) {
	requirePosix(t)
	r := NewExecRunner()

	res, err := r.Run(context.Background(), 0, "sh", "-c", "exit 0")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
}

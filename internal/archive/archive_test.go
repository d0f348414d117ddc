package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guidsearch/internal/command"
	"guidsearch/internal/command/commandtest"
	"guidsearch/internal/config"
)

// writeFileOfSize creates a file of exactly size bytes, creating parent
// directories as needed.
func writeFileOfSize(t *testing.T, path string, size int) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
}

// TestTreeSizeNested verifies the recursive sum across nesting depths
// and that directories themselves contribute nothing.
func TestTreeSizeNested(t *testing.T) {
	root := t.TempDir()
	writeFileOfSize(t, filepath.Join(root, "a.tracev3"), 1000)
	writeFileOfSize(t, filepath.Join(root, "Persist", "b.tracev3"), 2500)
	writeFileOfSize(t, filepath.Join(root, "Persist", "deep", "deeper", "c"), 500)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Special"), 0755))

	total, err := TreeSize(root)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), total)
}

// TestTreeSizeEmpty verifies that an empty directory sums to zero and a
// missing one errors.
func TestTreeSizeEmpty(t *testing.T) {
	total, err := TreeSize(t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = TreeSize(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

// TestScopeReleaseRemovesTree verifies the acquire/release guard:
// Release removes everything under the scope, and calling it again
// (or on nil) is harmless.
func TestScopeReleaseRemovesTree(t *testing.T) {
	scope, err := NewScope()
	require.NoError(t, err)

	target := scope.ArchivePath()
	writeFileOfSize(t, filepath.Join(target, "logdata.tracev3"), 128)

	scope.Release()
	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr), "archive directory should be gone after Release")

	scope.Release() // idempotent
	var nilScope *Scope
	nilScope.Release() // nil-safe
}

// collectorConfig returns a config with a small threshold so tests can
// build archives by hand.
func collectorConfig() config.Config {
	cfg := config.Default()
	cfg.MinArchiveBytes = 10_000
	return cfg
}

// TestCollectHappyPath verifies the command line, the timeout bound
// (collection timeout plus grace) and the size validation passing.
func TestCollectHappyPath(t *testing.T) {
	cfg := collectorConfig()
	target := filepath.Join(t.TempDir(), "ios_logs.logarchive")

	runner := &commandtest.FakeRunner{
		Handler: func(argv []string) (command.Result, error) {
			// Simulate the tool producing the archive at the target path.
			writeFileOfSize(t, filepath.Join(target, "Persist", "0001.tracev3"), 12_000)
			return command.Result{ExitCode: 0}, nil
		},
	}

	ok := NewCollector(cfg, runner).Collect(context.Background(), target)
	assert.True(t, ok)

	require.Len(t, runner.Calls, 1)
	assert.Equal(t, []string{"pymobiledevice3", "syslog", "collect", target}, runner.Calls[0].Argv)
	assert.Equal(t, 230*time.Second, runner.Calls[0].Timeout)
}

// TestCollectUndersizedArchive verifies that an archive below the
// threshold fails validation even when the command reported success.
func TestCollectUndersizedArchive(t *testing.T) {
	cfg := collectorConfig()
	target := filepath.Join(t.TempDir(), "ios_logs.logarchive")

	runner := &commandtest.FakeRunner{
		Handler: func(argv []string) (command.Result, error) {
			writeFileOfSize(t, filepath.Join(target, "0001.tracev3"), 3_000)
			return command.Result{ExitCode: 0}, nil
		},
	}

	assert.False(t, NewCollector(cfg, runner).Collect(context.Background(), target))
}

// TestCollectMissingArchive verifies that a command that produced nothing
// fails validation regardless of its exit status.
func TestCollectMissingArchive(t *testing.T) {
	cfg := collectorConfig()
	target := filepath.Join(t.TempDir(), "ios_logs.logarchive")

	runner := &commandtest.FakeRunner{
		Default: commandtest.Outcome{Result: command.Result{ExitCode: 0}},
	}

	assert.False(t, NewCollector(cfg, runner).Collect(context.Background(), target))
}

// TestCollectPartialOutputStillCounts verifies the rationale for
// validating by size instead of exit status: a timed-out or failed call
// that nevertheless left a big enough archive behind is a success.
func TestCollectPartialOutputStillCounts(t *testing.T) {
	cfg := collectorConfig()
	target := filepath.Join(t.TempDir(), "ios_logs.logarchive")

	runner := &commandtest.FakeRunner{
		Handler: func(argv []string) (command.Result, error) {
			writeFileOfSize(t, filepath.Join(target, "Persist", "0001.tracev3"), 50_000)
			return command.Result{ExitCode: command.ExitTimeout, Stderr: "timeout expired"}, nil
		},
	}

	assert.True(t, NewCollector(cfg, runner).Collect(context.Background(), target))
}

// TestCollectInvocationError verifies that a tool that cannot be started
// is a collection failure.
func TestCollectInvocationError(t *testing.T) {
	runner := &commandtest.FakeRunner{Default: commandtest.Outcome{Err: assert.AnError}}

	ok := NewCollector(collectorConfig(), runner).Collect(context.Background(),
		filepath.Join(t.TempDir(), "ios_logs.logarchive"))
	assert.False(t, ok)
}

// TestCollectTargetsUDID verifies UDID pass-through on the collection
// command line.
func TestCollectTargetsUDID(t *testing.T) {
	cfg := collectorConfig()
	cfg.UDID = "00008110-000A2DE40C29801E"
	target := filepath.Join(t.TempDir(), "ios_logs.logarchive")

	runner := &commandtest.FakeRunner{
		Default: commandtest.Outcome{Result: command.Result{ExitCode: 1}},
	}
	NewCollector(cfg, runner).Collect(context.Background(), target)

	require.Len(t, runner.Calls, 1)
	assert.Equal(t,
		[]string{"pymobiledevice3", "--udid", "00008110-000A2DE40C29801E", "syslog", "collect", target},
		runner.Calls[0].Argv)
}

package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ExitTimeout is the distinguished exit status reported when an invocation
// exceeds its timeout. 124 matches the convention of timeout(1), so logs
// read the same whether the bound was enforced by us or by a wrapper.
const ExitTimeout = 124

// Result holds the outcome of one external command invocation.
type Result struct {
	// ExitCode is the process exit status, or ExitTimeout if the
	// invocation was cut off by its timeout.
	ExitCode int

	// Stdout is the captured standard output with surrounding
	// whitespace trimmed.
	Stdout string

	// Stderr is the captured standard error with surrounding
	// whitespace trimmed.
	Stderr string
}

// Runner is the capability interface for invoking external commands.
//
// Run executes argv with the given timeout (zero or negative means no
// bound beyond ctx). The returned error covers only invocation problems —
// the binary missing or not executable; a non-zero exit status or a
// timeout is reported through the Result, not the error.
type Runner interface {
	Run(ctx context.Context, timeout time.Duration, argv ...string) (Result, error)
}

// ExecRunner is the os/exec-backed Runner used outside of tests.
//
// It is stateless; the struct exists as a receiver so callers depend on
// the Runner interface and future extensions (e.g. an injected logger or
// environment) do not break them.
type ExecRunner struct{}

// NewExecRunner creates an ExecRunner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run implements Runner using exec.CommandContext with a deadline.
func (r *ExecRunner) Run(ctx context.Context, timeout time.Duration, argv ...string) (Result, error) {
	if len(argv) == 0 {
		return Result{}, fmt.Errorf("command: empty argument vector")
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	res := Result{
		Stdout: strings.TrimSpace(stdout.String()),
		Stderr: strings.TrimSpace(stderr.String()),
	}

	// The deadline check comes before the exit status check: a process
	// killed by the context reports an unhelpful -1 status, and callers
	// must be able to tell a timeout apart from an ordinary failure.
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		res.ExitCode = ExitTimeout
		if res.Stderr == "" {
			res.Stderr = "timeout expired"
		}
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if runErr != nil {
		// Start failures: binary not found, not executable, bad path.
		return res, fmt.Errorf("failed to run %s: %w", argv[0], runErr)
	}

	return res, nil
}

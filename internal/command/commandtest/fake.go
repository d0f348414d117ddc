// Package commandtest provides a scripted fake command.Runner for unit
// tests. Stages under test receive a FakeRunner loaded with the outcomes
// their external tools should report, and assertions inspect the recorded
// calls afterwards.
package commandtest

import (
	"context"
	"sync"
	"time"

	"guidsearch/internal/command"
)

// Call records one Run invocation made against the fake.
type Call struct {
	// Argv is the full argument vector, binary included.
	Argv []string

	// Timeout is the per-invocation bound the caller requested.
	Timeout time.Duration
}

// Outcome is one scripted response.
type Outcome struct {
	Result command.Result
	Err    error
}

// FakeRunner implements command.Runner with scripted outcomes.
//
// Responses are consumed from Queue in order; once the queue is empty,
// Default is returned for every further call. If Handler is set it takes
// precedence over both, receiving the argv to compute the outcome —
// useful when the response depends on which tool is being invoked.
type FakeRunner struct {
	mu sync.Mutex

	// Queue holds outcomes popped one per call.
	Queue []Outcome

	// Default is returned when the queue is exhausted.
	Default Outcome

	// Handler, when non-nil, overrides Queue and Default.
	Handler func(argv []string) (command.Result, error)

	// Calls records every invocation in order.
	Calls []Call
}

// Run implements command.Runner.
func (f *FakeRunner) Run(_ context.Context, timeout time.Duration, argv ...string) (command.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, Call{Argv: append([]string(nil), argv...), Timeout: timeout})

	if f.Handler != nil {
		return f.Handler(argv)
	}
	if len(f.Queue) > 0 {
		out := f.Queue[0]
		f.Queue = f.Queue[1:]
		return out.Result, out.Err
	}
	return f.Default.Result, f.Default.Err
}

// CallCount returns how many invocations the fake has seen.
func (f *FakeRunner) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

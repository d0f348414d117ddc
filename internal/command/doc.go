// Package command abstracts external process invocation behind a small
// Runner capability: an argument vector plus a timeout in, an exit status
// with trimmed output streams out.
//
// Every pipeline stage talks to its external tool through this interface,
// so each stage can be unit tested with a substitutable fake (see the
// commandtest subpackage) instead of a real binary.
//
// Timeouts are ordinary outcomes, not errors: a timed-out invocation
// yields the distinguished exit status 124 and never panics or aborts
// the run.
package command

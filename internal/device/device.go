package device

import (
	"context"
	"time"

	"github.com/apex/log"

	"guidsearch/internal/command"
	"guidsearch/internal/config"
)

// Clock abstracts wall-clock reads and sleeps so the reconnection waiter
// can be tested without real delays. The deadline math uses Now() against
// a precomputed deadline rather than counting iterations, keeping the
// timing semantics explicit.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// systemClock is the real Clock used outside of tests.
type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// Manager issues device-management commands through a command.Runner.
type Manager struct {
	cfg    config.Config
	runner command.Runner
	clock  Clock
}

// NewManager creates a Manager using the system clock.
func NewManager(cfg config.Config, runner command.Runner) *Manager {
	return &Manager{cfg: cfg, runner: runner, clock: systemClock{}}
}

// NewManagerWithClock creates a Manager with an injected clock for tests.
func NewManagerWithClock(cfg config.Config, runner command.Runner, clock Clock) *Manager {
	return &Manager{cfg: cfg, runner: runner, clock: clock}
}

// Reboot issues a single restart command to the device, bounded by the
// configured timeout. It reports success of the command dispatch only —
// the device acknowledges and then goes away; actual reboot completion is
// observed later by WaitForReconnect.
//
// One attempt, no retries: the caller decides whether to abort on failure.
func (m *Manager) Reboot(ctx context.Context) bool {
	argv := []string{m.cfg.PymobiledevicePath}
	if m.cfg.UDID != "" {
		argv = append(argv, "--udid", m.cfg.UDID)
	}
	argv = append(argv, "diagnostics", "restart")

	res, err := m.runner.Run(ctx, time.Duration(m.cfg.RebootTimeout), argv...)
	if err != nil {
		log.WithError(err).Error("reboot command could not be issued")
		return false
	}
	if res.ExitCode != 0 {
		log.WithField("status", res.ExitCode).Error("reboot command failed")
		if res.Stderr != "" {
			log.Debugf("reboot stderr: %s", res.Stderr)
		}
		return false
	}
	return true
}

// WaitForReconnect polls for device presence at the configured fixed
// interval until a presence check succeeds or the overall window elapses.
// On the first success it sleeps the configured settle delay before
// declaring readiness: the device-management service answers before
// userland services are done booting, so a single success must not be
// trusted on its own.
//
// onPoll, when non-nil, is invoked after each failed check so the CLI can
// render progress. The deadline is checked against the clock before every
// attempt; there is no backoff and no fixed iteration count.
func (m *Manager) WaitForReconnect(ctx context.Context, onPoll func()) bool {
	argv := []string{m.cfg.IdeviceinfoPath}
	if m.cfg.UDID != "" {
		argv = append(argv, "-u", m.cfg.UDID)
	}
	argv = append(argv, "-k", "UniqueDeviceID")

	deadline := m.clock.Now().Add(time.Duration(m.cfg.ReconnectWindow))

	for m.clock.Now().Before(deadline) {
		res, err := m.runner.Run(ctx, time.Duration(m.cfg.PresenceTimeout), argv...)
		if err == nil && res.ExitCode == 0 {
			log.Debug("device responded, settling")
			m.clock.Sleep(time.Duration(m.cfg.SettleDelay))
			return true
		}
		if err != nil {
			log.WithError(err).Debug("presence check could not be issued")
		} else {
			log.WithField("status", res.ExitCode).Debug("presence check failed")
		}

		if onPoll != nil {
			onPoll()
		}
		// No pause after the last possible attempt: sleeping past the
		// deadline only delays the timeout verdict.
		if !m.clock.Now().Add(time.Duration(m.cfg.PollInterval)).Before(deadline) {
			break
		}
		m.clock.Sleep(time.Duration(m.cfg.PollInterval))
	}

	log.WithField("window", time.Duration(m.cfg.ReconnectWindow).String()).
		Error("device did not reconnect within the wait window")
	return false
}

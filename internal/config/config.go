package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"guidsearch/internal/model"
)

// Duration wraps time.Duration so config files can spell durations in the
// human-readable time.ParseDuration form ("30s", "3m20s") instead of raw
// nanosecond integers.
//
// It implements encoding.TextUnmarshaler (which also covers environment
// variable parsing via caarlos0/env), json.Unmarshaler and yaml.Unmarshaler.
type Duration time.Duration

// UnmarshalText parses a duration string ("30s", "1m"). This satisfies
// encoding.TextUnmarshaler, which caarlos0/env uses for custom field types.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText renders the duration in time.Duration string form, so the
// --json report and doctor output stay human-readable.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// String satisfies fmt.Stringer, delegating to time.Duration.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalJSON accepts either a quoted duration string or a bare number
// of nanoseconds. The string form is what config files should use; the
// numeric form exists for compatibility with json.Marshal round-trips.
func (d *Duration) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return d.UnmarshalText([]byte(s))
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid duration value %s", string(data))
	}
	*d = Duration(n)
	return nil
}

// UnmarshalYAML accepts the same forms as UnmarshalJSON for YAML files.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("invalid duration node: %w", err)
	}
	return d.UnmarshalText([]byte(s))
}

// Config carries all pipeline settings. Everything is an explicit field —
// there are no module-level knobs — so each stage can be unit tested with
// an injected config and fake command runner.
type Config struct {
	// PymobiledevicePath is the device-management client binary. It serves
	// both the reboot command and the syslog archive collection.
	PymobiledevicePath string `env:"PYMOBILEDEVICE3" json:"pymobiledevice3" yaml:"pymobiledevice3"`

	// IdeviceinfoPath is the device-info query binary used for the
	// presence check while waiting for the device to reconnect.
	IdeviceinfoPath string `env:"IDEVICEINFO" json:"ideviceinfo" yaml:"ideviceinfo"`

	// LogPath is the macOS log(1) binary used for the archive-scoped
	// filtered query.
	LogPath string `env:"LOG" json:"log" yaml:"log"`

	// UDID optionally targets a specific device when several are attached.
	// Empty means "first device", matching the external tools' defaults.
	UDID string `env:"UDID" json:"udid" yaml:"udid"`

	// Process is the producing process name the log query filters on.
	Process string `env:"PROCESS" json:"process" yaml:"process"`

	// Marker is the filename-like token that locates relevant log lines.
	Marker string `env:"MARKER" json:"marker" yaml:"marker"`

	// RebootTimeout bounds the reboot command's own acknowledgment, not
	// the device reboot itself.
	RebootTimeout Duration `env:"REBOOT_TIMEOUT" json:"rebootTimeout" yaml:"reboot_timeout"`

	// PresenceTimeout bounds a single presence-check invocation.
	PresenceTimeout Duration `env:"PRESENCE_TIMEOUT" json:"presenceTimeout" yaml:"presence_timeout"`

	// ReconnectWindow is the overall deadline for the device to respond
	// after the reboot.
	ReconnectWindow Duration `env:"RECONNECT_WINDOW" json:"reconnectWindow" yaml:"reconnect_window"`

	// PollInterval is the constant pause between presence checks.
	// There is no backoff; the cadence stays fixed for the whole window.
	PollInterval Duration `env:"POLL_INTERVAL" json:"pollInterval" yaml:"poll_interval"`

	// SettleDelay is the pause after the first successful presence check,
	// letting device services finish booting before collection starts.
	SettleDelay Duration `env:"SETTLE_DELAY" json:"settleDelay" yaml:"settle_delay"`

	// CollectTimeout is the expected upper bound for archive collection.
	CollectTimeout Duration `env:"COLLECT_TIMEOUT" json:"collectTimeout" yaml:"collect_timeout"`

	// CollectGrace is added on top of CollectTimeout when bounding the
	// collection command, so a slow but succeeding collection is not cut
	// off exactly at the expected time.
	CollectGrace Duration `env:"COLLECT_GRACE" json:"collectGrace" yaml:"collect_grace"`

	// QueryTimeout bounds the filtered log query against the archive.
	QueryTimeout Duration `env:"QUERY_TIMEOUT" json:"queryTimeout" yaml:"query_timeout"`

	// MinArchiveBytes is the minimum recursive file-size sum for an
	// archive to count as a real capture. A heuristic lower bound, not an
	// exact size: the collection tool can report success and still leave
	// a truncated archive behind.
	MinArchiveBytes int64 `env:"MIN_ARCHIVE_BYTES" json:"minArchiveBytes" yaml:"min_archive_bytes"`
}

// Default returns the built-in configuration matching the external
// command contracts.
func Default() Config {
	return Config{
		PymobiledevicePath: "pymobiledevice3",
		IdeviceinfoPath:    "ideviceinfo",
		LogPath:            "/usr/bin/log",
		Process:            "bookassetd",
		Marker:             "BLDatabaseManager.sqlite",
		RebootTimeout:      Duration(30 * time.Second),
		PresenceTimeout:    Duration(10 * time.Second),
		ReconnectWindow:    Duration(180 * time.Second),
		PollInterval:       Duration(3 * time.Second),
		SettleDelay:        Duration(10 * time.Second),
		CollectTimeout:     Duration(200 * time.Second),
		CollectGrace:       Duration(30 * time.Second),
		QueryTimeout:       Duration(60 * time.Second),
		MinArchiveBytes:    10_000_000,
	}
}

// Load builds the effective configuration: defaults, overlaid with the
// optional config file at path (empty path skips the file layer), overlaid
// with GUIDSEARCH_* variables from environ.
//
// environ is passed explicitly (usually os.Environ()) so tests can inject
// a controlled environment instead of mutating the process state.
func Load(path string, environ []string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	err := env.ParseWithOptions(&cfg, env.Options{
		Prefix:      "GUIDSEARCH_",
		Environment: env.ToMap(environ),
	})
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyFile overlays the config file at path onto cfg. Fields absent from
// the file keep their current values, which is what makes the layering
// work: unmarshalling into a pre-populated struct only touches the keys
// the file actually sets.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.WrapCLIError(
				model.ExitFailure,
				fmt.Sprintf("config file not found: %s", path),
				err,
			)
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		// Strip JSONC comments (// and /* */) and trailing commas before
		// parsing, then use the standard encoding/json.
		if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file extension %q (use .json, .jsonc, .yaml or .yml)", filepath.Ext(path))
	}
	return nil
}

// Validate checks that the configuration is internally consistent:
// tool paths and filters present, durations positive, threshold positive.
// CollectGrace alone may be zero — it is a margin, not a budget.
func (c *Config) Validate() error {
	if c.PymobiledevicePath == "" {
		return fmt.Errorf("config: pymobiledevice3 path must not be empty")
	}
	if c.IdeviceinfoPath == "" {
		return fmt.Errorf("config: ideviceinfo path must not be empty")
	}
	if c.LogPath == "" {
		return fmt.Errorf("config: log path must not be empty")
	}
	if c.Process == "" {
		return fmt.Errorf("config: process filter must not be empty")
	}
	if c.Marker == "" {
		return fmt.Errorf("config: marker must not be empty")
	}

	positive := []struct {
		name  string
		value Duration
	}{
		{"reboot_timeout", c.RebootTimeout},
		{"presence_timeout", c.PresenceTimeout},
		{"reconnect_window", c.ReconnectWindow},
		{"poll_interval", c.PollInterval},
		{"settle_delay", c.SettleDelay},
		{"collect_timeout", c.CollectTimeout},
		{"query_timeout", c.QueryTimeout},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("config: %s must be positive (got %s)", p.name, time.Duration(p.value))
		}
	}
	if c.CollectGrace < 0 {
		return fmt.Errorf("config: collect_grace must not be negative (got %s)", time.Duration(c.CollectGrace))
	}
	if c.MinArchiveBytes <= 0 {
		return fmt.Errorf("config: min_archive_bytes must be positive (got %d)", c.MinArchiveBytes)
	}
	return nil
}

// Package config loads the daemon's runtime knobs from YAML, the way
// offgrid-llm and ariadne load their service configuration with
// gopkg.in/yaml.v3. None of these knobs change the algorithms spec.md
// fixes (refresh logic, downsampling, profile binning); they only
// parameterize the defaults spec.md §4.2.4/§4.5 state ("every 30s",
// "default 5-10s").
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every daemon-construction knob.
type Config struct {
	// HistoryDir is where HistoryStore persists its series files
	// (spec.md §6: "<localstate>/lib/upower/").
	HistoryDir string `yaml:"history_dir"`

	// BatteryPollInterval is the steady-state poll period for
	// Charging/Discharging/Empty/PendingX batteries (spec.md §4.2.4).
	BatteryPollInterval time.Duration `yaml:"battery_poll_interval"`

	// UnknownStatePollInterval is the poll period used while a battery
	// reports Unknown, before falling back after UnknownStateRetries.
	UnknownStatePollInterval time.Duration `yaml:"unknown_state_poll_interval"`

	// UnknownStateRetries bounds how many UnknownStatePollInterval polls
	// happen before falling back to BatteryPollInterval (spec.md §4.2.4:
	// "poll every 2s up to 30 times, then fall back to 30s").
	UnknownStateRetries int `yaml:"unknown_state_retries"`

	// PeripheralPollInterval is the poll period for CSR/HID/Watts-Up
	// peripherals (spec.md §4.2.4).
	PeripheralPollInterval time.Duration `yaml:"peripheral_poll_interval"`

	// HistoryDebounce is how long HistoryStore waits before flushing a
	// batch of appended records to disk (spec.md §4.5: "default 5-10s").
	HistoryDebounce time.Duration `yaml:"history_debounce"`

	// OnBatterySettleDelay is how long the daemon waits after an
	// on_battery transition before re-sweeping battery refreshes
	// (spec.md §4.4: "3s").
	OnBatterySettleDelay time.Duration `yaml:"on_battery_settle_delay"`

	// LowBatteryPercentage is the threshold below which every present
	// battery must fall for low_battery to be true (spec.md §4.4).
	LowBatteryPercentage float64 `yaml:"low_battery_percentage"`

	// WakeupsSampleInterval is the kernel/userspace sampling period for
	// WakeupsMonitor (spec.md §4.7: "every 2s").
	WakeupsSampleInterval time.Duration `yaml:"wakeups_sample_interval"`

	// PowersaveHook, SuspendHook, HibernateHook are the subprocess paths
	// invoked for system power policy (spec.md §6).
	PowersaveHook string `yaml:"powersave_hook"`
	SuspendHook   string `yaml:"suspend_hook"`
	HibernateHook string `yaml:"hibernate_hook"`

	// Verbose enables debug-level logging.
	Verbose bool `yaml:"verbose"`
}

// Default returns the configuration spec.md's defaults describe.
func Default() Config {
	return Config{
		HistoryDir:               "/var/lib/upower",
		BatteryPollInterval:      30 * time.Second,
		UnknownStatePollInterval: 2 * time.Second,
		UnknownStateRetries:      30,
		PeripheralPollInterval:   30 * time.Second,
		HistoryDebounce:          8 * time.Second,
		OnBatterySettleDelay:     3 * time.Second,
		LowBatteryPercentage:     10.0,
		WakeupsSampleInterval:    2 * time.Second,
		PowersaveHook:            "/usr/sbin/pm-powersave",
		SuspendHook:              "/usr/sbin/pm-suspend",
		HibernateHook:            "/usr/sbin/pm-hibernate",
	}
}

// Load reads a YAML configuration file, applying it on top of Default so
// that an embedder only needs to specify the knobs they want to override.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Package config is the kernel's layered configuration surface
// (Section 6), decoded with github.com/BurntSushi/toml the way the
// teacher's internal/daemon.Config is: defaults built in Go, then
// overridden by a config.toml found under the kernel's home directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the process-wide configuration surface.
type Config struct {
	Kernel      KernelConfig      `toml:"kernel"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`
	Host        HostConfig        `toml:"host"`
	Telemetry   TelemetryConfig   `toml:"telemetry"`
	Logging     LoggingConfig     `toml:"logging"`
}

// KernelConfig holds the Section 6 recognized executive keys.
type KernelConfig struct {
	// WorkerThreads is decoded and saved but not read by any component;
	// the executive runs detachable coroutines one at a time regardless.
	WorkerThreads int `toml:"worker_threads"`
	// IgnoreCausalityViolations promotes a past-scheduled event to now
	// instead of failing the run when true.
	IgnoreCausalityViolations bool `toml:"ignore_causality_violations"`
	// ExecutiveType names the executive implementation. There is a single
	// implementation and no component reads this key.
	ExecutiveType string `toml:"executive_type"`
}

// DiagnosticsConfig gates per-component tracing. Keys is the diagnostics
// key set from Section 6 (e.g. "Executive", "Task", "Milestone",
// "Resources", "StateMachine", "PortManager"); an unknown key queried at
// runtime returns false. LogMissingKeys is decoded and saved but not read:
// unknown keys are never logged, whatever its value.
type DiagnosticsConfig struct {
	Keys           map[string]bool `toml:"keys"`
	LogMissingKeys bool            `toml:"log_missing_keys"`
	TracePath      string          `toml:"trace_path"`
}

// HostConfig names this host. The /status endpoint does not report it.
type HostConfig struct {
	Name string `toml:"name"`
}

// TelemetryConfig holds the metrics surface settings. Addr is the serve
// subcommand's default listen address; Enabled is not read, and /metrics
// is always mounted.
type TelemetryConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// LoggingConfig holds log output settings; no component reads them.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Enabled reports whether a diagnostics key is set, treating an unknown
// key as false per Section 6.
func (d DiagnosticsConfig) Enabled(key string) bool {
	return d.Keys[key]
}

// DefaultConfig returns the built-in defaults, before any config.toml is
// applied.
func DefaultConfig() Config {
	return Config{
		Kernel: KernelConfig{
			WorkerThreads:             0,
			IgnoreCausalityViolations: false,
			ExecutiveType:             "default",
		},
		Diagnostics: DiagnosticsConfig{
			Keys:           map[string]bool{},
			LogMissingKeys: false,
			TracePath:      filepath.Join(Home(), "trace.db"),
		},
		Host: HostConfig{
			Name: "sagekernel-node",
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9090",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(Home(), "sagekernel.log"),
		},
	}
}

// Load reads config from <Home()>/config.toml, falling back to defaults
// when the file does not exist.
func Load() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(Home(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to <Home()>/config.toml, creating the home directory if
// necessary.
func Save(cfg Config) error {
	path := filepath.Join(Home(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// Home returns the kernel's data/config directory: $SAGEKERNEL_HOME if
// set, else ~/.sagekernel.
func Home() string {
	if env := os.Getenv("SAGEKERNEL_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".sagekernel")
}

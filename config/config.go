// File: config/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stack configuration loaded from YAML with environment overrides.

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables overriding file values.
const (
	EnvLogLevel  = "HIOLOAD_LOG_LEVEL"
	EnvLogFormat = "HIOLOAD_LOG_FORMAT"
	EnvIntrCPU   = "HIOLOAD_INTR_CPU"
)

// Config is the root configuration of a stack instance.
type Config struct {
	Logging LoggingConfig  `yaml:"logging"`
	Intr    IntrConfig     `yaml:"intr"`
	Limits  LimitsConfig   `yaml:"limits"`
	Buffers BuffersConfig  `yaml:"buffers"`
	Devices []DeviceConfig `yaml:"devices"`
}

// LoggingConfig selects level, format and destination.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
	Output string `yaml:"output"` // stdout, stderr
}

// IntrConfig tunes the interrupt worker.
type IntrConfig struct {
	// CPU pins the worker thread to one core; -1 leaves placement to the OS.
	CPU int `yaml:"cpu"`
	// LockThread dedicates an OS thread to the worker goroutine.
	LockThread bool `yaml:"lock_thread"`
}

// LimitsConfig bounds the registries; zero means unlimited.
type LimitsConfig struct {
	MaxDevices   int `yaml:"max_devices"`
	MaxProtocols int `yaml:"max_protocols"`
	MaxIRQs      int `yaml:"max_irqs"`
}

// BuffersConfig controls ingress buffer reuse.
type BuffersConfig struct {
	Pooled bool `yaml:"pooled"`
}

// DeviceConfig declares a device created at startup.
type DeviceConfig struct {
	Driver string `yaml:"driver"` // dummy, loopback
	MTU    int    `yaml:"mtu"`    // 0 keeps the driver default
}

// Default returns a Config with sane defaults.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Intr: IntrConfig{
			CPU:        -1,
			LockThread: true,
		},
		Buffers: BuffersConfig{
			Pooled: true,
		},
	}
}

// Load reads path, applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of Default, then applies overrides and validation.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv(EnvIntrCPU); v != "" {
		cpu, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvIntrCPU, err)
		}
		cfg.Intr.CPU = cpu
	}
	return nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []string

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("logging.format %q is not one of text, json", c.Logging.Format))
	}
	if c.Intr.CPU < -1 {
		errs = append(errs, "intr.cpu must be -1 or a cpu index")
	}
	if c.Intr.CPU >= 0 && !c.Intr.LockThread {
		errs = append(errs, "intr.cpu requires intr.lock_thread")
	}
	if c.Limits.MaxDevices < 0 || c.Limits.MaxProtocols < 0 || c.Limits.MaxIRQs < 0 {
		errs = append(errs, "limits must not be negative")
	}
	for i, d := range c.Devices {
		switch d.Driver {
		case "dummy", "loopback":
		default:
			errs = append(errs, fmt.Sprintf("devices[%d].driver %q is unknown", i, d.Driver))
		}
		if d.MTU < 0 || d.MTU > 65535 {
			errs = append(errs, fmt.Sprintf("devices[%d].mtu %d out of range", i, d.MTU))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

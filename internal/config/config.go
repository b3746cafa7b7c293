// Package config loads and validates the deskhand daemon configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/haasonsaas/deskhand/internal/display"
	"github.com/haasonsaas/deskhand/internal/run"
	"github.com/haasonsaas/deskhand/internal/tools/computer"
)

// Config is the main configuration structure for deskhand.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Display DisplayConfig `yaml:"display"`
	Input   InputConfig   `yaml:"input"`
	Exec    ExecConfig    `yaml:"exec"`
	Log     LogConfig     `yaml:"log"`
	Tracing TracingConfig `yaml:"tracing"`
}

// ServerConfig configures the WebSocket control plane.
type ServerConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Enabled bool   `yaml:"enabled"`
}

// DisplayConfig configures the target display and coordinate scaling.
type DisplayConfig struct {
	// Number is the X display to drive, exported as DISPLAY=:<number> at
	// startup. Set to -1 to inherit the process environment untouched.
	Number int `yaml:"number"`

	// Scaling toggles coordinate translation between the fixed logical
	// space and the physical display.
	Scaling bool `yaml:"scaling"`

	// Width and Height override the probed physical resolution.
	// Both zero means probe the display at startup.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// InputConfig configures input injection pacing.
type InputConfig struct {
	TypingDelayMS int `yaml:"typing_delay_ms"`
}

// ExecConfig configures the bounded command runner.
type ExecConfig struct {
	Shell          string  `yaml:"shell"`
	TimeoutSeconds float64 `yaml:"timeout_seconds"`
	TruncateAfter  int     `yaml:"truncate_after"`
	Workers        int     `yaml:"workers"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

// TracingConfig configures the OTLP trace exporter.
type TracingConfig struct {
	Endpoint   string  `yaml:"endpoint"`
	SampleRate float64 `yaml:"sample_rate"`
	Insecure   bool    `yaml:"insecure"`
}

// Default returns a configuration filled with the contract constants.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "127.0.0.1",
			Port:    8811,
			Enabled: true,
		},
		Display: DisplayConfig{
			Number:  0,
			Scaling: true,
		},
		Input: InputConfig{
			TypingDelayMS: int(computer.TypingDelay / time.Millisecond),
		},
		Exec: ExecConfig{
			Shell:          "/bin/sh",
			TimeoutSeconds: run.DefaultTimeout.Seconds(),
			TruncateAfter:  run.DefaultTruncateAfter,
			Workers:        4,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			SampleRate: 1.0,
		},
	}
}

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Display.Number < -1 {
		return fmt.Errorf("display.number must be >= -1")
	}
	if (c.Display.Width == 0) != (c.Display.Height == 0) {
		return fmt.Errorf("display.width and display.height must be set together")
	}
	if c.Display.Width < 0 || c.Display.Height < 0 {
		return fmt.Errorf("display dimensions must be positive")
	}
	if c.Input.TypingDelayMS < 0 {
		return fmt.Errorf("input.typing_delay_ms must not be negative")
	}
	if err := checkShell(c.Exec.Shell); err != nil {
		return fmt.Errorf("exec.shell: %w", err)
	}
	if c.Exec.TimeoutSeconds <= 0 {
		return fmt.Errorf("exec.timeout_seconds must be positive")
	}
	if c.Exec.TruncateAfter < 0 {
		return fmt.Errorf("exec.truncate_after must not be negative")
	}
	if c.Exec.Workers < 1 {
		return fmt.Errorf("exec.workers must be at least 1")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not recognized", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q is not recognized", c.Log.Format)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be in [0, 1]")
	}
	return nil
}

// ExecTimeout returns the command deadline as a duration.
func (c *Config) ExecTimeout() time.Duration {
	return time.Duration(c.Exec.TimeoutSeconds * float64(time.Second))
}

// TypingDelay returns the per-character typing delay as a duration.
func (c *Config) TypingDelay() time.Duration {
	return time.Duration(c.Input.TypingDelayMS) * time.Millisecond
}

// Scaler builds the coordinate scaler for the configured display,
// probing the physical resolution when no override is set.
func (c *Config) Scaler(probe func() (int, int)) display.Scaler {
	w, h := c.Display.Width, c.Display.Height
	if w == 0 || h == 0 {
		w, h = probe()
	}
	if !c.Display.Scaling {
		return display.IdentityScaler(w, h)
	}
	return display.NewScaler(w, h)
}

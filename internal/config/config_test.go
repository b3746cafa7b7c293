package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() does not validate: %v", err)
	}
	if cfg.Exec.TimeoutSeconds != 120 {
		t.Errorf("timeout_seconds = %v, want 120", cfg.Exec.TimeoutSeconds)
	}
	if cfg.Exec.TruncateAfter != 16000 {
		t.Errorf("truncate_after = %d, want 16000", cfg.Exec.TruncateAfter)
	}
	if cfg.Input.TypingDelayMS != 12 {
		t.Errorf("typing_delay_ms = %d, want 12", cfg.Input.TypingDelayMS)
	}
	if !cfg.Display.Scaling {
		t.Error("scaling should default to enabled")
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Server.Port != 8811 {
		t.Errorf("server.port = %d, want default 8811", cfg.Server.Port)
	}
	if cfg.Exec.Shell != "/bin/sh" {
		t.Errorf("exec.shell = %q, want default /bin/sh", cfg.Exec.Shell)
	}
}

func TestLoadEmptyFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("server.host = %q, want default", cfg.Server.Host)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 127.0.0.1
  extra: true
`)

	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("DESKHAND_TEST_HOST", "0.0.0.0")
	path := writeConfig(t, `
server:
  host: ${DESKHAND_TEST_HOST}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("server.host = %q, want expanded value", cfg.Server.Host)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"port out of range", "server:\n  port: 70000", "server.port"},
		{"width without height", "display:\n  width: 1920", "display.width"},
		{"negative typing delay", "input:\n  typing_delay_ms: -5", "typing_delay_ms"},
		{"zero timeout", "exec:\n  timeout_seconds: 0", "timeout_seconds"},
		{"zero workers", "exec:\n  workers: 0", "workers"},
		{"unknown log level", "log:\n  level: verbose", "log.level"},
		{"unknown log format", "log:\n  format: xml", "log.format"},
		{"sample rate above one", "tracing:\n  sample_rate: 1.5", "sample_rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.yaml)
			_, err := Load(path)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected %q in error, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	cfg.Exec.TimeoutSeconds = 0.1
	if got := cfg.ExecTimeout(); got != 100*time.Millisecond {
		t.Errorf("ExecTimeout() = %v, want 100ms", got)
	}
	cfg.Input.TypingDelayMS = 25
	if got := cfg.TypingDelay(); got != 25*time.Millisecond {
		t.Errorf("TypingDelay() = %v, want 25ms", got)
	}
}

func TestScalerProbesWhenNoOverride(t *testing.T) {
	cfg := Default()
	probed := false
	scaler := cfg.Scaler(func() (int, int) {
		probed = true
		return 1920, 1200
	})
	if !probed {
		t.Fatal("expected the probe to run")
	}
	if !scaler.Enabled() {
		t.Error("scaler should be enabled by default")
	}
	if w, h := scaler.PhysicalSize(); w != 1920 || h != 1200 {
		t.Errorf("physical = %dx%d, want 1920x1200", w, h)
	}
}

func TestScalerUsesOverride(t *testing.T) {
	cfg := Default()
	cfg.Display.Width = 2560
	cfg.Display.Height = 1600
	scaler := cfg.Scaler(func() (int, int) {
		t.Fatal("probe must not run with an override")
		return 0, 0
	})
	if w, h := scaler.PhysicalSize(); w != 2560 || h != 1600 {
		t.Errorf("physical = %dx%d, want 2560x1600", w, h)
	}
}

func TestScalerDisabled(t *testing.T) {
	cfg := Default()
	cfg.Display.Scaling = false
	cfg.Display.Width = 1024
	cfg.Display.Height = 768
	scaler := cfg.Scaler(nil)
	if scaler.Enabled() {
		t.Error("scaler should be disabled")
	}
}

func TestJSONSchema(t *testing.T) {
	data, err := JSONSchema()
	if err != nil {
		t.Fatalf("JSONSchema() error = %v", err)
	}
	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	if !strings.Contains(string(data), `"server"`) {
		t.Error("schema does not mention the server section")
	}
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "deskhand.yaml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(contents)), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

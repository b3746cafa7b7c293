// Package shell exposes bounded shell command execution as an agent tool.
package shell

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/haasonsaas/deskhand/internal/observability"
	"github.com/haasonsaas/deskhand/internal/run"
	"github.com/haasonsaas/deskhand/internal/tools"
)

// Config wires the tool to its runner and instrumentation.
type Config struct {
	Runner  *run.Runner
	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// Tool runs one-shot shell commands through the bounded runner. Timeouts
// are an expected outcome for the caller and travel inside the result;
// only validation and daemon-side failures surface as errors.
type Tool struct {
	runner  *run.Runner
	metrics *observability.Metrics
	logger  *slog.Logger
}

// New creates the shell tool.
func New(cfg Config) (*Tool, error) {
	if cfg.Runner == nil {
		return nil, fmt.Errorf("shell: runner is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Tool{
		runner:  cfg.Runner,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}, nil
}

func (t *Tool) Name() string { return "shell" }

func (t *Tool) Description() string {
	return "Run a shell command with a deadline; output is truncated past the configured limit."
}

func (t *Tool) Schema() json.RawMessage {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"command": map[string]interface{}{
				"type":        "string",
				"description": "Shell command to execute.",
			},
			"timeout": map[string]interface{}{
				"type":        "number",
				"description": "Timeout in seconds (default 120).",
				"minimum":     0,
			},
		},
		"required":             []string{"command"},
		"additionalProperties": false,
	}
	payload, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return payload
}

// Execute runs the command and renders its streams into a single result.
func (t *Tool) Execute(ctx context.Context, params json.RawMessage) (*tools.Result, error) {
	var input struct {
		Command string  `json:"command"`
		Timeout float64 `json:"timeout"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return nil, tools.Validationf("invalid params: %v", err)
	}
	command := strings.TrimSpace(input.Command)
	if command == "" {
		return nil, tools.Validationf("command is required")
	}
	if input.Timeout < 0 {
		return nil, tools.Validationf("timeout must not be negative")
	}

	req := run.Request{
		Command: command,
		Timeout: time.Duration(input.Timeout * float64(time.Second)),
	}

	start := time.Now()
	res, err := t.runner.Shell(ctx, req)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		t.record("success", elapsed)
		t.logger.Debug("command finished",
			"exit_code", res.ExitCode,
			"duration", res.Duration,
		)
		return tools.TextResult(render(res)), nil
	case run.IsTimeout(err):
		t.record("timeout", elapsed)
		t.logger.Warn("command timed out", "timeout", req.Timeout)
		return tools.ErrorResult(err.Error()), nil
	default:
		t.record("error", elapsed)
		return nil, tools.WrapError(tools.KindExecution, "run command", err)
	}
}

func (t *Tool) record(status string, elapsed time.Duration) {
	if t.metrics == nil {
		return
	}
	t.metrics.RecordCommand(status, elapsed.Seconds())
}

// render folds the command streams into one text block: stdout first,
// stderr under a banner, and a trailing note for non-zero exits.
func render(res *run.ShellResult) string {
	var b strings.Builder
	b.WriteString(res.Stdout)
	if res.Stderr != "" {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
		b.WriteString("(stderr)\n")
		b.WriteString(res.Stderr)
	}
	if res.ExitCode != 0 {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "(exit code %d)", res.ExitCode)
	}
	return b.String()
}

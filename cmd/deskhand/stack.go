package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/haasonsaas/deskhand/internal/config"
	"github.com/haasonsaas/deskhand/internal/display"
	"github.com/haasonsaas/deskhand/internal/input"
	"github.com/haasonsaas/deskhand/internal/observability"
	"github.com/haasonsaas/deskhand/internal/run"
	"github.com/haasonsaas/deskhand/internal/tools"
	"github.com/haasonsaas/deskhand/internal/tools/computer"
	"github.com/haasonsaas/deskhand/internal/tools/shell"
)

// stack is the assembled tool surface shared by serve and one-shot modes.
type stack struct {
	registry *tools.Registry
	runner   *run.Runner
}

func (s *stack) Close() {
	s.runner.Close()
}

// buildStack wires the input backend, coordinate scaling, capture, and
// command runner into a tool registry.
func buildStack(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (*stack, error) {
	// The input backend resolves the X display from the environment at
	// first use, so DISPLAY must be set before the resolution probe.
	if cfg.Display.Number >= 0 {
		if err := os.Setenv("DISPLAY", fmt.Sprintf(":%d", cfg.Display.Number)); err != nil {
			return nil, fmt.Errorf("set DISPLAY: %w", err)
		}
	}

	scaler := cfg.Scaler(input.DetectResolution)

	computerTool, err := computer.New(computer.Config{
		Scaler:        scaler,
		Controller:    input.NewRobot(),
		Capturer:      display.NewCapturer(scaler, input.NewScreen()),
		DisplayNumber: cfg.Display.Number,
		TypingDelay:   cfg.TypingDelay(),
		Metrics:       metrics,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	runner := run.NewRunner(run.Config{
		Shell:         cfg.Exec.Shell,
		Timeout:       cfg.ExecTimeout(),
		TruncateAfter: cfg.Exec.TruncateAfter,
		Workers:       cfg.Exec.Workers,
		Logger:        logger,
	})

	shellTool, err := shell.New(shell.Config{
		Runner:  runner,
		Metrics: metrics,
		Logger:  logger,
	})
	if err != nil {
		runner.Close()
		return nil, err
	}

	registry := tools.NewRegistry()
	for _, tool := range []tools.Tool{computerTool, shellTool} {
		if err := registry.Register(tool); err != nil {
			runner.Close()
			return nil, err
		}
	}

	return &stack{registry: registry, runner: runner}, nil
}

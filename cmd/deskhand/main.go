// Package main provides the CLI entry point for the deskhand desktop
// automation daemon.
//
// Deskhand drives the local display for a controlling agent: it injects
// mouse and keyboard input, captures normalized screenshots, and runs
// shell commands under deadlines. Agents connect over a WebSocket control
// plane; a one-shot mode invokes tools directly from the command line.
//
// # Basic Usage
//
// Start the daemon:
//
//	deskhand serve --config deskhand.yaml
//
// Invoke a tool once:
//
//	deskhand do computer '{"action": "screenshot"}'
//	deskhand do shell '{"command": "uname -a"}'
//
// Inspect configuration:
//
//	deskhand config init
//	deskhand config check
//	deskhand config schema
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/deskhand/internal/config"
)

// Build information - populated by ldflags during build.
//
// Example build command:
//
//	go build -ldflags "-X main.version=v1.0.0 -X main.commit=$(git rev-parse HEAD) -X main.date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	version = "dev"     // Semantic version (e.g., "v1.0.0")
	commit  = "none"    // Git commit SHA
	date    = "unknown" // Build timestamp
)

const defaultConfigPath = "deskhand.yaml"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
// This is separated from main() to facilitate testing.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "deskhand",
		Short: "Deskhand - local desktop automation daemon",
		Long: `Deskhand drives the local display for a controlling agent.

It exposes two tools: "computer" (mouse, keyboard, screenshots in a fixed
1280x800 logical coordinate space) and "shell" (commands under deadlines
with bounded output). Agents connect over a WebSocket control plane, or
tools can be invoked one-shot with "deskhand do".`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		// SilenceUsage prevents printing usage on every error.
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildServeCmd(),
		buildDoCmd(),
		buildToolsCmd(),
		buildConfigCmd(),
	)

	return rootCmd
}

// loadConfig reads the config file, falling back to defaults when the
// default path does not exist. An explicitly passed path must exist.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

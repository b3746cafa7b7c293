package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/deskhand/internal/observability"
)

// buildDoCmd creates the "do" command for one-shot tool invocation.
func buildDoCmd() *cobra.Command {
	var (
		configPath string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "do <tool> [input-json]",
		Short: "Invoke a tool once and print the result",
		Long: `Invoke a single tool and print its result as JSON on stdout.

The input is a JSON object matching the tool's schema; it defaults to {}
when omitted. Logs go to stderr so stdout stays machine-parseable.`,
		Example: `  # Take a screenshot (base64 PNG in the result)
  deskhand do computer '{"action": "screenshot"}'

  # Click at a logical coordinate
  deskhand do computer '{"action": "left_click", "coordinate": [640, 400]}'

  # Run a shell command with a 5 second deadline
  deskhand do shell '{"command": "uname -a", "timeout": 5}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := "{}"
			if len(args) > 1 {
				input = args[1]
			}
			return runDo(cmd, configPath, cmd.Flags().Changed("config"), args[0], input, timeout)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath,
		"Path to YAML configuration file")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute,
		"Overall invocation deadline")

	return cmd
}

func runDo(cmd *cobra.Command, configPath string, explicitConfig bool, toolName, input string, timeout time.Duration) error {
	cfg, err := loadConfig(configPath, explicitConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:  "warn",
		Format: cfg.Log.Format,
	})

	st, err := buildStack(cfg, observability.NewMetrics(), logger)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	result, err := st.registry.Execute(ctx, toolName, json.RawMessage(input))
	if err != nil {
		return err
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(payload))

	if result.IsError() {
		return fmt.Errorf("%s reported an error", toolName)
	}
	return nil
}

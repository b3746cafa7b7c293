package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/deskhand/internal/config"
)

// buildConfigCmd creates the "config" command group.
func buildConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and manage configuration",
	}
	cmd.AddCommand(buildConfigInitCmd(), buildConfigCheckCmd(), buildConfigSchemaCmd())
	return cmd
}

func buildConfigInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter configuration file",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigPath
			if len(args) > 0 {
				path = args[0]
			}
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}
			if err := os.WriteFile(path, []byte(configTemplate), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config written: %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func buildConfigCheckCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration OK: %s\n", configPath)
			fmt.Fprintf(out, "  listen:  %s:%d\n", cfg.Server.Host, cfg.Server.Port)
			fmt.Fprintf(out, "  display: %d (scaling: %v)\n", cfg.Display.Number, cfg.Display.Scaling)
			fmt.Fprintf(out, "  shell:   %s\n", cfg.Exec.Shell)
			fmt.Fprintf(out, "  timeout: %s\n", cfg.ExecTimeout())
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath,
		"Path to YAML configuration file")
	return cmd
}

func buildConfigSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the configuration JSON schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := config.JSONSchema()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(schema))
			return nil
		},
	}
}

// configTemplate is the starter file written by "config init". It must
// parse under strict decoding against the config structs.
const configTemplate = `# deskhand configuration.
#
# Every field is optional; unset fields keep their defaults. Values in
# the form ${VAR} are expanded from the environment before parsing.

server:
  host: 127.0.0.1
  port: 8811
  enabled: true

display:
  # X display to drive, exported as DISPLAY=:<number> at startup. Use -1
  # to inherit the process environment untouched.
  number: 0
  # Map the fixed 1280x800 logical coordinate space onto the physical
  # display. Disable to pass coordinates through unscaled.
  scaling: true
  # Physical resolution override. Leave both at 0 to probe the display
  # at startup.
  width: 0
  height: 0

input:
  typing_delay_ms: 12

exec:
  shell: /bin/sh
  timeout_seconds: 120
  truncate_after: 16000
  workers: 4

log:
  level: info
  format: json
  add_source: false

tracing:
  # OTLP gRPC endpoint, e.g. localhost:4317. Empty disables tracing.
  endpoint: ""
  sample_rate: 1.0
  insecure: false
`

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/deskhand/internal/observability"
	"github.com/haasonsaas/deskhand/internal/tools"
)

// buildToolsCmd creates the "tools" command listing the tool surface.
func buildToolsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List available tools and their declared options",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, cmd.Flags().Changed("config"))
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

			out := cmd.OutOrStdout()
			for _, tool := range st.registry.List() {
				fmt.Fprintf(out, "%s\n", tool.Name())
				fmt.Fprintf(out, "  %s\n", tool.Description())
				if provider, ok := tool.(tools.OptionsProvider); ok {
					options := provider.Options()
					keys := make([]string, 0, len(options))
					for key := range options {
						keys = append(keys, key)
					}
					sort.Strings(keys)
					for _, key := range keys {
						fmt.Fprintf(out, "  %s: %v\n", key, options[key])
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath,
		"Path to YAML configuration file")

	return cmd
}

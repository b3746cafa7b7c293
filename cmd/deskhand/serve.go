package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/deskhand/internal/config"
	"github.com/haasonsaas/deskhand/internal/observability"
	"github.com/haasonsaas/deskhand/internal/server"
)

// buildServeCmd creates the "serve" command that starts the daemon.
// This is the primary command for running deskhand in production.
func buildServeCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
		watch      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the deskhand daemon",
		Long: `Run the deskhand daemon with the WebSocket control plane.

The daemon will:
1. Load configuration from the specified file (or deskhand.yaml)
2. Probe the display and build the coordinate scaler
3. Register the computer and shell tools
4. Serve /ws (control plane), /healthz, and /metrics

Graceful shutdown is handled on SIGINT/SIGTERM signals.`,
		Example: `  # Start with default config
  deskhand serve

  # Start with custom config and live log-level reload
  deskhand serve --config /etc/deskhand/deskhand.yaml --watch

  # Start with debug logging
  deskhand serve --debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath, cmd.Flags().Changed("config"), debug, watch)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath,
		"Path to YAML configuration file")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false,
		"Enable debug logging (verbose output)")
	cmd.Flags().BoolVar(&watch, "watch", false,
		"Reload the log level when the config file changes")

	return cmd
}

func runServe(ctx context.Context, configPath string, explicitConfig, debug, watch bool) error {
	cfg, err := loadConfig(configPath, explicitConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.Server.Enabled {
		return fmt.Errorf("server.enabled is false; nothing to serve")
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(observability.ParseLevel(cfg.Log.Level))
	if debug {
		levelVar.Set(slog.LevelDebug)
	}
	logger := observability.NewLogger(observability.LogConfig{
		Format:    cfg.Log.Format,
		AddSource: cfg.Log.AddSource,
		LevelVar:  levelVar,
	})
	slog.SetDefault(logger)

	logger.Info("starting deskhand",
		"version", version,
		"commit", commit,
		"config", configPath,
	)

	metrics := observability.NewMetrics()
	tracer, stopTracer := observability.NewTracer(observability.TraceConfig{
		ServiceName:    "deskhand",
		ServiceVersion: version,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SampleRate,
		EnableInsecure: cfg.Tracing.Insecure,
	})

	st, err := buildStack(cfg, metrics, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	srv, err := server.New(server.Config{
		Host:     cfg.Server.Host,
		Port:     cfg.Server.Port,
		Version:  version,
		Registry: st.registry,
		Metrics:  metrics,
		Tracer:   tracer,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}

	// Create a context that cancels on shutdown signals.
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if watch {
		go func() {
			err := config.Watch(ctx, configPath, func(next *config.Config) {
				levelVar.Set(observability.ParseLevel(next.Log.Level))
				logger.Info("config reloaded", "log_level", next.Log.Level)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("config watch stopped", "error", err)
			}
		}()
	}

	logger.Info("deskhand ready",
		"addr", srv.Addr(),
		"tools", len(st.registry.List()),
	)

	// Wait for shutdown signal.
	<-ctx.Done()
	logger.Info("shutdown signal received, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", "error", err)
	}
	if err := stopTracer(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown", "error", err)
	}

	logger.Info("deskhand stopped gracefully")
	return nil
}

// Package server exposes the daemon's tools over a WebSocket control
// plane, with health and metrics endpoints on the same listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/haasonsaas/deskhand/internal/observability"
	"github.com/haasonsaas/deskhand/internal/tools"
)

// Config wires the server to the tool registry and instrumentation.
type Config struct {
	Host     string
	Port     int
	Version  string
	Registry *tools.Registry
	Metrics  *observability.Metrics
	Tracer   *observability.Tracer
	Logger   *slog.Logger
}

// Server serves the control plane. Tool invocations are handled one at
// a time per connection; cross-connection serialization is the tools'
// own concern.
type Server struct {
	config      Config
	logger      *slog.Logger
	registry    *tools.Registry
	metrics     *observability.Metrics
	tracer      *observability.Tracer
	toolSchemas map[string]*jsonschema.Schema
	upgrader    websocket.Upgrader
	startTime   time.Time

	httpServer *http.Server
	listener   net.Listener
}

// New builds the server and compiles the input schema of every
// registered tool. A tool with an uncompilable schema is a wiring bug
// and fails construction.
func New(cfg Config) (*Server, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("server: registry is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NewMetrics()
	}
	if cfg.Tracer == nil {
		cfg.Tracer, _ = observability.NewTracer(observability.TraceConfig{})
	}

	schemas, err := compileToolSchemas(cfg.Registry)
	if err != nil {
		return nil, err
	}

	return &Server{
		config:      cfg,
		logger:      cfg.Logger,
		registry:    cfg.Registry,
		metrics:     cfg.Metrics,
		tracer:      cfg.Tracer,
		toolSchemas: schemas,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  8192,
			WriteBufferSize: 8192,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
		startTime: time.Now(),
	}, nil
}

// Handler returns the HTTP surface: /ws, /healthz, and /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// Start listens and serves in the background. Use Shutdown to stop.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	s.logger.Info("control plane listening", "addr", listener.Addr().String())
	return nil
}

// Addr returns the bound address, or empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

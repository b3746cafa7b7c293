// Package run bounds the execution time of arbitrary operations, both
// external processes and in-process callables, under one timeout and
// output-truncation policy.
package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Defaults forming the published execution contract.
const (
	// DefaultTimeout bounds operations that do not set their own deadline.
	DefaultTimeout = 120 * time.Second

	// DefaultTruncateAfter is the per-stream output ceiling, in bytes.
	DefaultTruncateAfter = 16000
)

// maxStreamBytes caps what a process may buffer per stream regardless of
// the truncation policy, so a runaway command cannot exhaust memory even
// when truncation is disabled.
const maxStreamBytes = 4 << 20

// Callable is a context-aware unit of work. It is expected to observe
// cancellation; blocking work that cannot should go through Offload.
type Callable func(ctx context.Context) (any, error)

// Request bounds one operation. Exactly one of Command and Fn must be set.
// Zero Timeout and TruncateAfter mean "use the runner's defaults"; a
// negative TruncateAfter disables truncation.
type Request struct {
	Command       string
	Fn            Callable
	Name          string
	Timeout       time.Duration
	TruncateAfter int
}

// ShellResult summarizes a completed process run. Stdout and Stderr are
// truncated independently per the request's policy.
type ShellResult struct {
	Command  string        `json:"command"`
	ExitCode int           `json:"exit_code"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	Duration time.Duration `json:"duration"`
}

// Config configures a Runner.
type Config struct {
	// Shell is the interpreter for command text. Defaults to /bin/sh.
	Shell string

	// Timeout is the default deadline. Defaults to DefaultTimeout.
	Timeout time.Duration

	// TruncateAfter is the default output ceiling. Defaults to
	// DefaultTruncateAfter; negative disables truncation.
	TruncateAfter int

	// Workers sizes the pool used by Offload.
	Workers int

	// Logger receives debug/warn events. Defaults to slog.Default().
	Logger *slog.Logger
}

// Runner executes operations under a deadline. A Runner is safe for
// concurrent use; Close releases its worker pool.
type Runner struct {
	shell         string
	timeout       time.Duration
	truncateAfter int
	pool          *Pool
	logger        *slog.Logger
}

// NewRunner creates a Runner, filling zero config fields with defaults.
func NewRunner(cfg Config) *Runner {
	if cfg.Shell == "" {
		cfg.Shell = "/bin/sh"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.TruncateAfter == 0 {
		cfg.TruncateAfter = DefaultTruncateAfter
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Runner{
		shell:         cfg.Shell,
		timeout:       cfg.Timeout,
		truncateAfter: cfg.TruncateAfter,
		pool:          NewPool(cfg.Workers),
		logger:        cfg.Logger,
	}
}

// Close releases the runner's worker pool, waiting for in-flight jobs.
func (r *Runner) Close() {
	r.pool.Close()
}

// Run dispatches a request to the process or callable path.
func (r *Runner) Run(ctx context.Context, req Request) (any, error) {
	switch {
	case req.Command != "" && req.Fn != nil:
		return nil, fmt.Errorf("request sets both command and fn")
	case req.Command != "":
		return r.Shell(ctx, req)
	case req.Fn != nil:
		return r.Call(ctx, req.Name, req.Fn, req.Timeout)
	default:
		return nil, fmt.Errorf("request sets neither command nor fn")
	}
}

// Shell spawns req.Command under the configured interpreter, collects
// stdout and stderr independently, and waits up to the deadline. On
// expiry the process is killed and a *TimeoutError is returned; losing
// the kill race against a process that already exited is tolerated.
func (r *Runner) Shell(ctx context.Context, req Request) (*ShellResult, error) {
	if strings.TrimSpace(req.Command) == "" {
		return nil, fmt.Errorf("command is required")
	}
	timeout := req.Timeout
	if timeout == 0 {
		timeout = r.timeout
	}
	limit := req.TruncateAfter
	if limit == 0 {
		limit = r.truncateAfter
	}

	cmd := exec.Command(r.shell, "-c", req.Command)
	stdout := newLimitedBuffer(maxStreamBytes)
	stderr := newLimitedBuffer(maxStreamBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start command: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case waitErr := <-done:
		result := &ShellResult{
			Command:  req.Command,
			ExitCode: exitCode(waitErr),
			Stdout:   MaybeTruncate(stdout.String(), limit),
			Stderr:   MaybeTruncate(stderr.String(), limit),
			Duration: time.Since(start),
		}
		r.logger.Debug("command finished",
			"command", req.Command,
			"exit_code", result.ExitCode,
			"duration", result.Duration)
		return result, nil

	case <-timer.C:
		r.kill(cmd)
		return nil, &TimeoutError{Op: req.Command, Timeout: timeout, kind: opCommand}

	case <-ctx.Done():
		r.kill(cmd)
		return nil, ctx.Err()
	}
}

// Call runs a context-aware callable directly under a deadline derived
// from ctx. A deadline expiry surfaces as *TimeoutError; other failures
// pass through unchanged. The callable's result is never truncated.
func (r *Runner) Call(ctx context.Context, name string, fn Callable, timeout time.Duration) (any, error) {
	if timeout == 0 {
		timeout = r.timeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := fn(callCtx)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded &&
			(errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) {
			return nil, &TimeoutError{Op: name, Timeout: timeout, kind: opCallable}
		}
		return nil, err
	}
	return out, nil
}

// Offload submits a blocking function to the worker pool and joins it
// under the deadline. On expiry the function is abandoned, not
// interrupted: it finishes on its worker and the late result is
// discarded.
func (r *Runner) Offload(ctx context.Context, name string, fn func() (any, error), timeout time.Duration) (any, error) {
	if timeout == 0 {
		timeout = r.timeout
	}
	outcome, err := r.pool.Submit(ctx, fn)
	if err != nil {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-outcome:
		return res.Value, res.Err
	case <-timer.C:
		r.logger.Warn("operation abandoned after deadline", "op", name, "timeout", timeout)
		return nil, &TimeoutError{Op: name, Timeout: timeout, kind: opCallable}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// kill forcibly terminates a started process. A process that already
// exited reports os.ErrProcessDone; that race is expected and dropped.
func (r *Runner) kill(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		r.logger.Warn("kill after deadline", "error", err)
	}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

type limitedBuffer struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func newLimitedBuffer(max int) *limitedBuffer {
	return &limitedBuffer{max: max}
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.max > 0 && len(b.buf) >= b.max {
		return len(p), nil
	}
	remaining := b.max - len(b.buf)
	if b.max > 0 && len(p) > remaining {
		b.buf = append(b.buf, p[:remaining]...)
		return len(p), nil
	}
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}

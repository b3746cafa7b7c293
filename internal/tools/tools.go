// Package tools defines the agent-facing tool contract shared by every
// deskhand tool: the Tool interface, the wire-level Result shape, and the
// structured error taxonomy tools report failures with.
package tools

import (
	"context"
	"encoding/json"
)

// Tool is a single capability the daemon exposes to a controlling agent.
type Tool interface {
	// Name returns the tool name used for invocation routing.
	// Must be a valid function name (alphanumeric, underscores).
	Name() string

	// Description returns a natural language description of what the tool does.
	Description() string

	// Schema returns the JSON Schema defining the tool's input parameters.
	Schema() json.RawMessage

	// Execute runs the tool with the given JSON parameters.
	// The params match the schema returned by Schema().
	Execute(ctx context.Context, params json.RawMessage) (*Result, error)
}

// OptionsProvider is implemented by tools that publish a capability
// surface to the agent beyond name/description/schema (for example the
// computer tool's declared display geometry).
type OptionsProvider interface {
	Options() map[string]any
}

// Result is the outcome of a tool execution as it travels back to the
// agent. At most one of Output/Base64Image carries payload on success;
// Error is mutually exclusive with both. Use the constructors below
// rather than building Results by hand so the exclusivity holds.
type Result struct {
	// Output is the tool's textual output, if any.
	Output string `json:"output,omitempty"`

	// Error is a human-readable failure message. A Result with Error set
	// never carries Output or Base64Image.
	Error string `json:"error,omitempty"`

	// Base64Image is a base64-encoded PNG payload, if the tool produced
	// a visual result.
	Base64Image string `json:"base64_image,omitempty"`
}

// TextResult returns a successful result carrying textual output.
func TextResult(output string) *Result {
	return &Result{Output: output}
}

// ImageResult returns a successful result carrying a base64-encoded PNG.
func ImageResult(b64 string) *Result {
	return &Result{Base64Image: b64}
}

// ErrorResult returns a failed result carrying only an error message.
func ErrorResult(msg string) *Result {
	return &Result{Error: msg}
}

// IsError reports whether the result represents a failure.
func (r *Result) IsError() bool {
	return r != nil && r.Error != ""
}

// Empty reports whether the result carries no payload at all. Actions
// with no observable output (pointer moves, key presses) return empty
// successful results.
func (r *Result) Empty() bool {
	return r == nil || (r.Output == "" && r.Error == "" && r.Base64Image == "")
}

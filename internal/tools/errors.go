package tools

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTool indicates an invocation named a tool that is not registered.
var ErrUnknownTool = errors.New("unknown tool")

// ErrorKind categorizes tool failures.
type ErrorKind string

const (
	// KindValidation indicates the request violated the tool's input
	// contract: missing required parameter, disallowed parameter present,
	// malformed or out-of-range coordinate, unknown action. Raised before
	// any side effect.
	KindValidation ErrorKind = "validation"

	// KindInjection indicates the input backend failed while synthesizing
	// pointer or keyboard events.
	KindInjection ErrorKind = "injection"

	// KindCapture indicates the display could not be captured or encoded.
	KindCapture ErrorKind = "capture"

	// KindExecution indicates a runtime failure while executing the
	// requested operation.
	KindExecution ErrorKind = "execution"
)

// ToolError is a structured failure raised by a tool. It propagates
// synchronously to the immediate caller; tools never retry internally.
type ToolError struct {
	// Kind categorizes the failure.
	Kind ErrorKind

	// Message is the human-readable error message.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s]", e.Kind))
	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying error.
func (e *ToolError) Unwrap() error {
	return e.Cause
}

// Validationf builds a validation-kind ToolError from a format string.
func Validationf(format string, args ...any) *ToolError {
	return &ToolError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds a ToolError of the given kind around an underlying cause.
func WrapError(kind ErrorKind, msg string, cause error) *ToolError {
	return &ToolError{Kind: kind, Message: msg, Cause: cause}
}

// IsValidation reports whether err is a validation-kind ToolError.
func IsValidation(err error) bool {
	var te *ToolError
	return errors.As(err, &te) && te.Kind == KindValidation
}

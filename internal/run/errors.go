package run

import (
	"errors"
	"fmt"
	"time"
)

type opKind int

const (
	opCommand opKind = iota
	opCallable
)

// TimeoutError is returned when a bounded operation exceeds its deadline.
// It names the operation and the configured deadline; for processes the
// process has already been killed by the time the error is returned.
type TimeoutError struct {
	// Op identifies the operation: the command text for processes, the
	// caller-supplied name for callables.
	Op string

	// Timeout is the deadline that expired.
	Timeout time.Duration

	kind opKind
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	if e.kind == opCommand {
		return fmt.Sprintf("Command '%s' timed out after %g seconds", e.Op, e.Timeout.Seconds())
	}
	return fmt.Sprintf("Operation timed out after %g seconds", e.Timeout.Seconds())
}

// IsTimeout reports whether err is a bounded-execution timeout.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

package config

import (
	"errors"
	"regexp"
	"strings"
)

// Shell interpreter validation errors.
var (
	errShellEmpty       = errors.New("value is empty")
	errShellControlChar = errors.New("value contains control characters")
	errShellMetachar    = errors.New("value contains shell metacharacters")
	errShellQuoteChar   = errors.New("value contains quote characters")
	errShellOptionLike  = errors.New("value starts with a dash")
	errShellBadName     = errors.New("value is not a command name or path")
)

var (
	shellControlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	shellMetachars    = regexp.MustCompile(`[;&|` + "`" + `$<>]`)
	shellQuoteChars   = regexp.MustCompile(`["']`)
	shellBareName     = regexp.MustCompile(`^[A-Za-z0-9._+-]+$`)
)

// checkShell validates that exec.shell names a plausible interpreter:
// a filesystem path or a bare command resolvable via PATH. The value is
// handed to exec.Command verbatim, never to a shell, so metacharacters
// cannot inject anything. They do indicate a mangled config, and this
// rejects them before the first command silently fails.
func checkShell(value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return errShellEmpty
	}
	if shellControlChars.MatchString(trimmed) {
		return errShellControlChar
	}
	if shellMetachars.MatchString(trimmed) {
		return errShellMetachar
	}
	if shellQuoteChars.MatchString(trimmed) {
		return errShellQuoteChar
	}
	if shellPathLike(trimmed) {
		return nil
	}
	if strings.HasPrefix(trimmed, "-") {
		return errShellOptionLike
	}
	if !shellBareName.MatchString(trimmed) {
		return errShellBadName
	}
	return nil
}

// shellPathLike reports whether the value should be treated as a
// filesystem path rather than a bare command name.
func shellPathLike(value string) bool {
	return strings.HasPrefix(value, ".") ||
		strings.HasPrefix(value, "~") ||
		strings.Contains(value, "/")
}

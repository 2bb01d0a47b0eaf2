// Package policy decides whether a command may run on a profile. It
// normalizes raw commands, derives approvable prefixes, evaluates the
// profile's static rules, and tracks per-session trusted prefixes.
//
// Nothing in this package blocks or performs I/O; every decision completes
// synchronously so concurrent requests interleave only around execution.
package policy

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrInvalidCommand is the parent of every normalization failure.
var ErrInvalidCommand = errors.New("invalid command")

// Normalization failures. Each satisfies errors.Is(err, ErrInvalidCommand).
var (
	ErrEmptyCommand     error = &commandError{"command is empty"}
	ErrMultilineCommand error = &commandError{"command must be a single line"}
	ErrCommandTooLong   error = &commandError{"command too long"}
	ErrCommandDenied    error = &commandError{"command blocked by policy"}
)

type commandError struct{ msg string }

func (e *commandError) Error() string { return e.msg }
func (e *commandError) Unwrap() error { return ErrInvalidCommand }

// DeniedError reports a deny_regexes match. Its message never includes the
// pattern; callers that need it for auditing read Pattern directly.
type DeniedError struct {
	Pattern string
}

func (e *DeniedError) Error() string { return ErrCommandDenied.Error() }
func (e *DeniedError) Unwrap() error { return ErrCommandDenied }

// Normalize validates and canonicalizes a raw command for p. It returns the
// trimmed command, or an error wrapping ErrInvalidCommand. Deny patterns are
// checked here, before any allow rule is consulted.
func (p *Policy) Normalize(raw string) (string, error) {
	cmd := strings.TrimSpace(raw)
	if cmd == "" {
		return "", ErrEmptyCommand
	}
	if strings.ContainsAny(cmd, "\r\n") {
		return "", ErrMultilineCommand
	}
	if n := utf8.RuneCountInString(cmd); n > p.maxCommandLength {
		return "", fmt.Errorf("%w (max %d, got %d)", ErrCommandTooLong, p.maxCommandLength, n)
	}
	for _, rx := range p.deny {
		if rx.MatchString(cmd) {
			return "", &DeniedError{Pattern: rx.String()}
		}
	}
	return cmd, nil
}

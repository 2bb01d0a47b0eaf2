// Package clog provides operational logging for sshgate.
// This is distinct from the audit trail (see internal/audit) and from
// user-facing CLI output (see internal/term).
//
// Log levels:
//   - Debug: policy decisions and transport details, only with --debug
//   - Info: startup, shutdown, executions
//   - Warn: recoverable problems (skipped patterns, evicted approvals)
//   - Error: failures that affect a request
//
// Output destinations:
//   - File: all levels at or above the configured level
//   - Stderr: Warn and Error only, disabled in daemon mode
//
// When serving MCP over stdio, stdout belongs to the protocol; nothing in
// this package ever writes to stdout.
package clog

import (
	"fmt"
	"strings"
)

// Level represents the severity of a log message.
type Level int

const (
	// LevelDebug is for verbose diagnostic information.
	LevelDebug Level = iota
	// LevelInfo is for normal operational events.
	LevelInfo
	// LevelWarn is for unexpected conditions that don't prevent operation.
	LevelWarn
	// LevelError is for failures that affect functionality.
	LevelError
)

// String returns the uppercase name of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a level string (case-insensitive).
// Returns LevelInfo if the string is not recognized.
func ParseLevel(s string) Level {
	l, err := lookupLevel(s)
	if err != nil {
		return LevelInfo
	}
	return l
}

// UnmarshalText implements encoding.TextUnmarshaler so a Level can be
// decoded straight from environment variables. Unlike ParseLevel it rejects
// unknown names; an empty value yields LevelInfo.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := lookupLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

func lookupLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error", "err":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

package dispatch

import (
	"fmt"
	"time"
	"unicode/utf8"

	"mvdan.cc/sh/v3/syntax"
)

// ComposeCommand prefixes command with a change of directory when dir is
// set. The directory is shell-quoted so it is always a single word.
func ComposeCommand(dir, command string) (string, error) {
	if dir == "" {
		return command, nil
	}
	quoted, err := syntax.Quote(dir, syntax.LangPOSIX)
	if err != nil {
		return "", fmt.Errorf("%w: working_dir %q cannot be quoted: %w", ErrExecutionFailure, dir, err)
	}
	return "cd " + quoted + " && " + command, nil
}

// ResolveTimeout returns the effective timeout. requested is used when
// non-nil, otherwise def; the result is clamped to maxSec and is never
// below one second.
func ResolveTimeout(requested *int, def, maxSec int) time.Duration {
	t := def
	if requested != nil {
		t = *requested
	}
	t = max(1, min(t, maxSec))
	return time.Duration(t) * time.Second
}

// Truncate shortens s to limit characters, appending a marker with the
// number of characters removed. A limit below zero disables truncation.
func Truncate(s string, limit int) string {
	if limit < 0 {
		return s
	}
	n := utf8.RuneCountInString(s)
	if n <= limit {
		return s
	}
	seen := 0
	for i := range s {
		if seen == limit {
			return s[:i] + fmt.Sprintf("\n...[truncated %d chars]", n-limit)
		}
		seen++
	}
	return s
}

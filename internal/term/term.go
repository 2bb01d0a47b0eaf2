// Package term provides user-facing terminal output for the sshgate CLI.
// This is distinct from operational logging (see internal/clog).
//
// Output functions:
//   - Print/Printf/Println: normal output to stdout (suppressed with --silent)
//   - Warn/Error: messages to stderr (never suppressed)
//   - Allow/Deny/Escalate: verdict labels, colored only when stdout is a terminal
package term

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	xterm "golang.org/x/term"
)

var (
	mu     sync.Mutex
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	silent bool
)

var (
	allowStyle    = color.New(color.FgGreen, color.Bold)
	denyStyle     = color.New(color.FgRed, color.Bold)
	escalateStyle = color.New(color.FgYellow, color.Bold)
)

// SetSilent enables or disables silent mode.
// When silent, Print/Printf/Println are suppressed.
func SetSilent(s bool) {
	mu.Lock()
	defer mu.Unlock()
	silent = s
}

// SetOutput sets the writer for stdout output.
// Pass nil to use os.Stdout.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		stdout = os.Stdout
	} else {
		stdout = w
	}
}

// SetErrOutput sets the writer for stderr output.
// Pass nil to use os.Stderr.
func SetErrOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		stderr = os.Stderr
	} else {
		stderr = w
	}
}

// Print formats and writes to stdout.
func Print(a ...any) {
	mu.Lock()
	defer mu.Unlock()
	if silent {
		return
	}
	_, _ = fmt.Fprint(stdout, a...)
}

// Printf formats according to a format specifier and writes to stdout.
func Printf(format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()
	if silent {
		return
	}
	_, _ = fmt.Fprintf(stdout, format, a...)
}

// Println formats and writes to stdout with a trailing newline.
func Println(a ...any) {
	mu.Lock()
	defer mu.Unlock()
	if silent {
		return
	}
	_, _ = fmt.Fprintln(stdout, a...)
}

// Warn writes a warning message to stderr with "Warning: " prefix.
func Warn(format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()
	_, _ = fmt.Fprintf(stderr, "Warning: %s\n", fmt.Sprintf(format, a...))
}

// Error writes an error message to stderr with "Error: " prefix.
func Error(format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()
	_, _ = fmt.Fprintf(stderr, "Error: %s\n", fmt.Sprintf(format, a...))
}

// Stdout returns the current stdout writer, or io.Discard when silent.
func Stdout() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	if silent {
		return io.Discard
	}
	return stdout
}

// IsTerminal reports whether stdout is an interactive terminal.
func IsTerminal() bool {
	mu.Lock()
	defer mu.Unlock()
	return isTTY(stdout)
}

// StdinIsTerminal reports whether os.Stdin is an interactive terminal.
func StdinIsTerminal() bool {
	return isTTY(os.Stdin)
}

func isTTY(w any) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return xterm.IsTerminal(int(f.Fd())) //nolint:gosec // G115: fd fits in int
}

// Allow renders an "allow" verdict label.
func Allow(label string) string { return styled(allowStyle, label) }

// Deny renders a "deny" verdict label.
func Deny(label string) string { return styled(denyStyle, label) }

// Escalate renders an "escalate" verdict label.
func Escalate(label string) string { return styled(escalateStyle, label) }

func styled(c *color.Color, label string) string {
	if !IsTerminal() {
		return label
	}
	c.EnableColor()
	return c.Sprint(label)
}

// Reset resets the package to default state.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	stdout = os.Stdout
	stderr = os.Stderr
	silent = false
}

// Discard configures the package to discard all output.
func Discard() {
	mu.Lock()
	defer mu.Unlock()
	stdout = io.Discard
	stderr = io.Discard
}

package clog

import (
	"io"
	"os"
	"sync"
)

var (
	stdMu sync.RWMutex
	std   = NewLogger()
)

func global() *Logger {
	stdMu.RLock()
	defer stdMu.RUnlock()
	return std
}

// Options configures the global logger.
type Options struct {
	// File is the log file path. Empty disables file logging.
	File string
	// Level is the minimum level written.
	Level Level
	// Daemon suppresses stderr mirroring.
	Daemon bool
}

// Configure sets up the global logger. The returned closer releases the log
// file, if any, and is safe to call when no file was opened.
func Configure(opts Options) (io.Closer, error) {
	l := global()
	l.SetLevel(opts.Level)
	l.SetDaemonMode(opts.Daemon)

	if opts.File == "" {
		return nopCloser{}, nil
	}
	f, err := OpenLogFile(opts.File)
	if err != nil {
		return nil, err
	}
	l.SetFileOutput(f)
	return f, nil
}

// SetLevel sets the minimum log level for the global logger.
func SetLevel(level Level) {
	global().SetLevel(level)
}

// Debug logs a debug message using the global logger.
func Debug(format string, args ...any) {
	global().Debug(format, args...)
}

// Info logs an informational message using the global logger.
func Info(format string, args ...any) {
	global().Info(format, args...)
}

// Warn logs a warning message using the global logger.
func Warn(format string, args ...any) {
	global().Warn(format, args...)
}

// Error logs an error message using the global logger.
func Error(format string, args ...any) {
	global().Error(format, args...)
}

// ReplaceGlobal replaces the global logger and returns the previous one.
// Tests use it to capture output; restore the original afterwards.
func ReplaceGlobal(l *Logger) *Logger {
	stdMu.Lock()
	defer stdMu.Unlock()
	old := std
	std = l
	return old
}

// Discard silences the global logger.
func Discard() {
	l := global()
	l.SetFileOutput(io.Discard)
	l.SetErrOutput(io.Discard)
}

// Reset restores the global logger to its defaults.
func Reset() {
	ReplaceGlobal(NewLogger())
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func init() {
	global().SetErrOutput(os.Stderr)
}

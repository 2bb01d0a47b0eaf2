package clog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newBufferLogger(level Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewLogger()
	l.SetFileOutput(&buf)
	l.SetErrOutput(nil)
	l.SetLevel(level)
	return l, &buf
}

func TestLogger_LevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(LevelWarn)

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	output := buf.String()
	if strings.Contains(output, "debug message") || strings.Contains(output, "info message") {
		t.Errorf("debug/info should be filtered at WARN, got: %s", output)
	}
	if !strings.Contains(output, "[WARN] warn message") {
		t.Errorf("expected warn message, got: %s", output)
	}
	if !strings.Contains(output, "[ERROR] error message") {
		t.Errorf("expected error message, got: %s", output)
	}
}

func TestLogger_FileLineFormat(t *testing.T) {
	l, buf := newBufferLogger(LevelDebug)
	l.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }

	l.Info("profile %s loaded (%d rules)", "prod", 3)

	want := "2026-03-01T09:30:00Z [INFO] profile prod loaded (3 rules)\n"
	if got := buf.String(); got != want {
		t.Errorf("line = %q, want %q", got, want)
	}
}

func TestLogger_DaemonMode(t *testing.T) {
	var fileBuf, errBuf bytes.Buffer
	l := NewLogger()
	l.SetFileOutput(&fileBuf)
	l.SetErrOutput(&errBuf)

	l.Info("quiet info")
	l.Warn("cli warning")
	if strings.Contains(errBuf.String(), "quiet info") {
		t.Error("info should not be mirrored to stderr")
	}
	if errBuf.String() != "[WARN] cli warning\n" {
		t.Errorf("stderr = %q, want short form", errBuf.String())
	}

	errBuf.Reset()
	l.SetDaemonMode(true)
	l.Error("daemon error")

	if !strings.Contains(fileBuf.String(), "daemon error") {
		t.Error("expected error in file output")
	}
	if errBuf.Len() != 0 {
		t.Errorf("daemon mode should not write to stderr, got %q", errBuf.String())
	}
}

func TestOpenLogFile_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sshgate.log")

	for _, line := range []string{"first\n", "second\n"} {
		f, err := OpenLogFile(path)
		if err != nil {
			t.Fatalf("OpenLogFile() error = %v", err)
		}
		if _, err := f.WriteString(line); err != nil {
			t.Fatalf("WriteString() error = %v", err)
		}
		_ = f.Close()
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(content) != "first\nsecond\n" {
		t.Errorf("content = %q", content)
	}
}

func TestDefaultLogPath(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/var/state")
	if got, want := DefaultLogPath(), "/var/state/sshgate/sshgate.log"; got != want {
		t.Errorf("DefaultLogPath() = %q, want %q", got, want)
	}
}

func TestConfigure_WritesFile(t *testing.T) {
	defer Reset()

	path := filepath.Join(t.TempDir(), "out.log")
	closer, err := Configure(Options{File: path, Level: LevelDebug, Daemon: true})
	if err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	Debug("approval %s created", "01HX")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(content), "[DEBUG] approval 01HX created") {
		t.Errorf("log file missing debug line: %s", content)
	}
}

func TestConfigure_NoFile(t *testing.T) {
	defer Reset()

	closer, err := Configure(Options{Level: LevelInfo})
	if err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if err := closer.Close(); err != nil {
		t.Errorf("Close() on nop closer error = %v", err)
	}
}

func TestReplaceGlobal(t *testing.T) {
	l, buf := newBufferLogger(LevelDebug)
	old := ReplaceGlobal(l)
	defer ReplaceGlobal(old)

	Warn("session %q cleared", "s1")
	if !strings.Contains(buf.String(), `[WARN] session "s1" cleared`) {
		t.Errorf("global Warn not routed to replacement: %s", buf.String())
	}
}

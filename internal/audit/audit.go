// Package audit provides structured logging for command authorization and
// execution events. Log entries follow a key=value format suitable for
// parsing and analysis.
package audit

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// EventType represents the type of audit event.
type EventType string

// Event types for command decisions.
const (
	EventRequest  EventType = "REQUEST"
	EventAllow    EventType = "ALLOW"
	EventDeny     EventType = "DENY"
	EventEscalate EventType = "ESCALATE"
	EventApprove  EventType = "APPROVE"
	EventReject   EventType = "REJECT"
)

// Event types for execution and session management.
const (
	EventComplete     EventType = "COMPLETE"
	EventTimeout      EventType = "TIMEOUT"
	EventFail         EventType = "FAIL"
	EventSessionClear EventType = "SESSION_CLEAR"
)

// Event represents an audit log entry.
type Event struct {
	// Timestamp is when the event occurred.
	Timestamp time.Time

	// Type is the event type (REQUEST, ALLOW, etc.)
	Type EventType

	// Session is the caller-defined session id.
	Session string

	// Profile is the target profile name.
	Profile string

	// Cmd is the normalized command.
	Cmd string

	// Rule names the policy rule that allowed the command (ALLOW).
	Rule string

	// Reason explains a denial or rejection (DENY, REJECT).
	Reason string

	// Pattern is the deny pattern that matched (DENY). It is recorded here
	// and never returned to the caller.
	Pattern string

	// Approval is the pending approval id (ESCALATE, APPROVE, REJECT).
	Approval string

	// Decision is the human decision (APPROVE, REJECT).
	Decision string

	// Prefix is the suggested or trusted prefix (ESCALATE, APPROVE).
	Prefix string

	// Error is the failure message (FAIL).
	Error string

	// ExitCode is the remote exit status (COMPLETE).
	ExitCode int

	// Duration is the execution time (COMPLETE, TIMEOUT).
	Duration time.Duration
}

// Format returns the log entry as a formatted string.
// Format: 2024-01-15T14:32:05Z SSHGATE REQUEST session="default" profile="prod" cmd="uptime"
func (e *Event) Format() string {
	var b strings.Builder

	b.WriteString(e.Timestamp.UTC().Format(time.RFC3339))
	b.WriteString(" SSHGATE ")
	b.WriteString(string(e.Type))

	writeOptionalField(&b, "session", e.Session)
	writeOptionalField(&b, "profile", e.Profile)
	writeOptionalField(&b, "cmd", e.Cmd)

	e.formatTypeSpecificFields(&b)

	return b.String()
}

// formatTypeSpecificFields appends type-specific key=value pairs to the builder.
func (e *Event) formatTypeSpecificFields(b *strings.Builder) {
	switch e.Type {
	case EventAllow:
		writeOptionalField(b, "rule", e.Rule)
	case EventDeny:
		writeOptionalField(b, "reason", e.Reason)
		writeOptionalField(b, "pattern", e.Pattern)
	case EventEscalate:
		writeOptionalField(b, "approval", e.Approval)
		writeOptionalField(b, "prefix", e.Prefix)
	case EventApprove:
		writeOptionalField(b, "approval", e.Approval)
		writeOptionalField(b, "decision", e.Decision)
		writeOptionalField(b, "prefix", e.Prefix)
	case EventReject:
		writeOptionalField(b, "approval", e.Approval)
		writeOptionalField(b, "decision", e.Decision)
		writeOptionalField(b, "reason", e.Reason)
	case EventComplete:
		b.WriteString(" exit=")
		b.WriteString(strconv.Itoa(e.ExitCode))
		b.WriteString(" duration=")
		b.WriteString(formatDuration(e.Duration))
	case EventTimeout:
		b.WriteString(" duration=")
		b.WriteString(formatDuration(e.Duration))
	case EventFail:
		writeOptionalField(b, "error", e.Error)
	}
}

// writeOptionalField appends " key=quoted_value" to the builder if value is non-empty.
func writeOptionalField(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	b.WriteString(" ")
	b.WriteString(key)
	b.WriteString("=")
	b.WriteString(quoteValue(value))
}

// quoteValue returns a quoted string value.
// Values are always quoted for consistency and to handle spaces/special chars.
func quoteValue(s string) string {
	return strconv.Quote(s)
}

// formatDuration formats a duration as a human-readable string (e.g., "2.3s", "1m30s").
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}

// OpenFile opens path for appending audit lines, creating parent
// directories as needed.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create audit log directory: %w", err)
	}
	//nolint:gosec // G304: operator-chosen audit path
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return f, nil
}

// Logger writes audit events to an io.Writer. A nil *Logger discards
// everything, so callers never need to check whether auditing is enabled.
type Logger struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewLogger creates a new audit logger that writes to the given writer.
func NewLogger(w io.Writer) *Logger {
	return &Logger{w: w, now: time.Now}
}

// Log writes an event to the audit log.
func (l *Logger) Log(e *Event) error {
	if l == nil || l.w == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if e.Timestamp.IsZero() {
		e.Timestamp = l.now()
	}
	line := e.Format() + "\n"
	_, err := l.w.Write([]byte(line))
	if err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}
	return nil
}

// LogRequest logs a REQUEST event.
func (l *Logger) LogRequest(session, profile, cmd string) error {
	return l.Log(&Event{Type: EventRequest, Session: session, Profile: profile, Cmd: cmd})
}

// LogAllow logs an ALLOW event naming the rule that matched.
func (l *Logger) LogAllow(session, profile, cmd, rule string) error {
	return l.Log(&Event{Type: EventAllow, Session: session, Profile: profile, Cmd: cmd, Rule: rule})
}

// LogDeny logs a DENY event. pattern may be empty for non-pattern rejections.
func (l *Logger) LogDeny(session, profile, cmd, reason, pattern string) error {
	return l.Log(&Event{
		Type:    EventDeny,
		Session: session,
		Profile: profile,
		Cmd:     cmd,
		Reason:  reason,
		Pattern: pattern,
	})
}

// LogEscalate logs an ESCALATE event.
func (l *Logger) LogEscalate(session, profile, cmd, approvalID, prefix string) error {
	return l.Log(&Event{
		Type:     EventEscalate,
		Session:  session,
		Profile:  profile,
		Cmd:      cmd,
		Approval: approvalID,
		Prefix:   prefix,
	})
}

// LogApprove logs an APPROVE event.
func (l *Logger) LogApprove(session, profile, cmd, approvalID, decision, prefix string) error {
	return l.Log(&Event{
		Type:     EventApprove,
		Session:  session,
		Profile:  profile,
		Cmd:      cmd,
		Approval: approvalID,
		Decision: decision,
		Prefix:   prefix,
	})
}

// LogReject logs a REJECT event for a decision that could not be applied.
func (l *Logger) LogReject(approvalID, decision, reason string) error {
	return l.Log(&Event{Type: EventReject, Approval: approvalID, Decision: decision, Reason: reason})
}

// LogComplete logs a COMPLETE event. exitCode is -1 when the host reported
// no exit status.
func (l *Logger) LogComplete(session, profile, cmd string, exitCode int, duration time.Duration) error {
	return l.Log(&Event{
		Type:     EventComplete,
		Session:  session,
		Profile:  profile,
		Cmd:      cmd,
		ExitCode: exitCode,
		Duration: duration,
	})
}

// LogTimeout logs a TIMEOUT event.
func (l *Logger) LogTimeout(session, profile, cmd string, duration time.Duration) error {
	return l.Log(&Event{Type: EventTimeout, Session: session, Profile: profile, Cmd: cmd, Duration: duration})
}

// LogFail logs a FAIL event.
func (l *Logger) LogFail(session, profile, cmd, errMsg string) error {
	return l.Log(&Event{Type: EventFail, Session: session, Profile: profile, Cmd: cmd, Error: errMsg})
}

// LogSessionClear logs a SESSION_CLEAR event.
func (l *Logger) LogSessionClear(session string) error {
	return l.Log(&Event{Type: EventSessionClear, Session: session})
}

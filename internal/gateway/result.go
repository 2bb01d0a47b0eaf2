package gateway

import (
	"encoding/json"
	"time"
)

// EscalationMessage accompanies every escalation.
const EscalationMessage = "Command not in allowlist. Ask user to approve once or allow the prefix for this session."

// ProfileInfo is the public, secret-free view of a profile.
type ProfileInfo struct {
	Description string `json:"description"`
	Host        string `json:"host"`
	Username    string `json:"username"`
}

// ExecResult is a completed remote execution.
type ExecResult struct {
	OK         bool    `json:"ok"`
	Approved   string  `json:"approved,omitempty"`
	Stdout     string  `json:"stdout"`
	Stderr     string  `json:"stderr"`
	ExitStatus *int    `json:"exit_status"` // null when the host reported none
	Signal     *string `json:"signal"`
	ElapsedMS  int64   `json:"elapsed_ms"`
}

// Escalation asks the caller to obtain a human decision.
type Escalation struct {
	OK               bool     `json:"ok"`
	ApprovalRequired bool     `json:"approval_required"`
	ApprovalID       string   `json:"approval_id"`
	Choices          []string `json:"choices"`
	SuggestedPrefix  string   `json:"suggested_prefix"`
	Message          string   `json:"message"`
}

// Failure is any error, reported as data.
type Failure struct {
	OK        bool   `json:"ok"`
	Approved  string `json:"approved,omitempty"`
	Error     string `json:"error"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

// Result is the outcome of RunCommand or ApproveAndRun. Exactly one field
// is non-nil.
type Result struct {
	Exec       *ExecResult
	Escalation *Escalation
	Failure    *Failure
}

// OK reports whether the command ran.
func (r Result) OK() bool {
	return r.Exec != nil
}

// MarshalJSON encodes whichever outcome is set.
func (r Result) MarshalJSON() ([]byte, error) {
	switch {
	case r.Exec != nil:
		return json.Marshal(r.Exec)
	case r.Escalation != nil:
		return json.Marshal(r.Escalation)
	case r.Failure != nil:
		return json.Marshal(r.Failure)
	default:
		return []byte("null"), nil
	}
}

// ClearResult acknowledges ClearSession.
type ClearResult struct {
	OK        bool   `json:"ok"`
	SessionID string `json:"session_id"`
}

// Classification is the offline verdict for a command, without session
// trust or execution.
type Classification struct {
	Command string `json:"command"`
	Verdict string `json:"verdict"` // allow, deny, or escalate
	Rule    string `json:"rule,omitempty"`
	Prefix  string `json:"suggested_prefix,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

func elapsedMS(d time.Duration) int64 {
	return d.Milliseconds()
}

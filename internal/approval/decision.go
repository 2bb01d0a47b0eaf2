package approval

import (
	"errors"
	"fmt"
)

// ErrInvalidDecision is returned for decisions other than allow_once and
// allow_prefix.
var ErrInvalidDecision = errors.New("invalid decision: use allow_once or allow_prefix")

// Decision is a human answer to an escalation.
type Decision string

const (
	// AllowOnce runs the command without trusting anything further.
	AllowOnce Decision = "allow_once"
	// AllowPrefix trusts the suggested prefix for the session, then runs.
	AllowPrefix Decision = "allow_prefix"
)

// Choices returns the decision values offered with every escalation.
func Choices() []string {
	return []string{string(AllowOnce), string(AllowPrefix)}
}

// ParseDecision validates s as a Decision.
func ParseDecision(s string) (Decision, error) {
	switch d := Decision(s); d {
	case AllowOnce, AllowPrefix:
		return d, nil
	default:
		return "", fmt.Errorf("%w (got %q)", ErrInvalidDecision, s)
	}
}

package policy

// Decision is the outcome of authorizing a normalized command.
type Decision int

const (
	// Escalate means the command needs a human decision before it runs.
	Escalate Decision = iota
	// Allow means the command may run immediately.
	Allow
)

// String returns the lowercase name of the decision.
func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Escalate:
		return "escalate"
	default:
		return "unknown"
	}
}

// Rule names reported in Result.Rule. Prefix and regex rules are suffixed
// with ":" and the matching entry.
const (
	RuleAllowAny       = "allow_any_command"
	RuleAllowedCommand = "allowed_commands"
	RuleAllowedPrefix  = "allowed_prefixes"
	RuleAllowedRegex   = "allowed_regexes"
	RuleSession        = "session"
)

// Result is the outcome of Engine.Authorize.
type Result struct {
	Decision Decision
	// Rule identifies what allowed the command. Empty on escalation.
	Rule string
	// Prefix is the suggested approvable prefix. Set only on escalation.
	Prefix string
}

// Engine combines compiled static policy with per-session trust.
type Engine struct {
	sessions *SessionAllowlist
}

// NewEngine returns an Engine consulting sessions for dynamic trust.
func NewEngine(sessions *SessionAllowlist) *Engine {
	return &Engine{sessions: sessions}
}

// Sessions returns the session store the engine consults.
func (e *Engine) Sessions() *SessionAllowlist {
	return e.sessions
}

// Authorize decides whether a normalized command may run for session.
// Static rules are evaluated first; session trust is consulted only when
// none of them match. The engine never mutates session state.
func (e *Engine) Authorize(p *Policy, session, command string) Result {
	if rule, ok := p.MatchStatic(command); ok {
		return Result{Decision: Allow, Rule: rule}
	}
	if prefix, ok := e.sessions.IsTrusted(session, command); ok {
		return Result{Decision: Allow, Rule: RuleSession + ":" + prefix}
	}
	return Result{Decision: Escalate, Prefix: p.SuggestPrefix(command)}
}

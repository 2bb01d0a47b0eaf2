// Package gateway implements the public operations of sshgate: listing
// profiles, running commands, resolving approvals, and clearing session
// trust. Every operation reports errors, and recovered panics, as a
// structured Failure rather than a Go error.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/panics"

	"github.com/xdg/sshgate/internal/approval"
	"github.com/xdg/sshgate/internal/audit"
	"github.com/xdg/sshgate/internal/clog"
	"github.com/xdg/sshgate/internal/config"
	"github.com/xdg/sshgate/internal/dispatch"
	"github.com/xdg/sshgate/internal/policy"
)

// DefaultSession is used when a request names no session.
const DefaultSession = "default"

// Verdicts reported by Classify.
const (
	VerdictAllow    = "allow"
	VerdictDeny     = "deny"
	VerdictEscalate = "escalate"
)

// errInternal is reported in place of a recovered panic.
var errInternal = errors.New("internal error")

// Gateway owns the loaded configuration, compiled policies, session trust,
// pending approvals, and dispatcher. It is safe for concurrent use.
type Gateway struct {
	cfg        *config.Loaded
	policies   map[string]*policy.Policy
	sessions   *policy.SessionAllowlist
	engine     *policy.Engine
	approvals  *approval.Store
	dispatcher *dispatch.Dispatcher
	audit      *audit.Logger
	now        func() time.Time
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithAudit sets the audit logger. Without it nothing is audited.
func WithAudit(l *audit.Logger) Option {
	return func(g *Gateway) {
		g.audit = l
	}
}

// WithApprovalStore replaces the approval store built from configuration.
func WithApprovalStore(s *approval.Store) Option {
	return func(g *Gateway) {
		g.approvals = s
	}
}

// WithClock replaces time.Now for elapsed-time reporting.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		g.now = now
	}
}

// New compiles every profile in cfg and returns a Gateway executing
// commands through transport.
func New(cfg *config.Loaded, transport dispatch.Transport, opts ...Option) (*Gateway, error) {
	policies, err := policy.CompileAll(cfg)
	if err != nil {
		return nil, fmt.Errorf("compile policies: %w", err)
	}

	sessions := policy.NewSessionAllowlist()
	g := &Gateway{
		cfg:        cfg,
		policies:   policies,
		sessions:   sessions,
		engine:     policy.NewEngine(sessions),
		dispatcher: dispatch.New(transport),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.approvals == nil {
		g.approvals = approval.NewStore(
			approval.WithTTL(cfg.ApprovalTTL()),
			approval.WithCapacity(cfg.ApprovalMaxPending()),
		)
	}
	return g, nil
}

// RunSweeper removes expired approvals every approval.sweep_interval until
// ctx is done.
func (g *Gateway) RunSweeper(ctx context.Context) error {
	ticker := time.NewTicker(g.cfg.ApprovalSweepInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			g.sweep()
		}
	}
}

func (g *Gateway) sweep() {
	removed := g.approvals.Sweep()
	sessions, prefixes := g.sessions.Size()
	clog.Debug("gateway: swept %d expired approval(s); %d pending, %d session(s) trusting %d prefix(es)",
		removed, g.approvals.Len(), sessions, prefixes)
}

// ListProfiles returns every configured profile without secrets.
func (g *Gateway) ListProfiles() map[string]ProfileInfo {
	out := make(map[string]ProfileInfo, len(g.cfg.Profiles))
	for name, p := range g.cfg.Profiles {
		out[name] = ProfileInfo{
			Description: p.Description,
			Host:        p.Host,
			Username:    p.Username,
		}
	}
	return out
}

// RunRequest is the input of RunCommand.
type RunRequest struct {
	Profile    string
	Command    string
	SessionID  string
	TimeoutSec *int
}

// RunCommand authorizes and, when allowed, executes a command. Commands no
// rule allows produce an Escalation and a pending approval.
func (g *Gateway) RunCommand(ctx context.Context, req RunRequest) Result {
	start := g.now()
	return g.guard(start, func() Result {
		session := req.SessionID
		if session == "" {
			session = DefaultSession
		}
		_ = g.audit.LogRequest(session, req.Profile, req.Command)

		profile, pol, err := g.lookup(req.Profile)
		if err != nil {
			return g.failure(start, "", err)
		}

		cmd, err := pol.Normalize(req.Command)
		if err != nil {
			g.auditDeny(session, profile.Name, req.Command, err)
			return g.failure(start, "", err)
		}

		decision := g.engine.Authorize(pol, session, cmd)
		if decision.Decision == policy.Escalate {
			return g.escalate(start, session, profile.Name, cmd, decision.Prefix)
		}

		clog.Debug("gateway: allow profile=%s rule=%s cmd=%q", profile.Name, decision.Rule, cmd)
		_ = g.audit.LogAllow(session, profile.Name, cmd, decision.Rule)
		return g.execute(ctx, start, session, profile, cmd, req.TimeoutSec, "")
	})
}

// ApproveRequest is the input of ApproveAndRun.
type ApproveRequest struct {
	ApprovalID string
	Decision   string
	TimeoutSec *int
}

// ApproveAndRun applies a human decision to a pending approval and executes
// its command. The decision is validated before the approval is consumed.
func (g *Gateway) ApproveAndRun(ctx context.Context, req ApproveRequest) Result {
	start := g.now()
	return g.guard(start, func() Result {
		decision, err := approval.ParseDecision(req.Decision)
		if err != nil {
			_ = g.audit.LogReject(req.ApprovalID, req.Decision, "invalid decision")
			return g.failure(start, "", err)
		}

		pending, err := g.approvals.Resolve(req.ApprovalID)
		if err != nil {
			reason := "unknown"
			if errors.Is(err, approval.ErrApprovalExpired) {
				reason = "expired"
			}
			_ = g.audit.LogReject(req.ApprovalID, string(decision), reason)
			return g.failure(start, "", err)
		}

		approved := string(decision)
		profile, pol, err := g.lookup(pending.Profile)
		if err != nil {
			return g.failure(start, approved, err)
		}
		cmd, err := pol.Normalize(pending.Command)
		if err != nil {
			g.auditDeny(pending.SessionID, profile.Name, pending.Command, err)
			return g.failure(start, approved, err)
		}

		if decision == approval.AllowPrefix {
			if err := g.sessions.Trust(pending.SessionID, pending.Prefix); err != nil {
				clog.Warn("gateway: approval %s has no prefix to trust, running once", pending.ID)
			}
		}
		_ = g.audit.LogApprove(pending.SessionID, profile.Name, cmd, pending.ID, approved, pending.Prefix)

		return g.execute(ctx, start, pending.SessionID, profile, cmd, req.TimeoutSec, approved)
	})
}

// ClearSession removes all trusted prefixes of a session.
func (g *Gateway) ClearSession(session string) ClearResult {
	if session == "" {
		session = DefaultSession
	}
	g.sessions.Clear(session)
	_ = g.audit.LogSessionClear(session)
	return ClearResult{OK: true, SessionID: session}
}

// Classify evaluates a command against a profile's static rules only. It
// neither consults session trust nor creates approvals.
func (g *Gateway) Classify(profileName, command string) (*Classification, error) {
	_, pol, err := g.lookup(profileName)
	if err != nil {
		return nil, err
	}

	cmd, err := pol.Normalize(command)
	if err != nil {
		return &Classification{Command: command, Verdict: VerdictDeny, Reason: err.Error()}, nil
	}
	if rule, ok := pol.MatchStatic(cmd); ok {
		return &Classification{Command: cmd, Verdict: VerdictAllow, Rule: rule}, nil
	}
	return &Classification{Command: cmd, Verdict: VerdictEscalate, Prefix: pol.SuggestPrefix(cmd)}, nil
}

func (g *Gateway) lookup(name string) (*config.Profile, *policy.Policy, error) {
	profile, err := g.cfg.Profile(name)
	if err != nil {
		return nil, nil, err
	}
	return profile, g.policies[name], nil
}

func (g *Gateway) escalate(start time.Time, session, profile, cmd, prefix string) Result {
	pending, err := g.approvals.Create(session, profile, cmd, prefix)
	if err != nil {
		return g.failure(start, "", err)
	}
	clog.Info("gateway: escalated %s profile=%s prefix=%q", pending.ID, profile, prefix)
	_ = g.audit.LogEscalate(session, profile, cmd, pending.ID, prefix)

	return Result{Escalation: &Escalation{
		OK:               false,
		ApprovalRequired: true,
		ApprovalID:       pending.ID,
		Choices:          approval.Choices(),
		SuggestedPrefix:  prefix,
		Message:          EscalationMessage,
	}}
}

func (g *Gateway) execute(ctx context.Context, start time.Time, session string, profile *config.Profile, cmd string, timeoutSec *int, approved string) Result {
	def, maxSec := g.cfg.TimeoutBounds(profile)
	res, err := g.dispatcher.Dispatch(ctx, dispatch.Request{
		Profile:        profile,
		Command:        cmd,
		Timeout:        dispatch.ResolveTimeout(timeoutSec, def, maxSec),
		MaxOutputChars: g.cfg.OutputLimit(profile),
	})
	if err != nil {
		if errors.Is(err, dispatch.ErrExecutionTimeout) {
			_ = g.audit.LogTimeout(session, profile.Name, cmd, g.now().Sub(start))
		} else {
			_ = g.audit.LogFail(session, profile.Name, cmd, err.Error())
		}
		clog.Warn("gateway: profile=%s cmd=%q: %v", profile.Name, cmd, err)
		return g.failure(start, approved, err)
	}

	var exitStatus *int
	auditExit := -1
	if !res.ExitMissing {
		exitStatus = &res.ExitStatus
		auditExit = res.ExitStatus
	}
	_ = g.audit.LogComplete(session, profile.Name, cmd, auditExit, res.Elapsed)

	var signal *string
	if res.Signal != "" {
		signal = &res.Signal
	}
	return Result{Exec: &ExecResult{
		OK:         true,
		Approved:   approved,
		Stdout:     res.Stdout,
		Stderr:     res.Stderr,
		ExitStatus: exitStatus,
		Signal:     signal,
		ElapsedMS:  elapsedMS(g.now().Sub(start)),
	}}
}

func (g *Gateway) failure(start time.Time, approved string, err error) Result {
	return Result{Failure: &Failure{
		OK:        false,
		Approved:  approved,
		Error:     err.Error(),
		ElapsedMS: elapsedMS(g.now().Sub(start)),
	}}
}

func (g *Gateway) auditDeny(session, profile, cmd string, err error) {
	var denied *policy.DeniedError
	pattern := ""
	if errors.As(err, &denied) {
		pattern = denied.Pattern
	}
	_ = g.audit.LogDeny(session, profile, cmd, err.Error(), pattern)
}

// guard runs fn, converting a panic into a Failure.
func (g *Gateway) guard(start time.Time, fn func() Result) Result {
	var res Result
	var pc panics.Catcher
	pc.Try(func() { res = fn() })
	if r := pc.Recovered(); r != nil {
		clog.Error("gateway: recovered panic: %v\n%s", r.Value, r.Stack)
		return g.failure(start, "", errInternal)
	}
	return res
}

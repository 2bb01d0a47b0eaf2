package config

import "time"

// Built-in fallbacks for settings neither the profile nor the document sets.
const (
	DefaultPort              = 22
	DefaultMaxCommandLength  = 4096
	DefaultMaxOutputChars    = 20000
	DefaultTimeoutSec        = 30
	DefaultMaxTimeoutSec     = 120
	DefaultApprovalTTL       = 5 * time.Minute
	DefaultMaxPending        = 1000
	DefaultSweepInterval     = time.Minute
	DefaultAuthType          = AuthTypeKey
	defaultSubcommandProgram = "git"
)

// Supported auth types.
const (
	AuthTypeKey      = "key"
	AuthTypePassword = "password"
)

// DefaultSubcommandPrefixPrograms returns the programs whose first non-flag
// argument is part of the approvable prefix when nothing is configured.
func DefaultSubcommandPrefixPrograms() []string {
	return []string{defaultSubcommandProgram}
}

// SSHPort returns the profile's port, or DefaultPort.
func (p *Profile) SSHPort() int {
	if p.Port == 0 {
		return DefaultPort
	}
	return p.Port
}

// CommandLengthLimit returns the maximum accepted command length in characters.
func (p *Profile) CommandLengthLimit() int {
	if p.MaxCommandLength == nil {
		return DefaultMaxCommandLength
	}
	return *p.MaxCommandLength
}

// OutputLimit returns the per-stream output cap for p: profile value, then
// the document's global value, then DefaultMaxOutputChars.
func (c *Config) OutputLimit(p *Profile) int {
	return firstInt(DefaultMaxOutputChars, p.MaxOutputChars, c.MaxOutputChars)
}

// TimeoutBounds returns the default and maximum timeouts in seconds for p.
func (c *Config) TimeoutBounds(p *Profile) (def, maxSec int) {
	def = firstInt(DefaultTimeoutSec, p.DefaultTimeoutSec, c.DefaultTimeoutSec)
	maxSec = firstInt(DefaultMaxTimeoutSec, p.MaxTimeoutSec, c.MaxTimeoutSec)
	return def, maxSec
}

// SubcommandPrograms returns the subcommand-style programs for p. A profile
// list, even an empty one, wins over the global list.
func (c *Config) SubcommandPrograms(p *Profile) []string {
	if p.SubcommandPrefixPrograms != nil {
		return p.SubcommandPrefixPrograms
	}
	if c.SubcommandPrefixPrograms != nil {
		return c.SubcommandPrefixPrograms
	}
	return DefaultSubcommandPrefixPrograms()
}

// ApprovalTTL returns how long a pending approval may be resolved.
func (c *Config) ApprovalTTL() time.Duration {
	return durationOr(c.Approval.TTL, DefaultApprovalTTL)
}

// ApprovalSweepInterval returns how often expired approvals are swept.
func (c *Config) ApprovalSweepInterval() time.Duration {
	return durationOr(c.Approval.SweepInterval, DefaultSweepInterval)
}

// ApprovalMaxPending returns the pending-approval capacity.
func (c *Config) ApprovalMaxPending() int {
	if c.Approval.MaxPending <= 0 {
		return DefaultMaxPending
	}
	return c.Approval.MaxPending
}

func firstInt(fallback int, candidates ...*int) int {
	for _, c := range candidates {
		if c != nil {
			return *c
		}
	}
	return fallback
}

// durationOr parses s, returning fallback when s is empty. Values are
// validated at load time, so a parse failure here also yields fallback.
func durationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

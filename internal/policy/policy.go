package policy

import (
	"fmt"
	"regexp"

	"github.com/xdg/sshgate/internal/config"
)

// Policy is the compiled, immutable command policy of one profile.
// Regexes are compiled once here and reused for every command.
type Policy struct {
	profile            string
	allowAny           bool
	commands           map[string]struct{}
	prefixes           []string
	allow              []*regexp.Regexp
	deny               []*regexp.Regexp
	subcommandPrograms []string
	maxCommandLength   int
}

// Compile builds the Policy for a resolved profile. cfg supplies the global
// fallbacks for settings the profile leaves unset.
func Compile(p *config.Profile, cfg *config.Config) (*Policy, error) {
	allow, err := compileAll(p.AllowedRegexes, p.Name, "allowed_regexes")
	if err != nil {
		return nil, err
	}
	deny, err := compileAll(p.DenyRegexes, p.Name, "deny_regexes")
	if err != nil {
		return nil, err
	}

	commands := make(map[string]struct{}, len(p.AllowedCommands))
	for _, c := range p.AllowedCommands {
		commands[c] = struct{}{}
	}

	return &Policy{
		profile:            p.Name,
		allowAny:           p.AllowAnyCommand,
		commands:           commands,
		prefixes:           append([]string(nil), p.AllowedPrefixes...),
		allow:              allow,
		deny:               deny,
		subcommandPrograms: append([]string(nil), cfg.SubcommandPrograms(p)...),
		maxCommandLength:   p.CommandLengthLimit(),
	}, nil
}

// CompileAll compiles every profile of a loaded configuration.
func CompileAll(l *config.Loaded) (map[string]*Policy, error) {
	out := make(map[string]*Policy, len(l.Profiles))
	for name, p := range l.Profiles {
		compiled, err := Compile(p, l.Config)
		if err != nil {
			return nil, err
		}
		out[name] = compiled
	}
	return out, nil
}

func compileAll(patterns []string, profile, field string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for i, pat := range patterns {
		rx, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("profiles.%s.%s[%d]: invalid regex %q: %w", profile, field, i, pat, err)
		}
		out = append(out, rx)
	}
	return out, nil
}

// Profile returns the name of the profile this policy was compiled from.
func (p *Policy) Profile() string {
	return p.profile
}

// SuggestPrefix returns the approvable prefix for a normalized command.
func (p *Policy) SuggestPrefix(command string) string {
	return ExtractPrefix(command, p.subcommandPrograms)
}

// MatchStatic evaluates the profile's static allow rules in order and
// returns the rule that matched. Session state is never consulted.
func (p *Policy) MatchStatic(command string) (rule string, ok bool) {
	if p.allowAny {
		return RuleAllowAny, true
	}
	if _, ok := p.commands[command]; ok {
		return RuleAllowedCommand, true
	}
	for _, prefix := range p.prefixes {
		if MatchPrefix(prefix, command) {
			return RuleAllowedPrefix + ":" + prefix, true
		}
	}
	for _, rx := range p.allow {
		if rx.MatchString(command) {
			return RuleAllowedRegex + ":" + rx.String(), true
		}
	}
	return "", false
}

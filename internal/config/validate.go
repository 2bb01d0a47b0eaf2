package config

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ErrUnsupportedAuthType is returned for auth types other than key and password.
var ErrUnsupportedAuthType = errors.New("unsupported auth type")

// validLogLevels defines the allowed log level values.
var validLogLevels = map[string]bool{
	"":      true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateConfig validates document-level settings:
//   - global timeouts and output limits are positive
//   - approval durations parse and are positive; max_pending is non-negative
//   - log.level is one of: debug, info, warn, error (if non-empty)
//
// Profiles are validated separately by ValidateProfile once resolved.
func ValidateConfig(cfg *Config) error {
	if err := validatePositive(cfg.DefaultTimeoutSec, "default_timeout_sec"); err != nil {
		return err
	}
	if err := validatePositive(cfg.MaxTimeoutSec, "max_timeout_sec"); err != nil {
		return err
	}
	if err := validatePositive(cfg.MaxOutputChars, "max_output_chars"); err != nil {
		return err
	}
	if err := validateDuration(cfg.Approval.TTL, "approval.ttl"); err != nil {
		return err
	}
	if err := validateDuration(cfg.Approval.SweepInterval, "approval.sweep_interval"); err != nil {
		return err
	}
	if cfg.Approval.MaxPending < 0 {
		return fmt.Errorf("approval.max_pending: must be non-negative, got %d", cfg.Approval.MaxPending)
	}
	if !validLogLevels[cfg.Log.Level] {
		return fmt.Errorf("log.level: invalid value %q, must be one of: debug, info, warn, error", cfg.Log.Level)
	}
	return nil
}

// ValidateProfile validates a resolved profile. Field paths in errors are
// prefixed with "profiles.<name>".
func ValidateProfile(p *Profile) error {
	field := func(f string) string { return fmt.Sprintf("profiles.%s.%s", p.Name, f) }

	if p.Port < 0 || p.Port > 65535 {
		return fmt.Errorf("%s: invalid port number %d, must be 1-65535", field("port"), p.Port)
	}
	if p.MaxCommandLength != nil && *p.MaxCommandLength < 1 {
		return fmt.Errorf("%s: must be positive, got %d", field("max_command_length"), *p.MaxCommandLength)
	}
	for _, f := range []struct {
		v    *int
		name string
	}{
		{p.MaxOutputChars, "max_output_chars"},
		{p.DefaultTimeoutSec, "default_timeout_sec"},
		{p.MaxTimeoutSec, "max_timeout_sec"},
	} {
		if err := validatePositive(f.v, field(f.name)); err != nil {
			return err
		}
	}

	for i, rx := range p.AllowedRegexes {
		if err := validateRegex(rx, fmt.Sprintf("%s[%d]", field("allowed_regexes"), i)); err != nil {
			return err
		}
	}
	for i, rx := range p.DenyRegexes {
		if err := validateRegex(rx, fmt.Sprintf("%s[%d]", field("deny_regexes"), i)); err != nil {
			return err
		}
	}

	if p.Auth != nil {
		switch p.Auth.Type {
		case "", AuthTypeKey, AuthTypePassword:
		default:
			return fmt.Errorf("%s: %w: %q", field("auth.type"), ErrUnsupportedAuthType, p.Auth.Type)
		}
	}
	return nil
}

func validatePositive(v *int, field string) error {
	if v != nil && *v < 1 {
		return fmt.Errorf("%s: must be positive, got %d", field, *v)
	}
	return nil
}

// validateDuration validates that a non-empty duration string parses and is positive.
func validateDuration(d, field string) error {
	if d == "" {
		return nil
	}
	parsed, err := time.ParseDuration(d)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q", field, d)
	}
	if parsed <= 0 {
		return fmt.Errorf("%s: must be positive, got %q", field, d)
	}
	return nil
}

// validateRegex validates that a pattern compiles as a regular expression.
func validateRegex(pattern, field string) error {
	if _, err := regexp.Compile(pattern); err != nil {
		return fmt.Errorf("%s: invalid regex %q: %v", field, pattern, err)
	}
	return nil
}

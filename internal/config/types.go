// Package config provides configuration types for sshgate. A single JSON or
// YAML document describes connection profiles and the command policy applied
// to each of them.
package config

// Config represents the top-level sshgate configuration document.
//
// Profile bodies are kept as raw mappings until resolution so that the
// defaults mapping can be deep-merged underneath them before decoding.
type Config struct {
	Defaults map[string]any            `yaml:"defaults,omitempty" json:"defaults,omitempty"`
	Hosts    map[string]map[string]any `yaml:"hosts,omitempty" json:"hosts,omitempty"`
	Profiles map[string]map[string]any `yaml:"profiles,omitempty" json:"profiles,omitempty"`

	// Global fallbacks, consulted when a resolved profile leaves them unset.
	SubcommandPrefixPrograms []string `yaml:"subcommand_prefix_programs,omitempty" json:"subcommand_prefix_programs,omitempty"`
	DefaultTimeoutSec        *int     `yaml:"default_timeout_sec,omitempty" json:"default_timeout_sec,omitempty"`
	MaxTimeoutSec            *int     `yaml:"max_timeout_sec,omitempty" json:"max_timeout_sec,omitempty"`
	MaxOutputChars           *int     `yaml:"max_output_chars,omitempty" json:"max_output_chars,omitempty"`

	Approval ApprovalConfig `yaml:"approval,omitempty" json:"approval,omitempty"`
	Log      LogConfig      `yaml:"log,omitempty" json:"log,omitempty"`
}

// Profile is a resolved connection target plus the command policy that
// applies to it. Pointer fields distinguish "unset" from zero so that the
// global fallbacks in Config can apply.
type Profile struct {
	Name string `yaml:"-"`

	Description          string      `yaml:"description,omitempty"`
	Host                 string      `yaml:"host,omitempty"`
	Username             string      `yaml:"username,omitempty"`
	Port                 int         `yaml:"port,omitempty"`
	Auth                 *AuthConfig `yaml:"auth,omitempty"`
	KnownHosts           string      `yaml:"known_hosts,omitempty"`
	AllowUnknownHostKeys bool        `yaml:"allow_unknown_host_keys,omitempty"`

	AllowAnyCommand          bool     `yaml:"allow_any_command,omitempty"`
	AllowedCommands          []string `yaml:"allowed_commands,omitempty"`
	AllowedPrefixes          []string `yaml:"allowed_prefixes,omitempty"`
	AllowedRegexes           []string `yaml:"allowed_regexes,omitempty"`
	DenyRegexes              []string `yaml:"deny_regexes,omitempty"`
	SubcommandPrefixPrograms []string `yaml:"subcommand_prefix_programs,omitempty"`

	MaxCommandLength  *int   `yaml:"max_command_length,omitempty"`
	MaxOutputChars    *int   `yaml:"max_output_chars,omitempty"`
	DefaultTimeoutSec *int   `yaml:"default_timeout_sec,omitempty"`
	MaxTimeoutSec     *int   `yaml:"max_timeout_sec,omitempty"`
	WorkingDir        string `yaml:"working_dir,omitempty"`
}

// AuthConfig describes how to authenticate to a profile's host.
// Each *_env field names an environment variable that, when set and
// non-empty, takes precedence over the corresponding inline value.
type AuthConfig struct {
	Type              string `yaml:"type,omitempty"` // "key" (default) or "password"
	PrivateKeyPath    string `yaml:"private_key_path,omitempty"`
	PrivateKeyPathEnv string `yaml:"private_key_path_env,omitempty"`
	Passphrase        string `yaml:"passphrase,omitempty"`
	PassphraseEnv     string `yaml:"passphrase_env,omitempty"`
	Password          string `yaml:"password,omitempty"`
	PasswordEnv       string `yaml:"password_env,omitempty"`
}

// ApprovalConfig tunes the pending-approval store.
type ApprovalConfig struct {
	TTL           string `yaml:"ttl,omitempty" json:"ttl,omitempty"`                       // Go duration, default 5m
	MaxPending    int    `yaml:"max_pending,omitempty" json:"max_pending,omitempty"`       // default 1000
	SweepInterval string `yaml:"sweep_interval,omitempty" json:"sweep_interval,omitempty"` // Go duration, default 1m
}

// LogConfig contains logging settings.
type LogConfig struct {
	File      string `yaml:"file,omitempty" json:"file,omitempty"`
	Level     string `yaml:"level,omitempty" json:"level,omitempty"`
	AuditFile string `yaml:"audit_file,omitempty" json:"audit_file,omitempty"`
}

package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/xdg/sshgate/internal/clog"
)

// ErrConfigNotFound is returned when the configuration file does not exist.
// It is fatal: sshgate never runs with an implicit policy.
var ErrConfigNotFound = errors.New("config file not found")

// Loaded is a parsed and validated configuration together with its resolved
// profiles. It is built once at startup and is read-only afterwards.
type Loaded struct {
	*Config
	Path     string
	Profiles map[string]*Profile
}

// Profile returns the resolved profile with the given name.
func (l *Loaded) Profile(name string) (*Profile, error) {
	p, ok := l.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
	}
	return p, nil
}

// Load reads, parses, and validates the configuration at path, and resolves
// every profile.
func Load(path string) (*Loaded, error) {
	path = ExpandHome(path)
	clog.Debug("config: loading %s", path)

	data, err := os.ReadFile(path) //nolint:gosec // G304: operator-chosen config path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (set %s or create %s)", ErrConfigNotFound, path, EnvConfigPathVar, DefaultConfigPath)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	profiles, err := cfg.ResolveProfiles()
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	for _, p := range profiles {
		expandProfilePaths(p)
	}

	clog.Info("config: loaded %d profile(s) from %s", len(profiles), path)
	return &Loaded{Config: cfg, Path: path, Profiles: profiles}, nil
}

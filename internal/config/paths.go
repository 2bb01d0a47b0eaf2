package config

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultConfigPath is used when MCP_SSH_CONFIG is unset. It is resolved
// relative to the working directory.
const DefaultConfigPath = "ssh_profiles.json"

// ExpandHome replaces a leading ~ in path with the user's home directory.
// If the home directory cannot be determined, the path is returned unchanged.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// expandProfilePaths expands ~ in every path-valued profile field.
func expandProfilePaths(p *Profile) {
	p.KnownHosts = ExpandHome(p.KnownHosts)
	if p.Auth != nil {
		p.Auth.PrivateKeyPath = ExpandHome(p.Auth.PrivateKeyPath)
	}
}

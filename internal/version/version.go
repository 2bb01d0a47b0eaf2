// Package version provides version information for sshgate.
package version

// Version is the current version of sshgate.
// Set at build time via: -ldflags "-X github.com/xdg/sshgate/internal/version.Version=v1.0.0"
// Defaults to "dev" for development builds.
var Version = "dev"

// IsRelease reports whether Version names a tagged release build.
func IsRelease() bool {
	return Version != "" && Version != "dev"
}

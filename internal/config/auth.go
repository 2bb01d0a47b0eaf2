package config

import (
	"errors"
	"fmt"
	"os"
)

// ErrMissingAuthMaterial is returned when the configured auth type has no
// usable secret after environment indirection.
var ErrMissingAuthMaterial = errors.New("missing auth material")

// Credentials is the resolved secret material for one connection attempt.
// A zero Credentials means "use the SSH agent / default identities".
type Credentials struct {
	PrivateKeyPath string
	Passphrase     string
	Password       string
}

// LookupFunc reads an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// ResolveAuth resolves auth material for a profile, applying environment
// indirection. It is called per connection so rotated secrets are picked up
// without a restart.
func ResolveAuth(a *AuthConfig, lookup LookupFunc) (*Credentials, error) {
	if a == nil {
		return &Credentials{}, nil
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}

	switch a.Type {
	case "", AuthTypeKey:
		path := fromEnv(lookup, a.PrivateKeyPathEnv, a.PrivateKeyPath)
		if path == "" {
			return nil, fmt.Errorf("%w: SSH key path not configured", ErrMissingAuthMaterial)
		}
		return &Credentials{
			PrivateKeyPath: ExpandHome(path),
			Passphrase:     fromEnv(lookup, a.PassphraseEnv, a.Passphrase),
		}, nil

	case AuthTypePassword:
		pw := fromEnv(lookup, a.PasswordEnv, a.Password)
		if pw == "" {
			return nil, fmt.Errorf("%w: SSH password not configured", ErrMissingAuthMaterial)
		}
		return &Credentials{Password: pw}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAuthType, a.Type)
	}
}

// fromEnv returns the value of the named variable when it is set and
// non-empty, otherwise inline.
func fromEnv(lookup LookupFunc, name, inline string) string {
	if name == "" {
		return inline
	}
	if v, ok := lookup(name); ok && v != "" {
		return v
	}
	return inline
}

package sshexec

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/xdg/sshgate/internal/clog"
	"github.com/xdg/sshgate/internal/config"
)

// defaultIdentities are tried, in order, when a profile configures no auth.
var defaultIdentities = []string{"id_ed25519", "id_ecdsa", "id_rsa"}

// authSet holds auth methods plus any agent connection they depend on.
type authSet struct {
	methods []ssh.AuthMethod
	agent   net.Conn
}

func (a *authSet) Close() {
	if a.agent != nil {
		_ = a.agent.Close()
	}
}

// authMethods converts resolved credentials into SSH auth methods. Zero
// credentials fall back to the SSH agent and unencrypted default identities.
func authMethods(creds *config.Credentials) (*authSet, error) {
	switch {
	case creds.Password != "":
		pw := creds.Password
		return &authSet{methods: []ssh.AuthMethod{
			ssh.Password(pw),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = pw
				}
				return answers, nil
			}),
		}}, nil

	case creds.PrivateKeyPath != "":
		signer, err := loadSigner(creds.PrivateKeyPath, creds.Passphrase)
		if err != nil {
			return nil, err
		}
		return &authSet{methods: []ssh.AuthMethod{ssh.PublicKeys(signer)}}, nil

	default:
		return defaultAuth(), nil
	}
}

// loadSigner reads a private key, decrypting it with passphrase when the
// key is encrypted.
func loadSigner(path, passphrase string) (ssh.Signer, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: operator-configured key path
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(data)
	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) {
		if passphrase == "" {
			return nil, fmt.Errorf("%w: private key %s is encrypted and no passphrase is configured", config.ErrMissingAuthMaterial, path)
		}
		signer, err = ssh.ParsePrivateKeyWithPassphrase(data, []byte(passphrase))
	}
	if err != nil {
		return nil, fmt.Errorf("parse private key %s: %w", path, err)
	}
	return signer, nil
}

func defaultAuth() *authSet {
	set := &authSet{}

	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		conn, err := net.Dial("unix", sock)
		if err != nil {
			clog.Debug("sshexec: ssh agent unavailable: %v", err)
		} else {
			set.agent = conn
			set.methods = append(set.methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return set
	}
	var signers []ssh.Signer
	for _, name := range defaultIdentities {
		data, err := os.ReadFile(filepath.Join(home, ".ssh", name)) //nolint:gosec // G304: well-known identity path
		if err != nil {
			continue
		}
		signer, err := ssh.ParsePrivateKey(data)
		if err != nil {
			continue
		}
		signers = append(signers, signer)
	}
	if len(signers) > 0 {
		set.methods = append(set.methods, ssh.PublicKeys(signers...))
	}
	return set
}

// hostKeyCallback verifies server keys against the profile's known_hosts
// file, or ~/.ssh/known_hosts. allow_unknown_host_keys disables checking.
func hostKeyCallback(profile *config.Profile) (ssh.HostKeyCallback, error) {
	if profile.AllowUnknownHostKeys {
		clog.Warn("sshexec: host key checking disabled for profile %s", profile.Name)
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // G106: explicit per-profile opt-out
	}

	path := profile.KnownHosts
	if path == "" {
		path = config.ExpandHome("~/.ssh/known_hosts")
	}
	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("load known_hosts %s: %w", path, err)
	}
	return cb, nil
}

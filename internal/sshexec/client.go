// Package sshexec runs commands on remote hosts with golang.org/x/crypto/ssh.
// It implements dispatch.Transport.
package sshexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/xdg/sshgate/internal/clog"
	"github.com/xdg/sshgate/internal/config"
	"github.com/xdg/sshgate/internal/dispatch"
)

// ErrIncompleteProfile is returned when a profile lacks a host or username.
var ErrIncompleteProfile = errors.New("profile must define host and username")

// Client is a dispatch.Transport that opens one SSH connection per command.
type Client struct {
	lookup config.LookupFunc
	dialer net.Dialer
}

// Option configures a Client.
type Option func(*Client)

// WithLookupEnv replaces os.LookupEnv for auth indirection, for tests.
func WithLookupEnv(lookup config.LookupFunc) Option {
	return func(c *Client) {
		c.lookup = lookup
	}
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ dispatch.Transport = (*Client)(nil)

// Run connects to the profile's host, runs command in a new session, and
// returns its output. Auth material is resolved on every call. Cancelling
// ctx closes the connection; the remote process is not guaranteed to stop.
func (c *Client) Run(ctx context.Context, profile *config.Profile, command string) (*dispatch.Output, error) {
	if profile.Host == "" || profile.Username == "" {
		return nil, ErrIncompleteProfile
	}

	creds, err := config.ResolveAuth(profile.Auth, c.lookup)
	if err != nil {
		return nil, err
	}
	auth, err := authMethods(creds)
	if err != nil {
		return nil, err
	}
	defer auth.Close()

	hostKeys, err := hostKeyCallback(profile)
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(profile.Host, strconv.Itoa(profile.SSHPort()))
	clog.Debug("sshexec: connecting to %s@%s (profile=%s)", profile.Username, addr, profile.Name)

	client, err := c.connect(ctx, addr, &ssh.ClientConfig{
		User:            profile.Username,
		Auth:            auth.methods,
		HostKeyCallback: hostKeys,
	})
	if err != nil {
		return nil, err
	}
	defer client.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = client.Close()
		case <-stop:
		}
	}()

	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	out := &dispatch.Output{}
	runErr := session.Run(command)
	out.Stdout = stdout.String()
	out.Stderr = stderr.String()

	if runErr != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var exitErr *ssh.ExitError
	var missingErr *ssh.ExitMissingError
	switch {
	case runErr == nil:
	case errors.As(runErr, &exitErr):
		out.ExitStatus = exitErr.ExitStatus()
		out.Signal = exitErr.Signal()
	case errors.As(runErr, &missingErr):
		out.ExitMissing = true
	default:
		return nil, fmt.Errorf("run command: %w", runErr)
	}
	return out, nil
}

// connect dials addr and performs the SSH handshake, bounded by ctx.
func (c *Client) connect(ctx context.Context, addr string, cfg *ssh.ClientConfig) (*ssh.Client, error) {
	conn, err := c.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	_ = conn.SetDeadline(time.Time{})
	return ssh.NewClient(sshConn, chans, reqs), nil
}

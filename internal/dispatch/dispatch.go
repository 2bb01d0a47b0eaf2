// Package dispatch hands authorized commands to a remote transport with a
// bounded wait and bounded output.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/panics"

	"github.com/xdg/sshgate/internal/config"
)

var (
	// ErrExecutionTimeout is returned when the local wait exceeds the
	// resolved timeout. The remote process may still be running.
	ErrExecutionTimeout = errors.New("command timed out")
	// ErrExecutionFailure wraps any transport-level fault.
	ErrExecutionFailure = errors.New("execution failed")
)

// Output is what a transport returns for a finished remote command.
type Output struct {
	Stdout     string
	Stderr     string
	ExitStatus int
	// Signal names the signal that terminated the command, if any.
	Signal string
	// ExitMissing is set when the session closed without reporting an exit
	// status; ExitStatus is then meaningless.
	ExitMissing bool
}

// Transport runs a command on a profile's host. Implementations must honor
// ctx cancellation for connection setup; the dispatcher stops waiting at the
// deadline regardless.
type Transport interface {
	Run(ctx context.Context, profile *config.Profile, command string) (*Output, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, profile *config.Profile, command string) (*Output, error)

// Run calls f.
func (f TransportFunc) Run(ctx context.Context, profile *config.Profile, command string) (*Output, error) {
	return f(ctx, profile, command)
}

// Request is an authorized command ready to dispatch.
type Request struct {
	Profile        *config.Profile
	Command        string
	Timeout        time.Duration
	MaxOutputChars int
}

// Result is a completed execution with truncated output.
type Result struct {
	Stdout      string
	Stderr      string
	ExitStatus  int
	ExitMissing bool
	Signal      string
	Elapsed     time.Duration
}

// Dispatcher runs requests through a Transport.
type Dispatcher struct {
	transport Transport
	now       func() time.Time
}

// New creates a Dispatcher using t.
func New(t Transport) *Dispatcher {
	return &Dispatcher{transport: t, now: time.Now}
}

type outcome struct {
	out *Output
	err error
}

// Dispatch composes the final command, runs it, and truncates its output.
// On timeout it returns ErrExecutionTimeout without waiting for the
// transport to finish.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Result, error) {
	start := d.now()

	command, err := ComposeCommand(req.Profile.WorkingDir, req.Command)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		var o outcome
		var pc panics.Catcher
		pc.Try(func() {
			o.out, o.err = d.transport.Run(ctx, req.Profile, command)
		})
		if r := pc.Recovered(); r != nil {
			o.err = r.AsError()
		}
		done <- o
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %d seconds", ErrExecutionTimeout, int(req.Timeout/time.Second))
		}
		return nil, fmt.Errorf("%w: %w", ErrExecutionFailure, ctx.Err())
	case o := <-done:
		if o.err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExecutionFailure, o.err)
		}
		if o.out == nil {
			o.out = &Output{}
		}
		return &Result{
			Stdout:      Truncate(o.out.Stdout, req.MaxOutputChars),
			Stderr:      Truncate(o.out.Stderr, req.MaxOutputChars),
			ExitStatus:  o.out.ExitStatus,
			ExitMissing: o.out.ExitMissing,
			Signal:      o.out.Signal,
			Elapsed:     d.now().Sub(start),
		}, nil
	}
}

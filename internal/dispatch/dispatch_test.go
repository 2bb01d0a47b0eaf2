package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xdg/sshgate/internal/config"
)

// fakeTransport records the last command and returns a canned result.
type fakeTransport struct {
	out     *Output
	err     error
	block   chan struct{}
	panicV  any
	gotCmd  string
	gotProf *config.Profile
}

func (f *fakeTransport) Run(ctx context.Context, profile *config.Profile, command string) (*Output, error) {
	f.gotCmd = command
	f.gotProf = profile
	if f.panicV != nil {
		panic(f.panicV)
	}
	if f.block != nil {
		<-f.block
	}
	return f.out, f.err
}

func TestDispatch_Success(t *testing.T) {
	ft := &fakeTransport{out: &Output{Stdout: "hello\n", Stderr: "", ExitStatus: 3, Signal: ""}}
	d := New(ft)
	profile := &config.Profile{Name: "prod", WorkingDir: "/srv/app"}

	res, err := d.Dispatch(context.Background(), Request{
		Profile:        profile,
		Command:        "ls -la",
		Timeout:        time.Second,
		MaxOutputChars: 100,
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if ft.gotCmd != "cd /srv/app && ls -la" {
		t.Errorf("transport command = %q", ft.gotCmd)
	}
	if ft.gotProf != profile {
		t.Error("transport did not receive the profile")
	}
	if res.Stdout != "hello\n" || res.ExitStatus != 3 {
		t.Errorf("Result = %+v", res)
	}
	if res.Elapsed < 0 {
		t.Errorf("Elapsed = %v", res.Elapsed)
	}
}

func TestDispatch_TruncatesStreamsIndependently(t *testing.T) {
	ft := &fakeTransport{out: &Output{Stdout: strings.Repeat("o", 12), Stderr: "err"}}
	d := New(ft)

	res, err := d.Dispatch(context.Background(), Request{
		Profile:        &config.Profile{},
		Command:        "cat big",
		Timeout:        time.Second,
		MaxOutputChars: 5,
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if res.Stdout != "ooooo\n...[truncated 7 chars]" {
		t.Errorf("Stdout = %q", res.Stdout)
	}
	if res.Stderr != "err" {
		t.Errorf("Stderr = %q", res.Stderr)
	}
}

func TestDispatch_Timeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	d := New(&fakeTransport{block: block})

	start := time.Now()
	_, err := d.Dispatch(context.Background(), Request{
		Profile: &config.Profile{},
		Command: "sleep 100",
		Timeout: 20 * time.Millisecond,
	})
	if !errors.Is(err, ErrExecutionTimeout) {
		t.Fatalf("Dispatch() error = %v, want ErrExecutionTimeout", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("Dispatch() waited for the transport after the deadline")
	}
}

func TestDispatch_TimeoutMessage(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	d := New(&fakeTransport{block: block})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := d.Dispatch(ctx, Request{Profile: &config.Profile{}, Command: "x", Timeout: 30 * time.Second})
	if err == nil || err.Error() != "command timed out after 30 seconds" {
		t.Errorf("error = %v, want %q", err, "command timed out after 30 seconds")
	}
}

func TestDispatch_TransportError(t *testing.T) {
	cause := errors.New("connection refused")
	d := New(&fakeTransport{err: cause})

	_, err := d.Dispatch(context.Background(), Request{Profile: &config.Profile{}, Command: "ls", Timeout: time.Second})
	if !errors.Is(err, ErrExecutionFailure) {
		t.Errorf("error = %v, want ErrExecutionFailure", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("error = %v, want wrapped cause", err)
	}
}

func TestDispatch_TransportPanic(t *testing.T) {
	d := New(&fakeTransport{panicV: "boom"})

	_, err := d.Dispatch(context.Background(), Request{Profile: &config.Profile{}, Command: "ls", Timeout: time.Second})
	if !errors.Is(err, ErrExecutionFailure) {
		t.Fatalf("error = %v, want ErrExecutionFailure", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error = %v, want panic value", err)
	}
}

func TestDispatch_ParentCanceled(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	d := New(&fakeTransport{block: block})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.Dispatch(ctx, Request{Profile: &config.Profile{}, Command: "ls", Timeout: time.Minute})
	if !errors.Is(err, context.Canceled) || !errors.Is(err, ErrExecutionFailure) {
		t.Errorf("error = %v, want canceled execution failure", err)
	}
}

func TestTransportFunc(t *testing.T) {
	var called bool
	tf := TransportFunc(func(ctx context.Context, p *config.Profile, cmd string) (*Output, error) {
		called = true
		return &Output{}, nil
	})
	res, err := New(tf).Dispatch(context.Background(), Request{Profile: &config.Profile{}, Command: "ls", Timeout: time.Second})
	if err != nil || !called || res == nil {
		t.Errorf("Dispatch() = %v, %v (called=%v)", res, err, called)
	}
}

package dispatch

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/xdg/sshgate/internal/policy"
)

func TestComposeCommand(t *testing.T) {
	tests := []struct {
		name    string
		dir     string
		command string
		want    string
	}{
		{name: "no dir", dir: "", command: "ls", want: "ls"},
		{name: "plain dir", dir: "/srv/app", command: "ls", want: "cd /srv/app && ls"},
		{name: "dir with space", dir: "/srv/my app", command: "ls", want: "cd '/srv/my app' && ls"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComposeCommand(tc.dir, tc.command)
			if err != nil {
				t.Fatalf("ComposeCommand() error = %v", err)
			}
			if got != tc.want {
				t.Errorf("ComposeCommand() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestComposeCommand_DirIsSingleWord(t *testing.T) {
	for _, dir := range []string{
		"/tmp/$(reboot)",
		"/tmp/x; rm -rf /",
		"/tmp/it's",
		"/tmp/`id`",
		"/tmp/a && b",
	} {
		got, err := ComposeCommand(dir, "ls")
		if err != nil {
			t.Fatalf("ComposeCommand(%q) error = %v", dir, err)
		}
		want := []string{"cd", dir}
		if tokens := policy.Tokenize(got); !reflect.DeepEqual(tokens, want) {
			t.Errorf("ComposeCommand(%q) = %q tokenizes to %q, want %q", dir, got, tokens, want)
		}
		if !strings.HasSuffix(got, " && ls") {
			t.Errorf("ComposeCommand(%q) = %q, want command suffix", dir, got)
		}
	}
}

func TestResolveTimeout(t *testing.T) {
	intPtr := func(v int) *int { return &v }
	tests := []struct {
		name      string
		requested *int
		def, max  int
		want      time.Duration
	}{
		{name: "default", requested: nil, def: 30, max: 120, want: 30 * time.Second},
		{name: "default clamped to max", requested: nil, def: 300, max: 120, want: 120 * time.Second},
		{name: "requested", requested: intPtr(60), def: 30, max: 120, want: 60 * time.Second},
		{name: "requested clamped", requested: intPtr(600), def: 30, max: 120, want: 120 * time.Second},
		{name: "zero floors to one", requested: intPtr(0), def: 30, max: 120, want: time.Second},
		{name: "negative floors to one", requested: intPtr(-5), def: 30, max: 120, want: time.Second},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveTimeout(tc.requested, tc.def, tc.max); got != tc.want {
				t.Errorf("ResolveTimeout() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		s     string
		limit int
		want  string
	}{
		{name: "short", s: "abc", limit: 5, want: "abc"},
		{name: "exact", s: "abcde", limit: 5, want: "abcde"},
		{name: "long", s: "abcdefgh", limit: 5, want: "abcde\n...[truncated 3 chars]"},
		{name: "multibyte counts characters", s: "äöüßé", limit: 2, want: "äö\n...[truncated 3 chars]"},
		{name: "zero limit", s: "abc", limit: 0, want: "\n...[truncated 3 chars]"},
		{name: "disabled", s: "abc", limit: -1, want: "abc"},
		{name: "empty", s: "", limit: 0, want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Truncate(tc.s, tc.limit); got != tc.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tc.s, tc.limit, got, tc.want)
			}
		})
	}
}

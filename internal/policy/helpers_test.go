package policy

import (
	"testing"

	"github.com/xdg/sshgate/internal/config"
)

func intPtr(v int) *int { return &v }

// mustCompile compiles a profile against an empty global config.
func mustCompile(t *testing.T, p config.Profile) *Policy {
	t.Helper()
	if p.Name == "" {
		p.Name = "test"
	}
	compiled, err := Compile(&p, &config.Config{})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return compiled
}

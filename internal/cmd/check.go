package cmd

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xdg/sshgate/internal/gateway"
	"github.com/xdg/sshgate/internal/sshexec"
	"github.com/xdg/sshgate/internal/term"
)

// Exit codes for "sshgate check".
const (
	exitDenied    = 2
	exitEscalated = 3
)

var checkJSON bool

var checkCmd = &cobra.Command{
	Use:   "check <profile> <command...>",
	Short: "Show how a profile's policy classifies a command",
	Long: `Classify a command against a profile's static policy without running it.

The verdict is one of:
  allow     a configured rule allows it (exit 0)
  deny      it is invalid or matches a deny regex (exit 2)
  escalate  it would need approval; the suggested prefix is shown (exit 3)

Session trust granted through approvals is not consulted.`,
	Example: `  sshgate check prod git status
  sshgate check prod -- ls -la /var/log`,
	Args: cobra.MinimumNArgs(2),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "print the classification as JSON")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig("")
	if err != nil {
		return err
	}

	gw, err := gateway.New(cfg, sshexec.New())
	if err != nil {
		return err
	}

	c, err := gw.Classify(args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}

	if checkJSON {
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return err
		}
		term.Println(string(data))
	} else {
		printClassification(c)
	}

	switch c.Verdict {
	case gateway.VerdictDeny:
		return NewExitCodeError(exitDenied)
	case gateway.VerdictEscalate:
		return NewExitCodeError(exitEscalated)
	}
	return nil
}

func printClassification(c *gateway.Classification) {
	switch c.Verdict {
	case gateway.VerdictAllow:
		term.Printf("%s  %s\n", term.Allow("ALLOW"), c.Command)
		term.Printf("  rule: %s\n", c.Rule)
	case gateway.VerdictDeny:
		term.Printf("%s  %s\n", term.Deny("DENY"), c.Command)
		term.Printf("  reason: %s\n", c.Reason)
	default:
		term.Printf("%s  %s\n", term.Escalate("ESCALATE"), c.Command)
		term.Printf("  suggested prefix: %s\n", c.Prefix)
	}
}

// Package cmd implements the CLI commands for sshgate.
package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/xdg/sshgate/internal/clog"
	"github.com/xdg/sshgate/internal/term"
	"github.com/xdg/sshgate/internal/version"
)

var (
	configPath string
	debug      bool
	silent     bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "sshgate",
	Short: "Policy-gated SSH command runner for AI agents",
	Long: `sshgate lets an automated agent run shell commands on remote hosts over SSH
while a per-profile policy decides which commands run immediately, which are
blocked, and which need a human's approval first.

Profiles, credentials, and policy come from a JSON or YAML config file named by
--config, $MCP_SSH_CONFIG, or ./ssh_profiles.json.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		term.SetSilent(silent)
		if debug {
			clog.SetLevel(clog.LevelDebug)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $MCP_SSH_CONFIG or ssh_profiles.json)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&silent, "silent", "s", false, "suppress normal output")
}

// Execute runs the root command and returns any error. Errors other than
// *ExitCodeError are reported on stderr.
func Execute() error {
	err := rootCmd.Execute()
	var exitErr *ExitCodeError
	if err != nil && !errors.As(err, &exitErr) {
		term.Error("%v", err)
	}
	return err
}

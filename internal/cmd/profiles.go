package cmd

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xdg/sshgate/internal/term"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List configured SSH profiles",
	Long: `List every profile in the config file with its host, user, and description.

Credentials are never shown.`,
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE:    runProfiles,
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}

func runProfiles(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig("")
	if err != nil {
		return err
	}

	if len(cfg.Profiles) == 0 {
		term.Println("No profiles configured.")
		return nil
	}

	names := make([]string, 0, len(cfg.Profiles))
	for name := range cfg.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(term.Stdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tHOST\tUSER\tDESCRIPTION")
	for _, name := range names {
		p := cfg.Profiles[name]
		host := p.Host
		if p.SSHPort() != 22 {
			host = fmt.Sprintf("%s:%d", p.Host, p.SSHPort())
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, host, p.Username, p.Description)
	}
	return w.Flush()
}

package cmd

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/xdg/sshgate/internal/config"
	"github.com/xdg/sshgate/internal/policy"
	"github.com/xdg/sshgate/internal/term"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration file",
	Long: `Inspect sshgate's configuration file.

The file is chosen by --config, then $MCP_SSH_CONFIG, then ./ssh_profiles.json.`,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the config file",
	Long: `Parse the config file, resolve every profile, and compile every policy.

Reports the first problem found, naming the offending field. Profiles whose
credentials cannot be resolved from the current environment are reported as
warnings.`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print config file path",
	Long:  `Print the path of the config file sshgate would load.`,
	Args:  cobra.NoArgs,
	Run:   runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig("")
	if err != nil {
		return err
	}
	if _, err := policy.CompileAll(cfg); err != nil {
		return err
	}

	names := make([]string, 0, len(cfg.Profiles))
	for name := range cfg.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := config.ResolveAuth(cfg.Profiles[name].Auth, os.LookupEnv); err != nil {
			term.Warn("profile %s: %v", name, err)
		}
	}
	term.Printf("%s: ok (%d profile(s))\n", cfg.Path, len(cfg.Profiles))
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) {
	term.Println(resolveConfigPath(""))
}

// resolveConfigPath picks the config file: --config, then $MCP_SSH_CONFIG,
// then the default.
func resolveConfigPath(envPath string) string {
	if configPath != "" {
		return configPath
	}
	if envPath != "" {
		return envPath
	}
	if p := os.Getenv(config.EnvConfigPathVar); p != "" {
		return p
	}
	return config.DefaultConfigPath
}

// loadConfig loads the config chosen by resolveConfigPath.
func loadConfig(envPath string) (*config.Loaded, error) {
	cfg, err := config.Load(resolveConfigPath(envPath))
	if err != nil {
		return nil, configError(err)
	}
	return cfg, nil
}

// configError turns config load failures into user-facing errors.
func configError(err error) error {
	if errors.Is(err, config.ErrConfigNotFound) {
		return fmt.Errorf("%w; pass --config to choose another file", err)
	}
	return err
}

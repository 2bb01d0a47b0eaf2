package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"

	"github.com/xdg/sshgate/internal/audit"
	"github.com/xdg/sshgate/internal/clog"
	"github.com/xdg/sshgate/internal/config"
	"github.com/xdg/sshgate/internal/gateway"
	"github.com/xdg/sshgate/internal/mcpserver"
	"github.com/xdg/sshgate/internal/sshexec"
	"github.com/xdg/sshgate/internal/term"
	"github.com/xdg/sshgate/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the SSH tools over MCP",
	Long: `Serve ssh_list_profiles, ssh_run_command, ssh_approve_and_run, and
ssh_clear_session_allowlist as MCP tools.

The transport is chosen by $MCP_TRANSPORT: "stdio" (default) speaks MCP on
stdin/stdout; "http" serves streamable HTTP on $MCP_HTTP_ADDR at /mcp, with
CORS origins from $MCP_ALLOWED_ORIGINS.

Logs go to log.file from the config, or to $XDG_STATE_HOME/sshgate/sshgate.log.
Warnings and errors are mirrored to stderr unless --daemon is set.

Pending approvals and session trust live in memory and are lost on exit.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveDaemon bool

func init() {
	serveCmd.Flags().BoolVar(&serveDaemon, "daemon", false, "log to the log file only, without stderr mirroring")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}

	cfg, err := loadConfig(env.ConfigPath)
	if err != nil {
		return err
	}

	closer, err := clog.Configure(clog.Options{
		File:   serveLogFile(cfg),
		Level:  serveLogLevel(env, cfg),
		Daemon: serveDaemon,
	})
	if err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	defer func() { _ = closer.Close() }()

	var opts []gateway.Option
	if cfg.Log.AuditFile != "" {
		f, err := audit.OpenFile(config.ExpandHome(cfg.Log.AuditFile))
		if err != nil {
			return fmt.Errorf("failed to open audit log: %w", err)
		}
		defer func() { _ = f.Close() }()
		opts = append(opts, gateway.WithAudit(audit.NewLogger(f)))
	}

	gw, err := gateway.New(cfg, sshexec.New(), opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := mcpserver.New(gw, version.Version)
	clog.Info("serve: sshgate %s, transport=%s, %d profile(s)", version.Version, env.Transport, len(cfg.Profiles))

	sweepCtx, cancelSweep := context.WithCancel(ctx)
	var wg conc.WaitGroup
	wg.Go(func() {
		_ = gw.RunSweeper(sweepCtx)
	})

	var serveErr error
	switch env.Transport {
	case config.TransportHTTP:
		serveErr = srv.ListenAndServe(ctx, env.HTTPAddr, env.AllowedOrigins)
	default:
		if term.StdinIsTerminal() {
			term.Warn("stdio transport expects an MCP client on stdin; start sshgate from your MCP client or set %s=http", "MCP_TRANSPORT")
		}
		serveErr = srv.RunStdio(ctx)
	}

	cancelSweep()
	wg.Wait()

	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		return fmt.Errorf("serve: %w", serveErr)
	}
	clog.Info("serve: stopped")
	return nil
}

// serveLogFile returns log.file, or the default state-directory log.
func serveLogFile(cfg *config.Loaded) string {
	if cfg.Log.File != "" {
		return config.ExpandHome(cfg.Log.File)
	}
	return clog.DefaultLogPath()
}

// serveLogLevel picks the log level: --debug, then $MCP_LOG_LEVEL, then
// log.level from the config file.
func serveLogLevel(env *config.Env, cfg *config.Loaded) clog.Level {
	if debug {
		return clog.LevelDebug
	}
	if _, set := os.LookupEnv("MCP_LOG_LEVEL"); set {
		return env.LogLevel
	}
	if cfg.Log.Level != "" {
		return clog.ParseLevel(cfg.Log.Level)
	}
	return env.LogLevel
}

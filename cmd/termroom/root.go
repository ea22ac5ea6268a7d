package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bhandras/termroom/internal/auth"
	"github.com/bhandras/termroom/internal/config"
	"github.com/bhandras/termroom/internal/version"
	"github.com/bhandras/termroom/pkg/logger"
)

// tokenWarnWindow is how close to expiry a token triggers a warning.
const tokenWarnWindow = 5 * time.Minute

type rootFlags struct {
	server        string
	dialect       string
	token         string
	logLevel      string
	debug         bool
	bareInput     bool
	escapedOutput bool
	websocketOnly bool
}

// app carries the loaded configuration to subcommands.
type app struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	var (
		flags rootFlags
		a     app
	)

	cmd := &cobra.Command{
		Use:           "termroom",
		Short:         "Watch and drive remote shell sessions from a browser",
		Version:       version.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger.SetLevel(cfg.Level())
			warnToken(cfg.Token)
			a.cfg = cfg
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.server, "server", "", "session server origin (env TERMROOM_SERVER_URL)")
	pf.StringVar(&flags.dialect, "dialect", "", "event dialect: session or terminal")
	pf.StringVar(&flags.token, "token", "", "bearer token for the server")
	pf.StringVar(&flags.logLevel, "log-level", "", "trace, debug, info, warn or error")
	pf.BoolVar(&flags.debug, "debug", false, "enable debug logging")
	pf.BoolVar(&flags.bareInput, "bare-input", false, "send commands as a plain string")
	pf.BoolVar(&flags.escapedOutput, "escaped-output", false, "expand literal escape text in output")
	pf.BoolVar(&flags.websocketOnly, "websocket-only", false, "skip the long-polling transport")

	cmd.AddCommand(
		newViewCmd(&a),
		newTailCmd(&a),
		newSendCmd(&a),
		newStartCmd(&a),
		newStopCmd(&a),
		newShareCmd(&a),
		newDevServerCmd(&a),
		newVersionCmd(),
	)
	return cmd
}

// apply copies explicitly set flags over the environment values.
func (f rootFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("server") {
		cfg.ServerURL = f.server
	}
	if changed("dialect") {
		cfg.Dialect = f.dialect
	}
	if changed("token") {
		cfg.Token = f.token
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("debug") {
		cfg.Debug = f.debug
	}
	if changed("bare-input") {
		cfg.BareInput = f.bareInput
	}
	if changed("escaped-output") {
		cfg.EscapedOutput = f.escapedOutput
	}
	if changed("websocket-only") {
		cfg.WebSocketOnly = f.websocketOnly
	}
}

func warnToken(token string) {
	if token == "" {
		return
	}
	soon, err := auth.ExpiringSoon(token, tokenWarnWindow, time.Now())
	if err != nil || !soon {
		return
	}
	if exp, ok := auth.ExpiresAt(token); ok {
		logger.Warnf("token expires at %s; the server may reject the connection", exp.Format(time.RFC3339))
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		// Skip config loading.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "termroom", version.Rich())
			return err
		},
	}
}

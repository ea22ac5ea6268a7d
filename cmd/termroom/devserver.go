package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bhandras/termroom/internal/devserver"
)

func newDevServerCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run a local session server with a toy shell",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := devserver.New(devserver.Options{
				Dialect: a.cfg.Wire(),
				Path:    a.cfg.SocketPath,
				Token:   a.cfg.Token,
			})
			defer srv.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "devserver on http://%s (%s dialect)\n", listen, a.cfg.Wire().Name)
			return serve(ctx, listen, srv.Handler())
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1:5000", "listen address")
	return cmd
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bhandras/termroom/internal/viewer"
	"github.com/bhandras/termroom/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

func newViewCmd(a *app) *cobra.Command {
	var (
		listen string
		legacy bool
	)
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Serve the browser viewer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if listen != "" {
				a.cfg.ListenAddr = listen
			}
			l, err := connect(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer l.Close()

			handler := viewer.New(viewer.Options{
				Transport:   l.hub,
				Poller:      l.remote,
				Control:     l.control(legacy),
				Dialect:     a.cfg.Wire(),
				BareInput:   a.cfg.BareInput,
				Decoder:     l.decoder(),
				PollTimeout: a.cfg.PollTimeout,
			})
			fmt.Fprintf(cmd.OutOrStdout(), "viewer on http://%s/?%s=<id>\n", a.cfg.ListenAddr, a.cfg.Wire().IDParam)
			return serve(ctx, a.cfg.ListenAddr, handler)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (env TERMROOM_LISTEN_ADDR)")
	cmd.Flags().BoolVar(&legacy, "legacy", false, "start and stop through /runner/start and /runner/stop")
	return cmd
}

// serve runs srv until ctx is done.
func serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Infof("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bhandras/termroom/internal/protocol/wire"
	"github.com/bhandras/termroom/internal/session"
	"github.com/bhandras/termroom/internal/viewer"
	"github.com/bhandras/termroom/pkg/logger"
)

func newStartCmd(a *app) *cobra.Command {
	var (
		target        wire.Target
		passwordStdin bool
		legacy        bool
	)
	cmd := &cobra.Command{
		Use:   "start <id>",
		Short: "Start the remote process behind a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !legacy && target.Hostname == "" {
				return fmt.Errorf("--host is required")
			}
			if !legacy && target.Password == "" {
				pw, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), passwordStdin)
				if err != nil {
					return err
				}
				target.Password = pw
			}
			return withControl(cmd.Context(), a, args[0], legacy, true, func(ctx context.Context, c viewer.Control) error {
				return c.Start(ctx, args[0], target)
			})
		},
	}
	cmd.Flags().StringVar(&target.Hostname, "host", "", "SSH host")
	cmd.Flags().StringVar(&target.Username, "user", os.Getenv("USER"), "SSH user")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	cmd.Flags().BoolVar(&legacy, "legacy", false, "use GET /runner/start")
	return cmd
}

func newStopCmd(a *app) *cobra.Command {
	var legacy bool
	cmd := &cobra.Command{
		Use:   "stop <id>",
		Short: "Stop the remote process behind a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withControl(cmd.Context(), a, args[0], legacy, false, func(ctx context.Context, c viewer.Control) error {
				return c.Stop(ctx, args[0])
			})
		},
	}
	cmd.Flags().BoolVar(&legacy, "legacy", false, "use GET /runner/stop")
	return cmd
}

// withControl connects and runs fn. Socket requests are fire-and-forget, so
// it joins the session first and waits for the server to push the expected
// active state.
func withControl(ctx context.Context, a *app, id string, legacy, want bool, fn func(context.Context, viewer.Control) error) error {
	l, err := connect(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer l.Close()

	result := make(chan wire.Inbound, 1)
	unsubscribe := l.hub.Subscribe(id, func(msg wire.Inbound) {
		if msg.Kind == wire.KindError || (msg.Kind == wire.KindActive && msg.Active == want) {
			select {
			case result <- msg:
			default:
			}
		}
	})
	defer unsubscribe()

	if !legacy {
		ctrl, err := l.controller(id)
		if err != nil {
			return err
		}
		defer ctrl.Unmount()
		if err := ctrl.Mount(ctx); err != nil {
			return fmt.Errorf("join %s: %w", id, err)
		}
	}

	if err := fn(ctx, l.control(legacy)); err != nil {
		return err
	}
	if legacy {
		return nil
	}

	wctx, cancel := context.WithTimeout(ctx, a.cfg.ConnectTimeout)
	defer cancel()
	select {
	case msg := <-result:
		if msg.Kind == wire.KindError {
			return fmt.Errorf("server: %s", msg.Text)
		}
		logger.Infof("session %s is %s", id, session.ActiveFrom(want))
	case <-wctx.Done():
		logger.Warnf("no confirmation from the server for session %s", id)
	}
	return nil
}

// readPassword prompts on a terminal, or reads one line when stdin is piped.
func readPassword(in io.Reader, prompt io.Writer, fromStdin bool) (string, error) {
	if f, ok := in.(*os.File); ok && !fromStdin && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(pw), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

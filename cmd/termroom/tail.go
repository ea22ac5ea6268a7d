package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bhandras/termroom/internal/protocol/wire"
	"github.com/bhandras/termroom/internal/session"
	"github.com/bhandras/termroom/internal/termhtml"
	"github.com/bhandras/termroom/pkg/logger"
)

func newTailCmd(a *app) *cobra.Command {
	var interactive bool
	cmd := &cobra.Command{
		Use:   "tail <id>",
		Short: "Stream a session's output to the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			id := args[0]
			l, err := connect(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer l.Close()

			out := &plainSink{w: cmd.OutOrStdout(), expand: a.cfg.EscapedOutput}
			unsubscribe := l.hub.Subscribe(id, out.handle)
			defer unsubscribe()

			ctrl, err := l.controller(id)
			if err != nil {
				return err
			}
			defer ctrl.Unmount()

			var last session.ActiveState
			cancelWatch := ctrl.OnChange(func(ch session.Change) {
				if ch.Active.Known() && ch.Active != last {
					last = ch.Active
					logger.Infof("session %s is %s", id, ch.Active)
				}
			})
			defer cancelWatch()

			if err := ctrl.Mount(ctx); err != nil {
				return fmt.Errorf("join %s: %w", id, err)
			}

			if interactive {
				go readCommands(ctx.Done(), cmd.InOrStdin(), func(line string) {
					if err := ctrl.Submit(ctx, line); err != nil && !errors.Is(err, session.ErrEmptyCommand) {
						logger.Warnf("send failed: %v", err)
					}
				})
			}

			select {
			case <-ctx.Done():
			case <-ctrl.Done():
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "send lines read from stdin as commands")
	return cmd
}

// plainSink prints session output without markup.
type plainSink struct {
	mu     sync.Mutex
	w      io.Writer
	expand bool
}

func (p *plainSink) handle(msg wire.Inbound) {
	var text string
	switch msg.Kind {
	case wire.KindIncremental, wire.KindHistory:
		text = msg.Text
	case wire.KindError:
		logger.Warnf("server error: %s", msg.Text)
		return
	default:
		return
	}
	if p.expand {
		text = termhtml.ExpandEscapes(text)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.w, termhtml.Plain(text))
}

func readCommands(done <-chan struct{}, r io.Reader, submit func(string)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case <-done:
			return
		default:
		}
		submit(strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		fmt.Fprintln(os.Stderr, "stdin:", err)
	}
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "send <id> <command...>",
		Short: "Send one command to a session",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, text := args[0], strings.Join(args[1:], " ")

			l, err := connect(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer l.Close()

			ctrl, err := l.controller(id)
			if err != nil {
				return err
			}
			defer ctrl.Unmount()

			if err := ctrl.Mount(ctx); err != nil {
				return fmt.Errorf("join %s: %w", id, err)
			}
			if err := ctrl.Submit(ctx, text); err != nil {
				return fmt.Errorf("send to %s: %w", id, err)
			}
			return nil
		},
	}
}

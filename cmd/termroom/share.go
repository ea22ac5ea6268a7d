package main

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"

	"github.com/bhandras/termroom/internal/config"
)

func newShareCmd(a *app) *cobra.Command {
	var (
		base   string
		noCode bool
	)
	cmd := &cobra.Command{
		Use:   "share <id>",
		Short: "Print a viewer link and QR code for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			link := viewerURL(a.cfg, base, args[0])
			out := cmd.OutOrStdout()
			if !noCode {
				qr, err := qrcode.New(link, qrcode.Medium)
				if err != nil {
					return fmt.Errorf("qr code: %w", err)
				}
				fmt.Fprintln(out, qr.ToSmallString(false))
			}
			_, err := fmt.Fprintln(out, link)
			return err
		},
	}
	cmd.Flags().StringVar(&base, "base-url", "", "public viewer origin (default http://<listen addr>)")
	cmd.Flags().BoolVar(&noCode, "no-qr", false, "print only the link")
	return cmd
}

func viewerURL(cfg *config.Config, base, id string) string {
	if base == "" {
		base = "http://" + cfg.ListenAddr
	}
	return strings.TrimRight(base, "/") + "/?" + cfg.Wire().ViewerQuery(id)
}

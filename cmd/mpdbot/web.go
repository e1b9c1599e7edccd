package main

import (
	"context"

	"github.com/latoulicious/mpdbot/internal/web"
	"github.com/spf13/cobra"
)

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Serve the queue view",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.close()

		ctx, stop := signalContext()
		defer stop()
		return runModes(ctx, a.runWeb)
	},
}

func (a *app) runWeb(ctx context.Context) error {
	return web.NewServer(a.media, a.romanizer, a.log).Run(ctx, a.cfg.WebAddress)
}

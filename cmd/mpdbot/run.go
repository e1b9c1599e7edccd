package main

import "github.com/spf13/cobra"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the Discord bot and the queue view",
	Long:  "Runs the Discord bot and the queue view against one shared MPD connection.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.close()

		ctx, stop := signalContext()
		defer stop()
		return runModes(ctx, a.runDiscord, a.runWeb)
	},
}

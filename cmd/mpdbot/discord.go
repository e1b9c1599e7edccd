package main

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/latoulicious/mpdbot/internal/commands"
	"github.com/latoulicious/mpdbot/internal/gateway"
	"github.com/latoulicious/mpdbot/internal/handlers"
	"github.com/latoulicious/mpdbot/internal/presence"
	"github.com/latoulicious/mpdbot/internal/voice"
	"github.com/spf13/cobra"
)

var discordCmd = &cobra.Command{
	Use:   "discord",
	Short: "Run the Discord bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.close()

		ctx, stop := signalContext()
		defer stop()
		return runModes(ctx, a.runDiscord)
	},
}

// runDiscord connects to Discord and serves chat commands until ctx is done.
func (a *app) runDiscord(ctx context.Context) error {
	log := a.log.With("component", "cmd.discord")

	dg, err := discordgo.New("Bot " + a.cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsMessageContent

	gw := gateway.NewDiscord(dg, a.log)
	bridge := voice.NewBridge(gw, voice.Config{
		FIFOPath:    a.cfg.FIFOPath,
		OpenTimeout: a.cfg.FIFOOpenTimeout,
	}, voice.WithLogger(a.log))
	defer bridge.Close()

	dispatcher := commands.NewDispatcher(a.cfg.CommandPrefix, commands.Deps{
		Media:     a.media,
		Voice:     bridge,
		Gateway:   gw,
		Romanizer: a.romanizer,
		Logger:    a.log,
	})
	handlers.New(ctx, dispatcher, bridge, a.log).Register(dg)

	// Open a websocket connection to Discord and begin listening.
	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer dg.Close()

	presenceManager := presence.NewPresenceManager(gw, a.media, a.cfg.CommandPrefix+" help", a.log)
	job, err := presenceManager.StartPeriodicUpdates(a.cfg.PresenceSchedule)
	if err != nil {
		return err
	}
	defer job.Stop()

	log.Info("Bot is running", "prefix", a.cfg.CommandPrefix, "mpd", a.media.Address())
	<-ctx.Done()
	log.Info("Shutting down Discord bot")
	return nil
}

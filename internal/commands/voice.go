package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/latoulicious/mpdbot/internal/voice"
)

const replyGuildOnly = "Groups and DMs not supported"

// join moves the bot into the author's voice channel and starts streaming.
func (d *Dispatcher) join(ctx context.Context, msg Message) string {
	if msg.GuildID == "" {
		return replyGuildOnly
	}

	channelID, ok := d.gateway.VoiceChannelOf(msg.GuildID, msg.AuthorID)
	if !ok {
		return "Not in a voice channel"
	}

	if err := d.voice.Join(ctx, msg.GuildID, channelID); err != nil {
		d.log.Error("Error joining the channel", "guild_id", msg.GuildID, "channel_id", channelID, "error", err)
		return fmt.Sprintf("Error joining the channel: %v", err)
	}
	return ""
}

func (d *Dispatcher) quit(msg Message) string {
	if msg.GuildID == "" {
		return replyGuildOnly
	}

	err := d.voice.Quit(msg.GuildID)
	switch {
	case errors.Is(err, voice.ErrNoSession):
		return "Currently not in any channel!"
	case err != nil:
		// the session is gone either way
		d.log.Warn("Error while leaving the channel", "guild_id", msg.GuildID, "error", err)
	}
	return ""
}

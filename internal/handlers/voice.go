package handlers

import (
	"errors"

	"github.com/bwmarrin/discordgo"
	"github.com/latoulicious/mpdbot/internal/voice"
)

// VoiceStateHandler leaves a voice channel once the bot is the only one left
// in it, and drops the session when the bot was disconnected externally.
func (h *Handler) VoiceStateHandler(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if v.VoiceState == nil || s.State.User == nil {
		return
	}
	guildID := v.GuildID
	channelID, ok := h.voice.ChannelOf(guildID)
	if !ok {
		return
	}
	botID := s.State.User.ID

	if v.UserID == botID && v.ChannelID == "" {
		h.log.Info("Disconnected from voice externally", "guild_id", guildID)
		h.leave(guildID)
		return
	}

	guild, err := s.State.Guild(guildID)
	if err != nil {
		h.log.Debug("Guild not in state", "guild_id", guildID, "error", err)
		return
	}

	s.State.RLock()
	alone := aloneIn(guild.VoiceStates, channelID, botID)
	s.State.RUnlock()

	if alone {
		h.log.Info("Left alone in voice channel, leaving", "guild_id", guildID, "channel_id", channelID)
		h.leave(guildID)
	}
}

func (h *Handler) leave(guildID string) {
	if err := h.voice.Quit(guildID); err != nil && !errors.Is(err, voice.ErrNoSession) {
		h.log.Warn("Error while leaving the channel", "guild_id", guildID, "error", err)
	}
}

// aloneIn reports whether no user other than botID is connected to channelID.
func aloneIn(states []*discordgo.VoiceState, channelID, botID string) bool {
	for _, vs := range states {
		if vs != nil && vs.ChannelID == channelID && vs.UserID != botID {
			return false
		}
	}
	return true
}

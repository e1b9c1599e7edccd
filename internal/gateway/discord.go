// Package gateway adapts a discordgo session to the interfaces used by the
// command dispatcher and the voice bridge.
package gateway

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/latoulicious/mpdbot/pkg/common"
)

// Discord adapts a discordgo session to the bot's gateway interfaces.
type Discord struct {
	s   *discordgo.Session
	log *slog.Logger
}

// NewDiscord wraps s.
func NewDiscord(s *discordgo.Session, log *slog.Logger) *Discord {
	return &Discord{s: s, log: log.With("component", "gateway")}
}

// SendText posts content to channelID.
func (d *Discord) SendText(channelID, content string) error {
	_, err := d.s.ChannelMessageSend(channelID, content)
	return err
}

// VoiceChannelOf returns the voice channel userID is in, from the state cache.
func (d *Discord) VoiceChannelOf(guildID, userID string) (string, bool) {
	return common.FindUserVoiceChannel(d.s, guildID, userID)
}

// JoinVoice connects to channelID and waits until the connection is ready.
func (d *Discord) JoinVoice(ctx context.Context, guildID, channelID string) (common.VoiceConn, error) {
	vc, err := common.JoinVoiceChannel(ctx, d.s, guildID, channelID, d.log)
	if err != nil {
		return nil, err
	}
	return common.NewDiscordVoice(vc), nil
}

// SetListening shows "Listening to <text>" as the bot's activity.
func (d *Discord) SetListening(text string) error {
	return d.s.UpdateListeningStatus(text)
}

// SetIdle shows a plain playing status.
func (d *Discord) SetIdle(text string) error {
	return d.s.UpdateGameStatus(0, text)
}

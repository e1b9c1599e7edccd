package common

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	voiceJoinAttempts = 3
	voiceReadyTimeout = 10 * time.Second
)

// DiscordVoice adapts a discordgo voice connection to VoiceConn.
type DiscordVoice struct {
	vc *discordgo.VoiceConnection
}

func NewDiscordVoice(vc *discordgo.VoiceConnection) *DiscordVoice {
	return &DiscordVoice{vc: vc}
}

func (d *DiscordVoice) Speaking(b bool) error   { return d.vc.Speaking(b) }
func (d *DiscordVoice) Disconnect() error       { return d.vc.Disconnect() }
func (d *DiscordVoice) OpusSend() chan<- []byte { return d.vc.OpusSend }

// FindUserVoiceChannel returns the voice channel userID is connected to in guildID.
func FindUserVoiceChannel(s *discordgo.Session, guildID, userID string) (string, bool) {
	vs, err := s.State.VoiceState(guildID, userID)
	if err != nil || vs == nil || vs.ChannelID == "" {
		return "", false
	}
	return vs.ChannelID, true
}

// JoinVoiceChannel joins channelID in guildID with retry logic and waits for
// the connection to become ready. The bot joins deafened; it only speaks.
func JoinVoiceChannel(ctx context.Context, s *discordgo.Session, guildID, channelID string, log *slog.Logger) (*discordgo.VoiceConnection, error) {
	channelName := "Unknown"
	if channel, err := s.State.Channel(channelID); err == nil {
		channelName = channel.Name
	}
	log.Info("Joining voice channel", "channel", channelName, "channel_id", channelID, "guild_id", guildID)

	var (
		vc  *discordgo.VoiceConnection
		err error
	)
	for i := 0; i < voiceJoinAttempts; i++ {
		vc, err = s.ChannelVoiceJoin(guildID, channelID, false, true)
		if err == nil {
			break
		}

		log.Warn("Voice join attempt failed", "attempt", i+1, "max_attempts", voiceJoinAttempts, "error", err)
		if i < voiceJoinAttempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(i+1) * time.Second):
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to join voice channel after %d attempts: %w", voiceJoinAttempts, err)
	}

	timeout := time.NewTimer(voiceReadyTimeout)
	defer timeout.Stop()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if voiceReady(vc) {
			log.Info("Voice connection ready", "guild_id", guildID)
			return vc, nil
		}
		select {
		case <-ctx.Done():
			vc.Disconnect()
			return nil, ctx.Err()
		case <-timeout.C:
			vc.Disconnect()
			return nil, fmt.Errorf("voice connection timed out")
		case <-ticker.C:
		}
	}
}

func voiceReady(vc *discordgo.VoiceConnection) bool {
	vc.RLock()
	defer vc.RUnlock()
	return vc.Ready
}

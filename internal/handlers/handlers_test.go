package handlers

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/latoulicious/mpdbot/internal/commands"
	"github.com/latoulicious/mpdbot/internal/voice"
	"github.com/latoulicious/mpdbot/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	msgs []commands.Message
}

func (r *recordingDispatcher) Handle(_ context.Context, msg commands.Message) bool {
	r.msgs = append(r.msgs, msg)
	return true
}

type fakeVoice struct {
	channels map[string]string
	quits    []string
}

func (f *fakeVoice) ChannelOf(guildID string) (string, bool) {
	ch, ok := f.channels[guildID]
	return ch, ok
}

func (f *fakeVoice) Quit(guildID string) error {
	if _, ok := f.channels[guildID]; !ok {
		return voice.ErrNoSession
	}
	delete(f.channels, guildID)
	f.quits = append(f.quits, guildID)
	return nil
}

func newSession(t *testing.T, voiceStates ...*discordgo.VoiceState) *discordgo.Session {
	t.Helper()
	s := &discordgo.Session{State: discordgo.NewState()}
	s.State.User = &discordgo.User{ID: "bot"}
	require.NoError(t, s.State.GuildAdd(&discordgo.Guild{ID: "g1", VoiceStates: voiceStates}))
	return s
}

func TestMessageHandlerIgnoresOwnMessages(t *testing.T) {
	d := &recordingDispatcher{}
	h := New(context.Background(), d, &fakeVoice{}, logger.Discard())
	s := newSession(t)

	h.MessageHandler(s, &discordgo.MessageCreate{Message: &discordgo.Message{
		Content: "!r info", ChannelID: "c", GuildID: "g1", Author: &discordgo.User{ID: "bot"},
	}})
	h.MessageHandler(s, &discordgo.MessageCreate{Message: &discordgo.Message{
		Content: "!r info", ChannelID: "c", GuildID: "g1", Author: &discordgo.User{ID: "u1"},
	}})

	require.Len(t, d.msgs, 1)
	assert.Equal(t, commands.Message{Content: "!r info", AuthorID: "u1", ChannelID: "c", GuildID: "g1"}, d.msgs[0])
}

func TestAloneIn(t *testing.T) {
	states := []*discordgo.VoiceState{
		{UserID: "bot", ChannelID: "v1"},
		{UserID: "u1", ChannelID: "v2"},
	}
	assert.True(t, aloneIn(states, "v1", "bot"))
	assert.False(t, aloneIn(states, "v2", "bot"))
	assert.True(t, aloneIn(nil, "v1", "bot"))
}

func TestVoiceStateHandlerLeavesWhenAlone(t *testing.T) {
	v := &fakeVoice{channels: map[string]string{"g1": "v1"}}
	h := New(context.Background(), &recordingDispatcher{}, v, logger.Discard())
	s := newSession(t, &discordgo.VoiceState{GuildID: "g1", UserID: "bot", ChannelID: "v1"})

	h.VoiceStateHandler(s, &discordgo.VoiceStateUpdate{
		VoiceState: &discordgo.VoiceState{GuildID: "g1", UserID: "u1", ChannelID: ""},
	})
	assert.Equal(t, []string{"g1"}, v.quits)
}

func TestVoiceStateHandlerStaysWithListeners(t *testing.T) {
	v := &fakeVoice{channels: map[string]string{"g1": "v1"}}
	h := New(context.Background(), &recordingDispatcher{}, v, logger.Discard())
	s := newSession(t,
		&discordgo.VoiceState{GuildID: "g1", UserID: "bot", ChannelID: "v1"},
		&discordgo.VoiceState{GuildID: "g1", UserID: "u2", ChannelID: "v1"},
	)

	h.VoiceStateHandler(s, &discordgo.VoiceStateUpdate{
		VoiceState: &discordgo.VoiceState{GuildID: "g1", UserID: "u1", ChannelID: "v9"},
	})
	assert.Empty(t, v.quits)
}

func TestVoiceStateHandlerBotDisconnected(t *testing.T) {
	v := &fakeVoice{channels: map[string]string{"g1": "v1"}}
	h := New(context.Background(), &recordingDispatcher{}, v, logger.Discard())
	s := newSession(t)

	h.VoiceStateHandler(s, &discordgo.VoiceStateUpdate{
		VoiceState: &discordgo.VoiceState{GuildID: "g1", UserID: "bot", ChannelID: ""},
	})
	assert.Equal(t, []string{"g1"}, v.quits)
}

func TestVoiceStateHandlerWithoutSession(t *testing.T) {
	v := &fakeVoice{channels: map[string]string{}}
	h := New(context.Background(), &recordingDispatcher{}, v, logger.Discard())
	s := newSession(t)

	h.VoiceStateHandler(s, &discordgo.VoiceStateUpdate{
		VoiceState: &discordgo.VoiceState{GuildID: "g1", UserID: "u1"},
	})
	assert.Empty(t, v.quits)
}

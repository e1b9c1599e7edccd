package handlers

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/latoulicious/mpdbot/internal/commands"
)

// Dispatcher runs chat commands.
type Dispatcher interface {
	Handle(ctx context.Context, msg commands.Message) bool
}

// Voice is the voice bridge as seen by the event handlers.
type Voice interface {
	ChannelOf(guildID string) (string, bool)
	Quit(guildID string) error
}

// Handler routes discordgo events. ctx bounds work started by events, such
// as joining a voice channel, and is cancelled on shutdown.
type Handler struct {
	ctx        context.Context
	dispatcher Dispatcher
	voice      Voice
	log        *slog.Logger
}

func New(ctx context.Context, dispatcher Dispatcher, voice Voice, log *slog.Logger) *Handler {
	return &Handler{
		ctx:        ctx,
		dispatcher: dispatcher,
		voice:      voice,
		log:        log.With("component", "handlers"),
	}
}

// Register adds every handler to the session.
func (h *Handler) Register(s *discordgo.Session) {
	s.AddHandler(h.Ready)
	s.AddHandler(h.MessageHandler)
	s.AddHandler(h.VoiceStateHandler)
}

func (h *Handler) Ready(s *discordgo.Session, r *discordgo.Ready) {
	h.log.Info("Connected to Discord", "user", r.User.Username, "guilds", len(r.Guilds))
}

func (h *Handler) MessageHandler(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}
	// Ignore all messages created by the bot itself
	if s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}

	h.dispatcher.Handle(h.ctx, toMessage(m))
}

func toMessage(m *discordgo.MessageCreate) commands.Message {
	return commands.Message{
		Content:   m.Content,
		AuthorID:  m.Author.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
	}
}

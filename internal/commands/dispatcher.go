package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/latoulicious/mpdbot/pkg/common"
	"github.com/latoulicious/mpdbot/pkg/mpd"
)

const replyMediaUnavailable = "Media server is unavailable right now."

// Message is the part of an inbound chat message the dispatcher needs.
// GuildID is empty for direct messages and group DMs.
type Message struct {
	Content   string
	AuthorID  string
	ChannelID string
	GuildID   string
}

// Media is the media server surface commands drive.
type Media interface {
	TogglePause() error
	Next() error
	Prev() error
	// SwitchAndCurrent plays a 1-based queue position and returns the song
	// now loaded, which is nil if it could not be read.
	SwitchAndCurrent(position uint) (*mpd.Song, error)
	CurrentSong() (*mpd.Song, error)
}

// Voice manages voice sessions.
type Voice interface {
	Join(ctx context.Context, guildID, channelID string) error
	Quit(guildID string) error
}

// Gateway is the chat platform.
type Gateway interface {
	SendText(channelID, content string) error
	VoiceChannelOf(guildID, userID string) (string, bool)
}

// Deps are the collaborators a Dispatcher drives.
type Deps struct {
	Media     Media
	Voice     Voice
	Gateway   Gateway
	Romanizer common.Romanizer
	Logger    *slog.Logger
}

// Dispatcher turns chat messages into commands and replies.
type Dispatcher struct {
	prefix    string
	media     Media
	voice     Voice
	gateway   Gateway
	romanizer common.Romanizer
	log       *slog.Logger
}

// NewDispatcher returns a Dispatcher for prefix, or DefaultPrefix if empty.
func NewDispatcher(prefix string, deps Deps) *Dispatcher {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		prefix:    prefix,
		media:     deps.Media,
		voice:     deps.Voice,
		gateway:   deps.Gateway,
		romanizer: deps.Romanizer,
		log:       log.With("component", "commands"),
	}
}

// Handle runs msg if it is a command and sends the reply, if any. It reports
// whether msg was a command.
func (d *Dispatcher) Handle(ctx context.Context, msg Message) bool {
	cmd, ok := Parse(d.prefix, msg.Content)
	if !ok {
		return false
	}

	d.log.Debug("Handling command", "verb", cmd.Verb, "guild_id", msg.GuildID, "author_id", msg.AuthorID)

	reply := d.Execute(ctx, cmd, msg)
	if reply == "" {
		return true
	}
	if err := d.gateway.SendText(msg.ChannelID, reply); err != nil {
		d.log.Error("Error sending message", "channel_id", msg.ChannelID, "error", err)
	}
	return true
}

// Execute runs cmd and returns the reply text; empty means no reply.
func (d *Dispatcher) Execute(ctx context.Context, cmd Command, msg Message) string {
	switch cmd.Verb {
	case VerbPause:
		return d.transport("pause", d.media.TogglePause)
	case VerbNext:
		return d.transport("next", d.media.Next)
	case VerbPrev:
		return d.transport("prev", d.media.Prev)
	case VerbPlay:
		return d.play(cmd.Args)
	case VerbInfo:
		return d.info(ctx)
	case VerbQuit:
		return d.quit(msg)
	case VerbJoin:
		return d.join(ctx, msg)
	case VerbHelp:
		return helpText(d.prefix)
	default:
		return fmt.Sprintf("Unrecognized command... try %s help", d.prefix)
	}
}

// mediaFailure logs err and picks the reply for it.
func (d *Dispatcher) mediaFailure(verb string, err error, fallback string) string {
	d.log.Error("Media command failed", "verb", verb, "error", err)
	if errors.Is(err, mpd.ErrConnection) {
		return replyMediaUnavailable
	}
	return fallback
}

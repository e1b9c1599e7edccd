// Package voice owns the per-guild voice sessions that stream the MPD FIFO
// into Discord voice channels.
package voice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/latoulicious/mpdbot/pkg/common"
)

var (
	ErrNoSession      = errors.New("currently not in any channel")
	ErrJoinInProgress = errors.New("already joining a channel in this guild")
)

// VoiceJoinError carries the diagnostic of a failed join.
type VoiceJoinError struct {
	GuildID   string
	ChannelID string
	Err       error
}

func (e *VoiceJoinError) Error() string { return e.Err.Error() }
func (e *VoiceJoinError) Unwrap() error { return e.Err }

// Gateway establishes voice connections.
type Gateway interface {
	JoinVoice(ctx context.Context, guildID, channelID string) (common.VoiceConn, error)
}

// SourceOpener opens the PCM source for a new session.
type SourceOpener func(ctx context.Context, path string, timeout time.Duration) (io.ReadCloser, error)

// EncoderFactory creates one frame encoder per session.
type EncoderFactory func() (common.FrameEncoder, error)

// Config locates the PCM source a session streams.
type Config struct {
	FIFOPath    string
	OpenTimeout time.Duration
}

// Bridge manages at most one voice session per guild.
type Bridge struct {
	gateway    Gateway
	cfg        Config
	openSource SourceOpener
	newEncoder EncoderFactory
	log        *slog.Logger

	mu       sync.Mutex
	sessions map[string]*common.VoiceSession
	pending  map[string]context.CancelFunc
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithSourceOpener replaces the FIFO opener.
func WithSourceOpener(o SourceOpener) Option {
	return func(b *Bridge) { b.openSource = o }
}

// WithEncoderFactory replaces the Opus encoder constructor.
func WithEncoderFactory(f EncoderFactory) Option {
	return func(b *Bridge) { b.newEncoder = f }
}

// WithLogger sets the logger sessions report to.
func WithLogger(log *slog.Logger) Option {
	return func(b *Bridge) { b.log = log }
}

// NewBridge returns a Bridge with no sessions.
func NewBridge(gateway Gateway, cfg Config, opts ...Option) *Bridge {
	b := &Bridge{
		gateway: gateway,
		cfg:     cfg,
		openSource: func(ctx context.Context, path string, timeout time.Duration) (io.ReadCloser, error) {
			return common.OpenPCMSource(ctx, path, timeout)
		},
		newEncoder: common.NewOpusEncoder,
		log:        slog.Default(),
		sessions:   make(map[string]*common.VoiceSession),
		pending:    make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.With("component", "voice.bridge")
	return b
}

// Join connects to channelID and starts streaming the FIFO into it. An
// existing session for the guild is closed first. A Quit for the guild while
// the join is in progress cancels it.
func (b *Bridge) Join(ctx context.Context, guildID, channelID string) error {
	ctx, cancel := context.WithCancel(ctx)

	b.mu.Lock()
	if _, ok := b.pending[guildID]; ok {
		b.mu.Unlock()
		cancel()
		return ErrJoinInProgress
	}
	b.pending[guildID] = cancel
	existing := b.sessions[guildID]
	delete(b.sessions, guildID)
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, guildID)
		b.mu.Unlock()
		cancel()
	}()

	log := b.log.With("guild_id", guildID, "channel_id", channelID)

	if existing != nil {
		log.Info("Replacing existing voice session", "session_id", existing.ID)
		if err := existing.StopAndCleanup(); err != nil {
			log.Warn("Failed to close previous voice session", "error", err)
		}
	}

	fail := func(err error) error {
		return &VoiceJoinError{GuildID: guildID, ChannelID: channelID, Err: err}
	}

	vc, err := b.gateway.JoinVoice(ctx, guildID, channelID)
	if err != nil {
		return fail(err)
	}

	source, err := b.openSource(ctx, b.cfg.FIFOPath, b.cfg.OpenTimeout)
	if err != nil {
		disconnect(vc, log)
		return fail(err)
	}

	encoder, err := b.newEncoder()
	if err != nil {
		source.Close()
		disconnect(vc, log)
		return fail(err)
	}

	pipeline := common.NewAudioPipeline(vc, source, encoder, log)
	session := common.NewVoiceSession(guildID, channelID, vc, pipeline)
	if err := pipeline.Start(); err != nil {
		pipeline.Stop()
		disconnect(vc, log)
		return fail(err)
	}

	b.mu.Lock()
	if err := ctx.Err(); err != nil {
		b.mu.Unlock()
		log.Info("Join cancelled", "session_id", session.ID)
		if cerr := session.StopAndCleanup(); cerr != nil {
			log.Warn("Failed to close cancelled voice session", "error", cerr)
		}
		return fail(err)
	}
	b.sessions[guildID] = session
	b.mu.Unlock()

	log.Info("Voice session started", "session_id", session.ID, "fifo", b.cfg.FIFOPath)
	return nil
}

// Quit closes the guild's session or cancels its join in progress. It returns
// ErrNoSession when there is neither.
func (b *Bridge) Quit(guildID string) error {
	b.mu.Lock()
	cancelJoin, joining := b.pending[guildID]
	session, ok := b.sessions[guildID]
	delete(b.sessions, guildID)
	b.mu.Unlock()

	if joining {
		cancelJoin()
		b.log.Info("Join cancelled by quit", "guild_id", guildID)
		return nil
	}
	if !ok {
		return ErrNoSession
	}

	b.log.Info("Voice session closed", "guild_id", guildID, "session_id", session.ID,
		"duration", time.Since(session.StartedAt).Round(time.Second))
	return session.StopAndCleanup()
}

// ChannelOf returns the voice channel the guild's session is connected to.
func (b *Bridge) ChannelOf(guildID string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	session, ok := b.sessions[guildID]
	if !ok {
		return "", false
	}
	return session.ChannelID, true
}

// Session returns the guild's active session, if any.
func (b *Bridge) Session(guildID string) *common.VoiceSession {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions[guildID]
}

// Close cancels joins in progress and tears down every session.
func (b *Bridge) Close() {
	b.mu.Lock()
	for _, cancel := range b.pending {
		cancel()
	}
	sessions := b.sessions
	b.sessions = make(map[string]*common.VoiceSession)
	b.mu.Unlock()

	for guildID, session := range sessions {
		if err := session.StopAndCleanup(); err != nil {
			b.log.Warn("Failed to close voice session", "guild_id", guildID, "error", err)
		}
	}
}

func disconnect(vc common.VoiceConn, log *slog.Logger) {
	if err := vc.Disconnect(); err != nil {
		log.Warn("Failed to disconnect voice", "error", err)
	}
}

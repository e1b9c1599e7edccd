package common

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// VoiceSession ties a guild's voice connection to the pipeline streaming into it.
type VoiceSession struct {
	ID        string
	GuildID   string
	ChannelID string
	StartedAt time.Time

	mu        sync.RWMutex
	voiceConn VoiceConn
	pipeline  *AudioPipeline
	closed    bool
}

// NewVoiceSession creates a session for an already joined voice connection.
func NewVoiceSession(guildID, channelID string, vc VoiceConn, pipeline *AudioPipeline) *VoiceSession {
	return &VoiceSession{
		ID:        uuid.NewString(),
		GuildID:   guildID,
		ChannelID: channelID,
		StartedAt: time.Now(),
		voiceConn: vc,
		pipeline:  pipeline,
	}
}

// Pipeline returns the audio pipeline.
func (vs *VoiceSession) Pipeline() *AudioPipeline {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	return vs.pipeline
}

// IsStreaming returns whether audio is currently flowing.
func (vs *VoiceSession) IsStreaming() bool {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	return !vs.closed && vs.pipeline != nil && vs.pipeline.IsPlaying()
}

// StopAndCleanup stops the pipeline and leaves the voice channel. Safe to
// call more than once.
func (vs *VoiceSession) StopAndCleanup() error {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if vs.closed {
		return nil
	}
	vs.closed = true

	if vs.pipeline != nil {
		vs.pipeline.Stop()
		vs.pipeline = nil
	}

	var err error
	if vs.voiceConn != nil {
		err = vs.voiceConn.Disconnect()
		vs.voiceConn = nil
	}
	return err
}

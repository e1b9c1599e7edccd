package common

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/faiface/beep"
	"layeh.com/gopus"
)

// PCMFormat is what MPD writes into the FIFO: 48 kHz, stereo, signed 16-bit
// little endian. Discord runs at 48 kHz so no resampling is needed.
var PCMFormat = beep.Format{SampleRate: 48000, NumChannels: 2, Precision: 2}

const (
	FrameDuration = 20 * time.Millisecond
	opusBitrate   = 128000
)

var (
	// FrameSamples is the number of samples per channel in one Opus frame.
	FrameSamples = PCMFormat.SampleRate.N(FrameDuration)
	// FrameBytes is the size of one raw PCM frame across all channels.
	FrameBytes = FrameSamples * PCMFormat.Width()
)

var ErrPipelinePlaying = errors.New("pipeline is already playing")

// VoiceConn is an outbound voice connection that accepts Opus frames.
type VoiceConn interface {
	Speaking(bool) error
	Disconnect() error
	OpusSend() chan<- []byte
}

// FrameEncoder encodes one interleaved PCM frame. *gopus.Encoder satisfies it.
type FrameEncoder interface {
	Encode(pcm []int16, frameSize, maxDataBytes int) ([]byte, error)
}

// NewOpusEncoder returns an Opus encoder configured for PCMFormat.
func NewOpusEncoder() (FrameEncoder, error) {
	encoder, err := gopus.NewEncoder(int(PCMFormat.SampleRate), PCMFormat.NumChannels, gopus.Audio)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}
	encoder.SetBitrate(opusBitrate)
	return encoder, nil
}

// AudioPipeline streams raw PCM from a source into a voice connection.
type AudioPipeline struct {
	ctx     context.Context
	cancel  context.CancelFunc
	voice   VoiceConn
	source  io.ReadCloser
	encoder FrameEncoder
	log     *slog.Logger

	mu        sync.RWMutex
	isPlaying bool
	started   bool
	frames    int
	err       error
	done      chan struct{}
	stopOnce  sync.Once
}

// NewAudioPipeline creates a pipeline. The pipeline owns source and closes it.
func NewAudioPipeline(vc VoiceConn, source io.ReadCloser, encoder FrameEncoder, log *slog.Logger) *AudioPipeline {
	ctx, cancel := context.WithCancel(context.Background())
	return &AudioPipeline{
		ctx:     ctx,
		cancel:  cancel,
		voice:   vc,
		source:  source,
		encoder: encoder,
		log:     log,
		done:    make(chan struct{}),
	}
}

// Start begins streaming in the background.
func (ap *AudioPipeline) Start() error {
	ap.mu.Lock()
	defer ap.mu.Unlock()

	if ap.started {
		return ErrPipelinePlaying
	}
	ap.started = true
	ap.isPlaying = true

	go ap.streamLoop()
	return nil
}

func (ap *AudioPipeline) streamLoop() {
	defer close(ap.done)
	defer func() {
		ap.mu.Lock()
		ap.isPlaying = false
		ap.mu.Unlock()
	}()

	if err := ap.voice.Speaking(true); err != nil {
		ap.log.Warn("Failed to set speaking state", "error", err)
	}
	defer func() {
		if err := ap.voice.Speaking(false); err != nil {
			ap.log.Debug("Failed to clear speaking state", "error", err)
		}
	}()

	ap.log.Info("Starting PCM stream", "frame_bytes", FrameBytes)
	err := ap.streamPCM(bufio.NewReaderSize(ap.source, FrameBytes*4))

	ap.mu.Lock()
	ap.err = err
	frames := ap.frames
	ap.mu.Unlock()

	if err != nil {
		ap.log.Error("PCM stream failed", "frames", frames, "error", err)
		return
	}
	ap.log.Info("PCM stream ended", "frames", frames)
}

// streamPCM reads fixed-size frames, encodes them and hands them to the
// voice connection until the source ends or the pipeline is stopped.
func (ap *AudioPipeline) streamPCM(r io.Reader) error {
	buffer := make([]byte, FrameBytes)
	samples := make([]int16, FrameSamples*PCMFormat.NumChannels)

	for {
		n, err := io.ReadFull(r, buffer)
		if ap.ctx.Err() != nil {
			return nil
		}
		last := false
		switch {
		case err == io.EOF:
			return nil
		case err == io.ErrUnexpectedEOF:
			// pad the trailing partial frame with silence
			clear(buffer[n:])
			last = true
		case err != nil:
			return fmt.Errorf("error reading PCM data: %w", err)
		}

		bytesToInt16(buffer, samples)

		opus, err := ap.encoder.Encode(samples, FrameSamples, FrameBytes)
		if err != nil {
			ap.log.Warn("Opus encoding error", "error", err)
			if last {
				return nil
			}
			continue
		}

		select {
		case ap.voice.OpusSend() <- opus:
		case <-ap.ctx.Done():
			return nil
		}

		ap.mu.Lock()
		ap.frames++
		frames := ap.frames
		ap.mu.Unlock()

		// one minute of audio
		if frames%(50*60) == 0 {
			ap.log.Debug("Streamed frames", "frames", frames)
		}
		if last {
			return nil
		}
	}
}

// Stop cancels streaming and closes the source. It does not wait; use Done.
func (ap *AudioPipeline) Stop() {
	ap.stopOnce.Do(func() {
		ap.cancel()
		if err := ap.source.Close(); err != nil {
			ap.log.Debug("Failed to close PCM source", "error", err)
		}
	})
}

// Done is closed once the stream loop has exited.
func (ap *AudioPipeline) Done() <-chan struct{} {
	return ap.done
}

// Err returns the error that ended the stream, if any.
func (ap *AudioPipeline) Err() error {
	ap.mu.RLock()
	defer ap.mu.RUnlock()
	return ap.err
}

// IsPlaying returns whether the pipeline is currently streaming.
func (ap *AudioPipeline) IsPlaying() bool {
	ap.mu.RLock()
	defer ap.mu.RUnlock()
	return ap.isPlaying
}

// Frames returns the number of frames sent so far.
func (ap *AudioPipeline) Frames() int {
	ap.mu.RLock()
	defer ap.mu.RUnlock()
	return ap.frames
}

func bytesToInt16(data []byte, samples []int16) {
	for i := range samples {
		samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
}

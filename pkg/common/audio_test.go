package common

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/latoulicious/mpdbot/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVoice struct {
	mu           sync.Mutex
	send         chan []byte
	speaking     []bool
	disconnected int
}

func newFakeVoice(buffer int) *fakeVoice {
	return &fakeVoice{send: make(chan []byte, buffer)}
}

func (f *fakeVoice) Speaking(b bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.speaking = append(f.speaking, b)
	return nil
}

func (f *fakeVoice) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected++
	return nil
}

func (f *fakeVoice) OpusSend() chan<- []byte { return f.send }

// recordingEncoder "encodes" a frame as the little endian bytes of its first sample.
type recordingEncoder struct {
	mu     sync.Mutex
	frames [][]int16
	err    error
}

func (e *recordingEncoder) Encode(pcm []int16, frameSize, maxDataBytes int) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	frame := make([]int16, len(pcm))
	copy(frame, pcm)
	e.frames = append(e.frames, frame)
	out := make([]byte, 2)
	binary.LittleEndian.PutUint16(out, uint16(pcm[0]))
	return out, nil
}

func pcmFrames(values ...int16) []byte {
	var buf bytes.Buffer
	for _, v := range values {
		for i := 0; i < FrameSamples*PCMFormat.NumChannels; i++ {
			binary.Write(&buf, binary.LittleEndian, v)
		}
	}
	return buf.Bytes()
}

func waitDone(t *testing.T, ap *AudioPipeline) {
	t.Helper()
	select {
	case <-ap.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline did not finish")
	}
}

func TestFrameGeometry(t *testing.T) {
	assert.Equal(t, 960, FrameSamples)
	assert.Equal(t, 3840, FrameBytes)
}

func TestPipelineStreamsWholeFrames(t *testing.T) {
	voice := newFakeVoice(16)
	enc := &recordingEncoder{}
	source := io.NopCloser(bytes.NewReader(pcmFrames(1, -2, 300)))

	ap := NewAudioPipeline(voice, source, enc, logger.Discard())
	require.NoError(t, ap.Start())
	waitDone(t, ap)

	require.NoError(t, ap.Err())
	assert.Equal(t, 3, ap.Frames())
	assert.False(t, ap.IsPlaying())
	require.Len(t, enc.frames, 3)
	assert.Equal(t, int16(1), enc.frames[0][0])
	assert.Equal(t, int16(-2), enc.frames[1][FrameSamples])
	assert.Equal(t, int16(300), enc.frames[2][len(enc.frames[2])-1])
	assert.Len(t, voice.send, 3)
	assert.Equal(t, []bool{true, false}, voice.speaking)
}

func TestPipelinePadsTrailingPartialFrame(t *testing.T) {
	voice := newFakeVoice(16)
	enc := &recordingEncoder{}
	data := pcmFrames(7)
	partial := append(data, 0x05, 0x00, 0x05, 0x00)
	source := io.NopCloser(bytes.NewReader(partial))

	ap := NewAudioPipeline(voice, source, enc, logger.Discard())
	require.NoError(t, ap.Start())
	waitDone(t, ap)

	require.Len(t, enc.frames, 2)
	assert.Equal(t, int16(5), enc.frames[1][0])
	assert.Equal(t, int16(5), enc.frames[1][1])
	assert.Equal(t, int16(0), enc.frames[1][2])
}

func TestPipelineSkipsFramesThatFailToEncode(t *testing.T) {
	voice := newFakeVoice(16)
	enc := &recordingEncoder{err: errors.New("bad frame")}
	source := io.NopCloser(bytes.NewReader(pcmFrames(1, 2)))

	ap := NewAudioPipeline(voice, source, enc, logger.Discard())
	require.NoError(t, ap.Start())
	waitDone(t, ap)

	assert.Equal(t, 0, ap.Frames())
	assert.Empty(t, voice.send)
}

type blockingSource struct {
	closed chan struct{}
	once   sync.Once
}

func (b *blockingSource) Read(p []byte) (int, error) {
	<-b.closed
	return 0, errors.New("read on closed source")
}

func (b *blockingSource) Close() error {
	b.once.Do(func() { close(b.closed) })
	return nil
}

func TestPipelineStopUnblocksRead(t *testing.T) {
	voice := newFakeVoice(1)
	source := &blockingSource{closed: make(chan struct{})}

	ap := NewAudioPipeline(voice, source, &recordingEncoder{}, logger.Discard())
	require.NoError(t, ap.Start())
	assert.True(t, ap.IsPlaying())

	ap.Stop()
	ap.Stop()
	waitDone(t, ap)
	assert.NoError(t, ap.Err(), "stopping is not a stream failure")
}

func TestPipelineStopUnblocksSend(t *testing.T) {
	voice := newFakeVoice(0) // nobody drains the channel
	source := io.NopCloser(bytes.NewReader(pcmFrames(1, 2, 3)))

	ap := NewAudioPipeline(voice, source, &recordingEncoder{}, logger.Discard())
	require.NoError(t, ap.Start())

	time.Sleep(20 * time.Millisecond)
	ap.Stop()
	waitDone(t, ap)
	assert.Equal(t, 0, ap.Frames())
}

func TestPipelineStartTwice(t *testing.T) {
	source := &blockingSource{closed: make(chan struct{})}
	ap := NewAudioPipeline(newFakeVoice(1), source, &recordingEncoder{}, logger.Discard())

	require.NoError(t, ap.Start())
	assert.ErrorIs(t, ap.Start(), ErrPipelinePlaying)
	ap.Stop()
	waitDone(t, ap)
}

func TestSessionStopAndCleanup(t *testing.T) {
	voice := newFakeVoice(1)
	source := &blockingSource{closed: make(chan struct{})}
	ap := NewAudioPipeline(voice, source, &recordingEncoder{}, logger.Discard())
	require.NoError(t, ap.Start())

	session := NewVoiceSession("guild", "channel", voice, ap)
	assert.NotEmpty(t, session.ID)
	assert.True(t, session.IsStreaming())

	require.NoError(t, session.StopAndCleanup())
	require.NoError(t, session.StopAndCleanup())
	waitDone(t, ap)

	assert.False(t, session.IsStreaming())
	assert.Equal(t, 1, voice.disconnected)
}

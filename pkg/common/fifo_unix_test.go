//go:build linux || darwin

package common

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeFIFO(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mpd_bot.fifo")
	if err := syscall.Mkfifo(path, 0o600); err != nil {
		t.Skipf("mkfifo not supported: %v", err)
	}
	return path
}

func TestOpenPCMSourceRegularFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pcm.raw")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3, 4}, 0o600))

	f, err := OpenPCMSource(context.Background(), path, time.Second)
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, data)
}

func TestOpenPCMSourceMissing(t *testing.T) {
	_, err := OpenPCMSource(context.Background(), filepath.Join(t.TempDir(), "nope"), time.Second)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenPCMSourceTimesOutWithoutWriter(t *testing.T) {
	path := makeFIFO(t)

	start := time.Now()
	_, err := OpenPCMSource(context.Background(), path, 50*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestOpenPCMSourceHonoursCancellation(t *testing.T) {
	path := makeFIFO(t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := OpenPCMSource(ctx, path, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenPCMSourceCancelledDoesNotLeak(t *testing.T) {
	path := makeFIFO(t)
	baseline := runtime.NumGoroutine()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 50; i++ {
		// A release from an earlier call can hand this open a writer first.
		f, err := OpenPCMSource(ctx, path, time.Minute)
		if err != nil {
			require.ErrorIs(t, err, context.Canceled)
			continue
		}
		f.Close()
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= baseline+2
	}, 5*time.Second, 20*time.Millisecond)
}

func TestOpenPCMSourceWithWriter(t *testing.T) {
	path := makeFIFO(t)

	go func() {
		w, err := os.OpenFile(path, os.O_WRONLY, 0)
		if err != nil {
			return
		}
		defer w.Close()
		w.Write([]byte("pcm"))
	}()

	f, err := OpenPCMSource(context.Background(), path, 2*time.Second)
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "pcm", string(data))
}

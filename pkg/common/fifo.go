package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"
)

var ErrSourceUnavailable = errors.New("audio source unavailable")

const (
	releaseInterval = 10 * time.Millisecond
	releaseAttempts = 500
)

type openResult struct {
	f   *os.File
	err error
}

// OpenPCMSource opens the audio FIFO at path. Opening a FIFO blocks until a
// writer appears, so the wait is bounded by timeout and ctx. A timed-out open
// is released by briefly opening the FIFO for writing until the pending open
// returns.
func OpenPCMSource(ctx context.Context, path string, timeout time.Duration) (*os.File, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	opened := make(chan openResult, 1)

	go func() {
		f, err := os.Open(path)
		opened <- openResult{f: f, err: err}
	}()

	select {
	case res := <-opened:
		if res.err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, res.err)
		}
		return res.f, nil
	case <-ctx.Done():
		go drainBlockedOpen(path, opened)
		return nil, fmt.Errorf("%w: waiting for a writer on %s: %w", ErrSourceUnavailable, path, ctx.Err())
	}
}

// drainBlockedOpen unblocks the abandoned open and closes whatever it returns.
// A non-blocking writer open fails with ENXIO until the reader is parked in
// open(2), so the release is retried.
func drainBlockedOpen(path string, opened <-chan openResult) {
	ticker := time.NewTicker(releaseInterval)
	defer ticker.Stop()

	for attempt := 0; attempt < releaseAttempts; attempt++ {
		releaseBlockedOpen(path)
		select {
		case res := <-opened:
			if res.f != nil {
				res.f.Close()
			}
			return
		case <-ticker.C:
		}
	}

	if res := <-opened; res.f != nil {
		res.f.Close()
	}
}

func releaseBlockedOpen(path string) {
	w, err := os.OpenFile(path, os.O_WRONLY|syscall.O_NONBLOCK, 0)
	if err == nil {
		w.Close()
	}
}
